package ensemble

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/direction"
	"sprite-curator/internal/frames"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/testsupport"
	"sprite-curator/internal/vision"
)

type stubMethod struct {
	name     string
	richness int
	mapping  direction.Mapping
	err      error
	panics   bool
}

func (s stubMethod) Name() string  { return s.name }
func (s stubMethod) Richness() int { return s.richness }

func (s stubMethod) Analyze(context.Context, []frames.Row) (direction.Mapping, []direction.RowAnalysis, error) {
	if s.panics {
		panic("index out of range")
	}
	return s.mapping, nil, s.err
}

func mapping(conf float64, dirs map[direction.Direction]int) direction.Mapping {
	return direction.Mapping{Directions: dirs, Confidence: conf}
}

func TestResolveDirectionalSheet(t *testing.T) {
	t.Parallel()

	img := testsupport.DirectionalSheet(4)
	res, err := NewResolver(direction.NewTraditional()).Resolve(context.Background(), img, grid.NewGeometry(64, 64, 16, 16))
	require.NoError(t, err)
	assert.Equal(t, direction.NameTraditional, res.BestMethod)
	assert.Equal(t, map[direction.Direction]int{
		direction.Down: 0, direction.Up: 3, direction.Left: 1, direction.Right: 2,
	}, res.BestMapping.Directions)
	assert.False(t, res.Failed())
	require.Contains(t, res.PerMethod, direction.NameTraditional)
	assert.Len(t, res.PerMethod[direction.NameTraditional].Analyses, 4)
}

func TestBestMethodIsMostConfident(t *testing.T) {
	t.Parallel()

	dirs := map[direction.Direction]int{direction.Down: 0}
	r := NewResolver(
		stubMethod{name: "semantic", richness: 2, mapping: mapping(0.3, dirs)},
		stubMethod{name: "traditional", richness: 0, mapping: mapping(0.8, dirs)},
		stubMethod{name: "feature", richness: 1, err: errors.New("no frames")},
	)
	assert.Equal(t, []string{"traditional", "feature", "semantic"}, r.Methods())

	res := r.Run(context.Background(), nil)
	assert.Equal(t, "traditional", res.BestMethod)
	assert.InDelta(t, 0.8, res.BestMapping.Confidence, 1e-9)

	failed := res.PerMethod["feature"]
	assert.False(t, failed.Succeeded())
	assert.Contains(t, failed.Error, "no frames")
	var ee *direction.ExecutionError
	require.ErrorAs(t, failed.Err, &ee)
	assert.Equal(t, "feature", ee.Method)
}

func TestTieGoesToRicherMethod(t *testing.T) {
	t.Parallel()

	r := NewResolver(
		stubMethod{name: "traditional", richness: 0, mapping: mapping(0.5, map[direction.Direction]int{direction.Down: 0})},
		stubMethod{name: "semantic", richness: 2, mapping: mapping(0.5, map[direction.Direction]int{direction.Down: 1})},
		stubMethod{name: "feature", richness: 1, mapping: mapping(0.5, map[direction.Direction]int{direction.Down: 2})},
	)
	res := r.Run(context.Background(), nil)
	assert.Equal(t, "semantic", res.BestMethod)
	assert.Equal(t, 1, res.BestMapping.Directions[direction.Down])
}

func TestEmptyMappingNeverWins(t *testing.T) {
	t.Parallel()

	r := NewResolver(
		stubMethod{name: "traditional", richness: 0, mapping: mapping(0.1, map[direction.Direction]int{direction.Down: 0})},
		stubMethod{name: "semantic", richness: 2, mapping: mapping(0.9, nil)},
	)
	res := r.Run(context.Background(), nil)
	assert.Equal(t, "traditional", res.BestMethod)
}

func TestAllMethodsFail(t *testing.T) {
	t.Parallel()

	r := NewResolver(
		stubMethod{name: "traditional", err: errors.New("boom")},
		stubMethod{name: "feature", richness: 1, panics: true},
		stubMethod{name: "semantic", richness: 2, mapping: mapping(0.7, map[direction.Direction]int{direction.Down: 0, direction.Up: 0})},
	)
	res := r.Run(context.Background(), nil)
	assert.True(t, res.Failed())
	assert.Empty(t, res.BestMethod)
	assert.True(t, res.BestMapping.Empty())
	assert.Zero(t, res.BestMapping.Confidence)
	require.Len(t, res.PerMethod, 3)

	assert.Contains(t, res.PerMethod["feature"].Error, "panic: index out of range")
	assert.Contains(t, res.PerMethod["semantic"].Error, "assigned to both")
	for name, mr := range res.PerMethod {
		assert.Error(t, mr.Err, name)
		assert.True(t, mr.Empty(), name)
	}
}

func TestNoMethods(t *testing.T) {
	t.Parallel()

	res := NewResolver().Run(context.Background(), nil)
	assert.True(t, res.Failed())
	assert.Empty(t, res.PerMethod)
}

func TestResolveStructuralErrors(t *testing.T) {
	t.Parallel()

	img := testsupport.BoxSheet(3, 4, 16, 18)
	r := NewResolver(direction.NewTraditional())

	_, err := r.Resolve(context.Background(), img, grid.NewGeometry(48, 72, 0, 0))
	require.Error(t, err)
	assert.True(t, grid.IsDegenerate(err))

	_, err = r.ResolveRows(context.Background(), img, grid.NewGeometry(48, 72, 16, 18), 3, 5)
	assert.ErrorContains(t, err, "exceeds image")
}

func TestResultJSON(t *testing.T) {
	t.Parallel()

	res := NewResolver(
		stubMethod{name: "traditional", mapping: mapping(0.25, map[direction.Direction]int{direction.Down: 0})},
		stubMethod{name: "feature", richness: 1, err: errors.New("boom")},
	).Run(context.Background(), nil)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "traditional", decoded["best_method"])

	perMethod := decoded["per_method"].(map[string]any)
	trad := perMethod["traditional"].(map[string]any)
	assert.Equal(t, map[string]any{"down": float64(0)}, trad["directions"])
	assert.InDelta(t, 0.25, trad["confidence"], 1e-9)
	assert.Contains(t, perMethod["feature"].(map[string]any)["error"], "boom")
}

type fakeClassifier struct {
	pingErr error
}

func (f fakeClassifier) Classify(_ context.Context, _ image.Image, labels []string) ([]float64, error) {
	out := make([]float64, len(labels))
	for i := range out {
		out[i] = 1 / float64(len(labels))
	}
	return out, nil
}

func (f fakeClassifier) Ping(context.Context) error { return f.pingErr }

func TestDefaultMethods(t *testing.T) {
	t.Parallel()

	names := func(ms []direction.Method) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Name()
		}
		return out
	}

	t.Run("reachable classifier", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Classifier = fakeClassifier{}
		got := names(DefaultMethods(context.Background(), opts, nil))
		assert.Contains(t, got, direction.NameTraditional)
		assert.Contains(t, got, direction.NameSemantic)
		assert.Equal(t, vision.Available(), slices.Contains(got, direction.NameFeature))
	})

	t.Run("unreachable classifier", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Classifier = fakeClassifier{pingErr: errors.New("connection refused")}
		got := names(DefaultMethods(context.Background(), opts, nil))
		assert.NotContains(t, got, direction.NameSemantic)
	})

	t.Run("feature disabled", func(t *testing.T) {
		t.Parallel()
		opts := DefaultOptions()
		opts.Feature = false
		got := names(DefaultMethods(context.Background(), opts, nil))
		assert.Equal(t, []string{direction.NameTraditional}, got)
	})
}
