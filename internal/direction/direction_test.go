package direction

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/frames"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
	"sprite-curator/internal/testsupport"
	"sprite-curator/pkg/colorutil"
)

func directionalRows(t *testing.T, framesPerRow int) []frames.Row {
	t.Helper()

	img := testsupport.DirectionalSheet(framesPerRow)
	geo := grid.NewGeometry(img.Bounds().Dx(), img.Bounds().Dy(), 16, 16)
	rows, err := frames.Rows(img, geo, framesPerRow, 4)
	require.NoError(t, err)
	return rows
}

func expectedDirectional() map[Direction]int {
	return map[Direction]int{Down: 0, Up: 3, Left: 1, Right: 2}
}

func TestTraditionalDirectionalSheet(t *testing.T) {
	t.Parallel()

	m, analyses, err := NewTraditional().Analyze(context.Background(), directionalRows(t, 4))
	require.NoError(t, err)
	require.Len(t, analyses, 4)

	assert.Equal(t, expectedDirectional(), m.Directions)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)
	require.NoError(t, m.Validate())

	assert.Greater(t, analyses[0].FacingScore, 0.0)
	assert.Less(t, analyses[3].FacingScore, 0.0)
	assert.Less(t, analyses[1].HorizontalAsymmetry, 0.0)
	assert.Greater(t, analyses[2].HorizontalAsymmetry, 0.0)
	assert.Greater(t, analyses[0].MotionAmount, 0.0, "alternating frames differ")
	assert.Zero(t, analyses[3].MotionAmount, "bottom row does not move")
}

func TestTraditionalAssignsEachRowOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rowCount int
		wantDirs []Direction
	}{
		{name: "one row", rowCount: 1, wantDirs: []Direction{Down}},
		{name: "two rows", rowCount: 2, wantDirs: []Direction{Down, Up}},
		{name: "three rows", rowCount: 3, wantDirs: nil},
		{name: "four rows", rowCount: 4, wantDirs: []Direction{Down, Up, Left, Right}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rows := directionalRows(t, 3)[:tt.rowCount]
			m, _, err := NewTraditional().Analyze(context.Background(), rows)
			require.NoError(t, err)
			require.NoError(t, m.Validate())
			assert.LessOrEqual(t, len(m.Directions), tt.rowCount)
			if tt.wantDirs != nil {
				assert.Equal(t, tt.wantDirs, m.Assigned())
			}
		})
	}
}

func TestTraditionalUniformRowsStayDistinct(t *testing.T) {
	t.Parallel()

	img := testsupport.BoxSheet(3, 6, 16, 16)
	rows, err := frames.Rows(img, grid.NewGeometry(48, 96, 16, 16), 3, 6)
	require.NoError(t, err)

	m, analyses, err := NewTraditional().Analyze(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, analyses, 6)
	require.NoError(t, m.Validate())
	assert.Len(t, m.Directions, 4)
	assert.Zero(t, m.Confidence, "identical rows carry no separation")
}

func TestTraditionalNoRows(t *testing.T) {
	t.Parallel()

	m, analyses, err := NewTraditional().Analyze(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, m.Empty())
	assert.Empty(t, analyses)
	assert.Zero(t, m.Confidence)
}

func TestVerticalMotion(t *testing.T) {
	t.Parallel()

	img := testsupport.Sheet(3, 1, 16, 16, func(img *image.RGBA, cell image.Rectangle, _, col int) {
		testsupport.FillRect(img, cell, 4, 2+col*3, 12, 6+col*3, colorutil.White)
	})
	rows, err := frames.Rows(img, grid.NewGeometry(48, 16, 16, 16), 3, 1)
	require.NoError(t, err)

	a := AnalyzeRow(rows[0], true)
	assert.InDelta(t, 3.0, a.VerticalMotion, 1e-9)
}

func TestTraditionalUsesOneInkMeasurePerSheet(t *testing.T) {
	t.Parallel()

	// Row 0 is drawn on transparency; row 1 is an opaque black frame with a
	// bright block at the bottom, which has uniform coverage.
	img := testsupport.Sheet(1, 2, 16, 15, func(img *image.RGBA, cell image.Rectangle, row, _ int) {
		if row == 0 {
			testsupport.FillRect(img, cell, 4, 0, 12, 5, colorutil.White)
			return
		}
		testsupport.FillRect(img, cell, 0, 0, 16, 15, colorutil.Black)
		testsupport.FillRect(img, cell, 4, 10, 12, 15, colorutil.White)
	})
	rows, err := frames.Rows(img, grid.NewGeometry(16, 30, 16, 15), 1, 2)
	require.NoError(t, err)
	require.False(t, raster.New(rows[1].Frames[0].Image).HasAlpha)

	_, analyses, err := NewTraditional().Analyze(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, analyses, 2)
	assert.InDelta(t, 1.0, analyses[0].FacingScore, 1e-9)
	assert.InDelta(t, 0.0, analyses[1].FacingScore, 1e-9)
	assert.Less(t, AnalyzeRow(rows[1], false).FacingScore, 0.0)
}

func TestFacingScore(t *testing.T) {
	t.Parallel()

	ink := raster.NewPlane(4, 9)
	for x := 0; x < 4; x++ {
		ink.Pix[x] = 1
	}
	assert.InDelta(t, 1.0, facingScore(ink), 1e-9)
	assert.Zero(t, facingScore(raster.NewPlane(4, 2)))
}

func TestAssignByFacing(t *testing.T) {
	t.Parallel()

	dirs := assignByFacing([]float64{0, 0, 0}, []float64{0.2, -0.5, 0.4})
	assert.Equal(t, 0, dirs[Down])
	assert.Equal(t, 1, dirs[Up])
	assert.Equal(t, 2, dirs[Right])
	_, hasLeft := dirs[Left]
	assert.False(t, hasLeft)

	dirs = assignByFacing([]float64{0.1, 0.9, -0.3}, []float64{0, 0, -0.2})
	assert.Equal(t, map[Direction]int{Down: 1, Up: 2, Left: 0}, dirs)

	// Extra rows: left is the most left-leaning row, not the runner-up to right.
	dirs = assignByFacing([]float64{0.9, 0, 0, 0, -0.9}, []float64{0, -0.4, 0.5, 0.3, 0})
	assert.Equal(t, map[Direction]int{Down: 0, Up: 4, Right: 2, Left: 1}, dirs)
}

func TestMappingJSON(t *testing.T) {
	t.Parallel()

	m := Mapping{Directions: map[Direction]int{Down: 0, Right: 2}, Confidence: 0.5}
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"directions":{"down":0,"right":2},"confidence":0.5}`, string(data))

	var back Mapping
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, m, back)
}

func TestMappingValidateRejectsSharedRow(t *testing.T) {
	t.Parallel()

	m := Mapping{Directions: map[Direction]int{Down: 1, Left: 1}}
	assert.Error(t, m.Validate())
}

func TestParseDirection(t *testing.T) {
	t.Parallel()

	for _, d := range All {
		parsed, err := Parse(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}
	_, err := Parse("north")
	assert.Error(t, err)
}

// inkExtractor computes densities from the ink plane so the feature method
// can be exercised without a vision backend.
type inkExtractor struct {
	fail error
}

func (e inkExtractor) FrameFeatures(img image.Image) (Features, error) {
	if e.fail != nil {
		return Features{}, e.fail
	}
	r := raster.New(img)
	ink := raster.Ink(img, r.HasAlpha)
	third, half := ink.H/3, ink.W/2
	f := Features{
		DensityTop:    ink.Mean(0, 0, ink.W, third),
		DensityMiddle: ink.Mean(0, third, ink.W, ink.H-third),
		DensityBottom: ink.Mean(0, ink.H-third, ink.W, ink.H),
		DensityLeft:   ink.Mean(0, 0, half, ink.H),
		DensityRight:  ink.Mean(ink.W-half, 0, ink.W, ink.H),
	}
	f.EdgeTop, f.EdgeMiddle, f.EdgeBottom = f.DensityTop, f.DensityMiddle, f.DensityBottom
	return f, nil
}

func TestFeatureDirectionalSheet(t *testing.T) {
	t.Parallel()

	method, err := NewFeature(inkExtractor{})
	require.NoError(t, err)

	m, analyses, err := method.Analyze(context.Background(), directionalRows(t, 4))
	require.NoError(t, err)
	assert.Equal(t, expectedDirectional(), m.Directions)
	assert.InDelta(t, 1.0, m.Confidence, 1e-9)
	require.Len(t, analyses, 4)
	require.NotNil(t, analyses[0].Features)
}

func TestFeatureUnavailableWithoutExtractor(t *testing.T) {
	t.Parallel()

	_, err := NewFeature(nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestFeatureExtractorErrorIsExecutionError(t *testing.T) {
	t.Parallel()

	method, err := NewFeature(inkExtractor{fail: errors.New("mat empty")})
	require.NoError(t, err)

	_, _, err = method.Analyze(context.Background(), directionalRows(t, 2))
	require.Error(t, err)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, NameFeature, ee.Method)
	assert.Contains(t, err.Error(), "mat empty")
}

// rowClassifier answers as if every frame showed the direction of its row in
// the directional sheet.
type rowClassifier struct {
	truth map[int]Direction
	calls int
}

func labelDirection(label string) Direction {
	switch {
	case strings.Contains(label, "left"):
		return Left
	case strings.Contains(label, "right"):
		return Right
	case strings.Contains(label, "back"), strings.Contains(label, "behind"), strings.Contains(label, "away"):
		return Up
	default:
		return Down
	}
}

func (c *rowClassifier) Classify(_ context.Context, img image.Image, labels []string) ([]float64, error) {
	c.calls++
	want := c.truth[img.Bounds().Min.Y/16]

	match := -1
	for i, l := range labels {
		if labelDirection(l) == want {
			match = i
		}
	}
	probs := make([]float64, len(labels))
	if match < 0 {
		for i := range probs {
			probs[i] = 1 / float64(len(labels))
		}
		return probs, nil
	}
	for i := range probs {
		probs[i] = 0.15 / float64(len(labels)-1)
	}
	probs[match] = 0.85
	return probs, nil
}

func TestSemanticDirectionalSheet(t *testing.T) {
	t.Parallel()

	classifier := &rowClassifier{truth: map[int]Direction{0: Down, 1: Left, 2: Right, 3: Up}}
	method, err := NewSemantic(classifier, time.Second)
	require.NoError(t, err)

	m, analyses, err := method.Analyze(context.Background(), directionalRows(t, 4))
	require.NoError(t, err)
	assert.Equal(t, expectedDirectional(), m.Directions)
	assert.Greater(t, m.Confidence, 0.0)
	assert.LessOrEqual(t, m.Confidence, 1.0)
	require.Len(t, analyses, 4)
	assert.InDelta(t, 0.85, analyses[0].Composite[Down], 1e-9)

	// Two representative frames, five questions, four rows.
	assert.Equal(t, 2*5*4, classifier.calls)
}

func TestSemanticClaimOrder(t *testing.T) {
	t.Parallel()

	// Every row looks like it faces down, so down takes row 0 and the rest
	// are claimed in order from what is left.
	classifier := &rowClassifier{truth: map[int]Direction{0: Down, 1: Down, 2: Down}}
	method, err := NewSemantic(classifier, time.Second)
	require.NoError(t, err)

	m, _, err := method.Analyze(context.Background(), directionalRows(t, 2)[:3])
	require.NoError(t, err)
	require.NoError(t, m.Validate())
	assert.Equal(t, []Direction{Down, Up, Left}, m.Assigned())
	assert.Equal(t, 0, m.Directions[Down])
}

type blockingClassifier struct{}

func (blockingClassifier) Classify(ctx context.Context, _ image.Image, _ []string) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSemanticTimeout(t *testing.T) {
	t.Parallel()

	method, err := NewSemantic(blockingClassifier{}, 10*time.Millisecond)
	require.NoError(t, err)

	_, _, err = method.Analyze(context.Background(), directionalRows(t, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var ee *ExecutionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, NameSemantic, ee.Method)
}

type shortClassifier struct{}

func (shortClassifier) Classify(context.Context, image.Image, []string) ([]float64, error) {
	return []float64{1}, nil
}

func TestSemanticRejectsShortAnswer(t *testing.T) {
	t.Parallel()

	method, err := NewSemantic(shortClassifier{}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSemanticTimeout, method.timeout)

	_, _, err = method.Analyze(context.Background(), directionalRows(t, 1))
	assert.ErrorContains(t, err, "returned 1 scores for 2 labels")
}

func TestSemanticUnavailableWithoutClassifier(t *testing.T) {
	t.Parallel()

	_, err := NewSemantic(nil, time.Second)
	assert.ErrorIs(t, err, ErrUnavailable)
}
