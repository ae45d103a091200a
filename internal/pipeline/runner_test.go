package pipeline

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/catalog"
	"sprite-curator/internal/direction"
	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/gate"
	"sprite-curator/internal/testsupport"
)

type memoryRecorder struct {
	mu        sync.Mutex
	processed map[string]catalog.ProcessedSheet
	reviews   map[string]catalog.ReviewEntry
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{
		processed: make(map[string]catalog.ProcessedSheet),
		reviews:   make(map[string]catalog.ReviewEntry),
	}
}

func (m *memoryRecorder) RecordProcessed(_ context.Context, p catalog.ProcessedSheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed[p.ID] = p
	return nil
}

func (m *memoryRecorder) RecordReview(_ context.Context, e catalog.ReviewEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reviews[e.ID] = e
	return nil
}

// fixture writes a perfectly tiled sheet, an untileable blank sheet and a
// missing path.
func fixture(t *testing.T) (dir string, sheets []Sheet) {
	t.Helper()

	dir = t.TempDir()
	boxes := testsupport.WritePNG(t, dir, "boxes.png", testsupport.BoxSheet(3, 4, 16, 18))
	blank := testsupport.WritePNG(t, dir, "blank.png", image.NewRGBA(image.Rect(0, 0, 100, 64)))
	return dir, []Sheet{
		{ID: "boxes", Title: "Boxes", Path: boxes},
		{ID: "blank", Title: "Blank", Path: blank},
		{ID: "missing", Title: "Missing", Path: filepath.Join(dir, "missing.png")},
	}
}

func TestRunRoutesSheets(t *testing.T) {
	t.Parallel()

	dir, sheets := fixture(t)
	out := filepath.Join(dir, "frames")
	rec := newMemoryRecorder()

	runner, err := NewRunner(DefaultConfig(), DirSink{Root: out}, rec,
		WithResolver(ensemble.NewResolver(direction.NewTraditional())))
	require.NoError(t, err)

	stats, err := runner.Run(context.Background(), sheets)
	require.NoError(t, err)

	sum := stats.Summary()
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 3, sum.Total)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, sum.NeedsReview)
	assert.Equal(t, 1, sum.Failed)
	assert.Equal(t, 12, sum.ExtractedFrames)
	assert.InDelta(t, 100.0/3, sum.SuccessRate, 1e-9)

	outcomes := stats.Outcomes()
	require.Len(t, outcomes, 3)
	assert.Equal(t, []string{"boxes", "blank", "missing"},
		[]string{outcomes[0].SheetID, outcomes[1].SheetID, outcomes[2].SheetID})

	boxes := outcomes[0]
	assert.Equal(t, StatusProcessed, boxes.Status)
	assert.Equal(t, gate.Certain, boxes.Verdict)
	require.NotNil(t, boxes.Layout)
	assert.Equal(t, 16, boxes.Layout.FrameWidth)
	assert.Equal(t, 18, boxes.Layout.FrameHeight)
	require.Len(t, boxes.Groups, 1)
	assert.Equal(t, 12, boxes.Groups[0].Size)
	require.NotNil(t, boxes.Directions)
	assert.Equal(t, direction.NameTraditional, boxes.Directions.BestMethod)

	for i := 0; i < 12; i++ {
		assert.FileExists(t, filepath.Join(out, "boxes", FrameFileName(i)))
	}

	p, ok := rec.processed["boxes"]
	require.True(t, ok)
	assert.Equal(t, sum.RunID, p.RunID)
	assert.Equal(t, 12, p.ExtractedFrames)
	assert.Equal(t, 1, p.GroupCount)
	assert.Equal(t, 12, p.LargestGroup)
	assert.Equal(t, direction.NameTraditional, p.DirectionMethod)

	assert.Equal(t, StatusNeedsReview, outcomes[1].Status)
	assert.Equal(t, gate.Uncertain, outcomes[1].Verdict)
	review, ok := rec.reviews["blank"]
	require.True(t, ok)
	assert.Equal(t, "uncertain", review.Verdict)
	assert.Equal(t, 100, review.ImageWidth)
	assert.NotEmpty(t, review.Candidates)

	assert.Equal(t, StatusFailed, outcomes[2].Status)
	assert.NotEmpty(t, outcomes[2].Error)
	assert.NotContains(t, rec.processed, "missing")
	assert.NotContains(t, rec.reviews, "missing")
}

func TestRunWithCatalogStore(t *testing.T) {
	t.Parallel()

	dir, sheets := fixture(t)
	store, err := catalog.Open(filepath.Join(dir, "catalog.db"))
	require.NoError(t, err)
	defer store.Close()

	cfg := DefaultConfig()
	cfg.Workers = 2
	runner, err := NewRunner(cfg, nil, store)
	require.NoError(t, err)

	ctx := context.Background()
	_, err = runner.Run(ctx, sheets)
	require.NoError(t, err)

	st, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, catalog.Stats{Processed: 1, NeedsReview: 1, ExtractedFrames: 12}, st)

	queue, err := store.ReviewQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "blank", queue[0].ID)
	assert.Equal(t, catalog.ReviewInstructions, queue[0].Instructions)

	p, err := store.Processed(ctx, "boxes")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Empty(t, p.OutputDir, "discard sink writes nothing")
}

func TestRunCharactersOnly(t *testing.T) {
	t.Parallel()

	_, sheets := fixture(t)
	sheets[0].Title = "Knight walk cycle"
	cfg := DefaultConfig()
	cfg.CharactersOnly = true

	rec := newMemoryRecorder()
	runner, err := NewRunner(cfg, nil, rec)
	require.NoError(t, err)
	stats, err := runner.Run(context.Background(), sheets)
	require.NoError(t, err)

	sum := stats.Summary()
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, KindCharacter, stats.Outcomes()[0].Kind)
	assert.Equal(t, "character", rec.processed["boxes"].Kind)
}

func TestRunRecordsCharacterKind(t *testing.T) {
	t.Parallel()

	_, sheets := fixture(t)
	sheets[0].Title = "Hero run animation"

	rec := newMemoryRecorder()
	runner, err := NewRunner(DefaultConfig(), nil, rec)
	require.NoError(t, err)
	stats, err := runner.Run(context.Background(), sheets)
	require.NoError(t, err)

	outcomes := stats.Outcomes()
	assert.Equal(t, KindPlayer, outcomes[0].Kind)
	assert.Empty(t, outcomes[1].Kind)
	assert.Equal(t, "player", rec.processed["boxes"].Kind)
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	_, sheets := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner, err := NewRunner(DefaultConfig(), nil, newMemoryRecorder())
	require.NoError(t, err)
	stats, err := runner.Run(ctx, sheets)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, stats.Summary().Processed)
}

// cancellingRecorder cancels the run while the last sheet is being recorded.
type cancellingRecorder struct {
	*memoryRecorder
	cancel context.CancelFunc
}

func (c cancellingRecorder) RecordProcessed(ctx context.Context, p catalog.ProcessedSheet) error {
	c.cancel()
	return c.memoryRecorder.RecordProcessed(ctx, p)
}

func TestRunCancelledAfterScheduling(t *testing.T) {
	t.Parallel()

	_, sheets := fixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := DefaultConfig()
	cfg.Workers = 1
	runner, err := NewRunner(cfg, nil, cancellingRecorder{memoryRecorder: newMemoryRecorder(), cancel: cancel})
	require.NoError(t, err)

	stats, err := runner.Run(ctx, sheets[:1])
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Summary().Processed)
}

type framingClassifier struct{}

func (framingClassifier) Classify(_ context.Context, _ image.Image, labels []string) ([]float64, error) {
	probs := make([]float64, len(labels))
	probs[0], probs[1] = 0.4, 0.4
	for i := 2; i < len(probs); i++ {
		probs[i] = 0.2 / float64(len(probs)-2)
	}
	return probs, nil
}

func TestRunAttachesLayoutValidation(t *testing.T) {
	t.Parallel()

	_, sheets := fixture(t)
	runner, err := NewRunner(DefaultConfig(), nil, newMemoryRecorder(), WithLayoutValidator(framingClassifier{}))
	require.NoError(t, err)

	stats, err := runner.Run(context.Background(), sheets[:1])
	require.NoError(t, err)
	o := stats.Outcomes()[0]
	require.NotNil(t, o.Validation)
	assert.True(t, o.Validation.Validated)
	assert.Equal(t, StatusProcessed, o.Status, "validation never changes the verdict")
}

func TestNewRunnerRequiresRecorder(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func TestDirSink(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	_, sheets := fixture(t)
	runner, err := NewRunner(DefaultConfig(), DirSink{Root: root}, newMemoryRecorder())
	require.NoError(t, err)
	_, err = runner.Run(context.Background(), sheets[:1])
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(root, "boxes"))
	require.NoError(t, err)
	assert.Len(t, entries, 12)
	assert.Equal(t, "frame_0000.png", entries[0].Name())
	assert.Equal(t, "frame_0011.png", FrameFileName(11))
}
