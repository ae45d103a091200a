package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprite-curator/internal/grid"
)

func openStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "catalog", "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()
	assert.Equal(t, path, second.Path())

	_, err = Open("")
	assert.Error(t, err)
}

func TestRecordProcessedRoundTrip(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	layout := grid.Fit(48, 72, 16, 18)
	layout.Method = grid.MethodGapScan
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	in := ProcessedSheet{
		ID:                  "hero-walk",
		RunID:               "run-1",
		Title:               "Hero walk",
		SourcePath:          "sheets/hero.png",
		Layout:              layout,
		ExtractedFrames:     12,
		OutputDir:           "out/hero-walk",
		DirectionMethod:     "traditional",
		DirectionVerdict:    "certain",
		DirectionConfidence: 0.75,
		Directions:          map[string]int{"down": 0, "up": 3},
		GroupCount:          2,
		LargestGroup:        8,
		Kind:                "player",
		CreatedAt:           created,
	}
	require.NoError(t, store.RecordProcessed(ctx, in))

	got, err := store.Processed(ctx, "hero-walk")
	require.NoError(t, err)
	require.NotNil(t, got)

	want := in
	want.Layout = grid.Layout{
		FrameWidth: 16, FrameHeight: 18, Columns: 3, Rows: 4, TotalFrames: 12,
		PerfectFit: true, Method: grid.MethodGapScan,
	}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("processed sheet mismatch (-want +got):\n%s", diff)
	}

	missing, err := store.Processed(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := store.ProcessedSheets(ctx, "run-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = store.ProcessedSheets(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestReviewQueue(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()

	candidates := []grid.Layout{grid.Fit(100, 64, 32, 32)}
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordReview(ctx, ReviewEntry{
		ID: "b", RunID: "run-1", ImagePath: "b.png", ImageWidth: 100, ImageHeight: 64,
		Verdict: "uncertain", Candidates: candidates, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, store.RecordReview(ctx, ReviewEntry{
		ID: "a", RunID: "run-1", ImagePath: "a.png", Verdict: "failed",
		Reason: "degenerate grid geometry 0x0", CreatedAt: base,
	}))

	queue, err := store.ReviewQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "a", queue[0].ID)
	assert.Equal(t, "degenerate grid geometry 0x0", queue[0].Reason)
	assert.Empty(t, queue[0].Candidates)
	assert.Equal(t, ReviewStatusPending, queue[1].Status)
	assert.Equal(t, ReviewInstructions, queue[1].Instructions)
	assert.Equal(t, candidates, queue[1].Candidates)

	// A later successful run removes the sheet from review.
	require.NoError(t, store.RecordProcessed(ctx, ProcessedSheet{
		ID: "b", RunID: "run-2", SourcePath: "b.png", Layout: grid.Fit(96, 64, 32, 32), ExtractedFrames: 6,
	}))
	queue, err = store.ReviewQueue(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "a", queue[0].ID)

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Processed: 1, NeedsReview: 1, ExtractedFrames: 6}, stats)
}

func TestRecordRequiresID(t *testing.T) {
	t.Parallel()

	store := openStore(t)
	ctx := context.Background()
	assert.Error(t, store.RecordProcessed(ctx, ProcessedSheet{}))
	assert.Error(t, store.RecordReview(ctx, ReviewEntry{}))
}
