// Package pipeline runs sheets through layout detection, the confidence
// gate and frame extraction, recording every outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"sprite-curator/internal/catalog"
	"sprite-curator/internal/direction"
	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/frames"
	"sprite-curator/internal/gate"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
	"sprite-curator/internal/semantic"
	"sprite-curator/internal/similarity"
)

// Status is the final state of one sheet in a run.
type Status string

const (
	StatusProcessed   Status = "processed"
	StatusNeedsReview Status = "needs_review"
	StatusFailed      Status = "failed"
	StatusSkipped     Status = "skipped"
)

// Outcome describes what happened to one sheet.
type Outcome struct {
	Position int           `json:"-"`
	SheetID  string        `json:"id"`
	Title    string        `json:"title"`
	Status   Status        `json:"status"`
	Kind     CharacterKind `json:"kind,omitempty"`

	Verdict gate.Verdict `json:"verdict"`
	Layout  *grid.Layout `json:"layout,omitempty"`

	Frames    int    `json:"frames"`
	OutputDir string `json:"output_dir,omitempty"`

	Directions       *ensemble.Result `json:"directions,omitempty"`
	DirectionVerdict gate.Verdict     `json:"direction_verdict"`

	Groups     []similarity.Group         `json:"groups,omitempty"`
	Validation *semantic.LayoutValidation `json:"validation,omitempty"`

	Error string `json:"error,omitempty"`
}

// Recorder persists outcomes. *catalog.Store satisfies it.
type Recorder interface {
	RecordProcessed(ctx context.Context, p catalog.ProcessedSheet) error
	RecordReview(ctx context.Context, e catalog.ReviewEntry) error
}

// Config controls a Runner.
type Config struct {
	Workers         int
	GridParams      grid.Params
	Grouping        similarity.Params
	GroupingEnabled bool
	// CharactersOnly skips sheets whose text does not describe an animated
	// character.
	CharactersOnly bool
}

// DefaultConfig returns a four-worker configuration with grouping enabled.
func DefaultConfig() Config {
	return Config{
		Workers:         4,
		GridParams:      grid.DefaultParams(),
		Grouping:        similarity.DefaultParams(),
		GroupingEnabled: true,
	}
}

// Runner processes sheets concurrently.
type Runner struct {
	cfg       Config
	resolver  *ensemble.Resolver
	sink      FrameSink
	recorder  Recorder
	validator direction.Classifier
	logger    *slog.Logger
}

// Option customizes the runner.
type Option func(*Runner)

// WithLogger sets the run logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithResolver enables direction resolution for extracted sheets.
func WithResolver(resolver *ensemble.Resolver) Option {
	return func(r *Runner) {
		r.resolver = resolver
	}
}

// WithLayoutValidator asks the classifier whether frames cut with the best
// layout look like whole sprites. The answer is attached to the outcome
// and review entry; it does not change the verdict.
func WithLayoutValidator(c direction.Classifier) Option {
	return func(r *Runner) {
		r.validator = c
	}
}

// NewRunner builds a runner. A nil sink discards frames.
func NewRunner(cfg Config, sink FrameSink, recorder Recorder, opts ...Option) (*Runner, error) {
	if recorder == nil {
		return nil, errors.New("pipeline: recorder is required")
	}
	if sink == nil {
		sink = DiscardSink{}
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	r := &Runner{
		cfg:      cfg,
		sink:     sink,
		recorder: recorder,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run processes every sheet. Per-sheet failures are counted and never abort
// the run; the returned error is only set when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, sheets []Sheet) (*RunStats, error) {
	runID := uuid.NewString()
	stats := newRunStats(runID, len(sheets))
	logger := r.logger.With("run_id", runID)
	logger.Info("run started", "sheets", len(sheets), "workers", r.cfg.Workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, sheet := range sheets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			o := r.process(gctx, runID, sheet, logger.With("sheet", sheet.ID))
			o.Position = i
			stats.record(o)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		// Sheets already running swallow cancellation as per-sheet failures.
		err = ctx.Err()
	}

	sum := stats.Summary()
	logger.Info("run finished",
		"processed", sum.Processed,
		"needs_review", sum.NeedsReview,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
		"extracted_frames", sum.ExtractedFrames,
		"success_rate", sum.SuccessRate,
	)
	if err != nil {
		return stats, fmt.Errorf("run %s interrupted: %w", runID, err)
	}
	return stats, nil
}

func (r *Runner) process(ctx context.Context, runID string, sheet Sheet, logger *slog.Logger) Outcome {
	o := Outcome{SheetID: sheet.ID, Title: sheet.Title, Verdict: gate.Failed, DirectionVerdict: gate.Failed}
	fail := func(err error) Outcome {
		logger.Warn("sheet failed", "error", err)
		o.Status = StatusFailed
		o.Error = err.Error()
		return o
	}

	if IsAnimatedCharacter(sheet) {
		o.Kind = KindOf(sheet)
	} else if r.cfg.CharactersOnly {
		logger.Debug("sheet skipped: not an animated character")
		o.Status = StatusSkipped
		return o
	}

	src, err := raster.Load(sheet.Path)
	if err != nil {
		return fail(err)
	}
	img := src.Image

	analysis := grid.Analyze(img, grid.Hint{Title: sheet.Title, Description: sheet.Description}, r.cfg.GridParams)
	o.Layout = analysis.Best
	var layoutErr error
	if analysis.Best == nil {
		layoutErr = errors.New("no_layout_detected")
	}
	o.Verdict = gate.ClassifyGrid(analysis.Best, layoutErr)

	if r.validator != nil && analysis.Best != nil {
		v, err := semantic.ValidateLayout(ctx, r.validator, img, *analysis.Best)
		if err != nil {
			logger.Warn("layout validation failed", "error", err)
		} else {
			o.Validation = &v
		}
	}

	if o.Verdict.Route() == gate.RouteReview {
		if err := r.recordReview(ctx, runID, sheet, analysis, o); err != nil {
			return fail(err)
		}
		logger.Info("sheet queued for review", "verdict", o.Verdict, "candidates", len(analysis.Candidates))
		o.Status = StatusNeedsReview
		return o
	}

	geo := analysis.Best.Geometry()
	fs, err := frames.Extract(img, geo)
	if err != nil {
		return fail(fmt.Errorf("failed to extract frames: %w", err))
	}
	dir, err := r.sink.WriteFrames(ctx, sheet.ID, fs)
	if err != nil {
		return fail(fmt.Errorf("failed to write frames: %w", err))
	}
	o.Frames = len(fs)
	o.OutputDir = dir

	if r.resolver != nil {
		res, err := r.resolver.Resolve(ctx, img, geo)
		if err != nil {
			logger.Warn("direction resolution failed", "error", err)
		} else {
			o.Directions = res
			o.DirectionVerdict = gate.ClassifyDirection(res)
		}
	}

	if r.cfg.GroupingEnabled {
		groups, err := similarity.Cluster(fs, r.cfg.Grouping)
		if err != nil {
			logger.Warn("frame grouping failed", "error", err)
		} else {
			o.Groups = groups
		}
	}

	if err := r.recorder.RecordProcessed(ctx, processedRecord(runID, sheet, o)); err != nil {
		return fail(fmt.Errorf("failed to record sheet: %w", err))
	}
	logger.Info("sheet processed",
		"frame_width", geo.FrameWidth,
		"frame_height", geo.FrameHeight,
		"frames", o.Frames,
		"method", analysis.Best.Method,
		"direction_verdict", o.DirectionVerdict,
	)
	o.Status = StatusProcessed
	return o
}

func (r *Runner) recordReview(ctx context.Context, runID string, sheet Sheet, a grid.Analysis, o Outcome) error {
	reason := "layout " + o.Verdict.String()
	if a.Best == nil {
		reason = "no_layout_detected"
	}
	if o.Validation != nil && !o.Validation.Validated {
		reason += "; frames not validated"
	}
	err := r.recorder.RecordReview(ctx, catalog.ReviewEntry{
		ID:          sheet.ID,
		RunID:       runID,
		Title:       sheet.Title,
		ImagePath:   sheet.Path,
		ImageWidth:  a.ImageWidth,
		ImageHeight: a.ImageHeight,
		Verdict:     o.Verdict.String(),
		Reason:      reason,
		Candidates:  a.Candidates,
	})
	if err != nil {
		return fmt.Errorf("failed to record review: %w", err)
	}
	return nil
}

func processedRecord(runID string, sheet Sheet, o Outcome) catalog.ProcessedSheet {
	p := catalog.ProcessedSheet{
		ID:               sheet.ID,
		RunID:            runID,
		Title:            sheet.Title,
		SourcePath:       sheet.Path,
		Layout:           *o.Layout,
		ExtractedFrames:  o.Frames,
		OutputDir:        o.OutputDir,
		DirectionVerdict: o.DirectionVerdict.String(),
		GroupCount:       len(o.Groups),
		Kind:             string(o.Kind),
	}
	if res := o.Directions; res != nil && !res.Failed() {
		p.DirectionMethod = res.BestMethod
		p.DirectionConfidence = res.BestMapping.Confidence
		p.Directions = make(map[string]int, len(res.BestMapping.Directions))
		for _, d := range res.BestMapping.Assigned() {
			p.Directions[d.String()] = res.BestMapping.Directions[d]
		}
	}
	if g := similarity.Largest(o.Groups); g != nil {
		p.LargestGroup = g.Size
	}
	return p
}
