// Package ensemble runs every registered direction method on a sheet and
// keeps the most confident mapping.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"

	"sprite-curator/internal/direction"
	"sprite-curator/internal/frames"
	"sprite-curator/internal/grid"
)

// MethodResult is one method's outcome. Failed methods carry Error and an
// empty mapping.
type MethodResult struct {
	direction.Mapping
	Analyses []direction.RowAnalysis `json:"analyses,omitempty"`
	Error    string                  `json:"error,omitempty"`

	Err error `json:"-"`
}

// Succeeded returns true if the method ran without error and assigned at
// least one direction.
func (m MethodResult) Succeeded() bool {
	return m.Err == nil && !m.Empty()
}

// Result collects every method's outcome and the selected best mapping.
type Result struct {
	PerMethod   map[string]MethodResult `json:"per_method"`
	BestMethod  string                  `json:"best_method"`
	BestMapping direction.Mapping       `json:"best_mapping"`
}

// Failed returns true if no method produced a usable mapping.
func (r *Result) Failed() bool {
	return r.BestMethod == ""
}

// Resolver runs direction methods in increasing richness order.
type Resolver struct {
	methods []direction.Method
	logger  *slog.Logger
}

// NewResolver returns a resolver over methods, ordered by richness.
func NewResolver(methods ...direction.Method) *Resolver {
	sorted := make([]direction.Method, 0, len(methods))
	for _, m := range methods {
		if m != nil {
			sorted = append(sorted, m)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Richness() < sorted[j].Richness()
	})
	return &Resolver{methods: sorted, logger: slog.New(slog.DiscardHandler)}
}

// WithLogger returns the resolver with a logger for per-method failures.
func (r *Resolver) WithLogger(logger *slog.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Methods returns the registered method names in run order.
func (r *Resolver) Methods() []string {
	names := make([]string, len(r.methods))
	for i, m := range r.methods {
		names[i] = m.Name()
	}
	return names
}

// Resolve slices every row of geo and resolves directions. Structural
// problems (degenerate geometry, frames outside the image) are returned as
// errors; method failures are recorded in the result.
func (r *Resolver) Resolve(ctx context.Context, img image.Image, geo grid.Geometry) (*Result, error) {
	return r.ResolveRows(ctx, img, geo, geo.Columns, geo.Rows)
}

// ResolveRows is Resolve with an explicit row layout.
func (r *Resolver) ResolveRows(ctx context.Context, img image.Image, geo grid.Geometry, framesPerRow, rowCount int) (*Result, error) {
	rows, err := frames.Rows(img, geo, framesPerRow, rowCount)
	if err != nil {
		return nil, fmt.Errorf("failed to extract rows: %w", err)
	}
	return r.Run(ctx, rows), nil
}

// Run evaluates every method on pre-sliced rows.
func (r *Resolver) Run(ctx context.Context, rows []frames.Row) *Result {
	res := &Result{
		PerMethod:   make(map[string]MethodResult, len(r.methods)),
		BestMapping: direction.NewMapping(),
	}

	for _, m := range r.methods {
		mr := runMethod(ctx, m, rows)
		if mr.Err != nil {
			r.logger.Warn("direction method failed", "method", m.Name(), "error", mr.Err)
		}
		res.PerMethod[m.Name()] = mr
	}

	best, ok := selectBest(r.methods, res.PerMethod)
	if ok {
		res.BestMethod = best
		res.BestMapping = res.PerMethod[best].Mapping
	}
	return res
}

// runMethod invokes one method, converting errors and panics into an
// ExecutionError on the result.
func runMethod(ctx context.Context, m direction.Method, rows []frames.Row) (mr MethodResult) {
	defer func() {
		if p := recover(); p != nil {
			err := &direction.ExecutionError{Method: m.Name(), Err: fmt.Errorf("panic: %v", p)}
			mr = MethodResult{Mapping: direction.NewMapping(), Err: err, Error: err.Error()}
		}
	}()

	mapping, analyses, err := m.Analyze(ctx, rows)
	if err != nil {
		var ee *direction.ExecutionError
		if !errors.As(err, &ee) {
			err = &direction.ExecutionError{Method: m.Name(), Err: err}
		}
		return MethodResult{Mapping: direction.NewMapping(), Err: err, Error: err.Error()}
	}
	if mapping.Directions == nil {
		mapping.Directions = make(map[direction.Direction]int)
	}
	if err := mapping.Validate(); err != nil {
		err = &direction.ExecutionError{Method: m.Name(), Err: err}
		return MethodResult{Mapping: direction.NewMapping(), Err: err, Error: err.Error()}
	}
	return MethodResult{Mapping: mapping, Analyses: analyses}
}

// selectBest returns the successful method with the greatest confidence.
// methods is in increasing richness order, so on equal confidence the richer
// method wins.
func selectBest(methods []direction.Method, results map[string]MethodResult) (string, bool) {
	best := ""
	bestConf := 0.0
	for _, m := range methods {
		mr, ok := results[m.Name()]
		if !ok || !mr.Succeeded() {
			continue
		}
		if best == "" || mr.Confidence >= bestConf {
			best, bestConf = m.Name(), mr.Confidence
		}
	}
	return best, best != ""
}
