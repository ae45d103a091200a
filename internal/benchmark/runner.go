package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
)

// MethodScore is one method's result on one case.
type MethodScore struct {
	Score
	Confidence float64        `json:"confidence"`
	Directions map[string]int `json:"directions,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// CaseResult collects every method's score for one case.
type CaseResult struct {
	Name       string                 `json:"name"`
	BestMethod string                 `json:"best_method,omitempty"`
	Methods    map[string]MethodScore `json:"methods"`
	Error      string                 `json:"error,omitempty"`
}

// MethodSummary averages a method over the cases it ran on.
type MethodSummary struct {
	Cases          int     `json:"cases"`
	Failures       int     `json:"failures"`
	MeanAccuracy   float64 `json:"mean_accuracy"`
	MeanConfidence float64 `json:"mean_confidence"`
	BestCount      int     `json:"best_count"`
}

// Report is the benchmark output.
type Report struct {
	Cases   []CaseResult             `json:"cases"`
	Summary map[string]MethodSummary `json:"summary"`
}

// Options controls a benchmark run.
type Options struct {
	Parallel int
	// Method restricts scoring to one method name; empty scores all.
	Method string
	Logger *slog.Logger
}

// Run scores every case. Case failures (unreadable file, layout outside the
// image) are reported per case.
func Run(ctx context.Context, resolver *ensemble.Resolver, cases []Case, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	results := make([]CaseResult, len(cases))
	runCase := func(ctx context.Context, i int) {
		results[i] = scoreCase(ctx, resolver, cases[i], opts.Method)
		if results[i].Error != "" {
			logger.Warn("benchmark case failed", "case", cases[i].Name, "error", results[i].Error)
		}
	}

	if opts.Parallel > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Parallel)
		for i := range cases {
			g.Go(func() error {
				runCase(gctx, i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range cases {
			runCase(ctx, i)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Report{Cases: results, Summary: summarize(results)}, nil
}

func scoreCase(ctx context.Context, resolver *ensemble.Resolver, c Case, only string) CaseResult {
	cr := CaseResult{Name: c.Name, Methods: make(map[string]MethodScore)}

	truth, err := c.Truth()
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	src, err := raster.Load(c.File)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	b := src.Image.Bounds()
	geo := grid.NewGeometry(b.Dx(), b.Dy(), c.FrameWidth, c.FrameHeight)
	res, err := resolver.ResolveRows(ctx, src.Image, geo, c.FramesPerRow, c.Rows)
	if err != nil {
		cr.Error = fmt.Sprintf("failed to resolve directions: %v", err)
		return cr
	}

	cr.BestMethod = res.BestMethod
	for name, mr := range res.PerMethod {
		if only != "" && name != only {
			continue
		}
		if mr.Err != nil {
			cr.Methods[name] = MethodScore{Error: mr.Err.Error()}
			continue
		}
		ms := MethodScore{
			Score:      Accuracy(mr.Mapping, truth),
			Confidence: mr.Confidence,
			Directions: make(map[string]int, len(mr.Directions)),
		}
		for d, row := range mr.Directions {
			ms.Directions[d.String()] = row
		}
		cr.Methods[name] = ms
	}
	return cr
}

func summarize(results []CaseResult) map[string]MethodSummary {
	accuracies := make(map[string][]float64)
	confidences := make(map[string][]float64)
	out := make(map[string]MethodSummary)

	for _, cr := range results {
		names := make([]string, 0, len(cr.Methods))
		for name := range cr.Methods {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ms := cr.Methods[name]
			sum := out[name]
			if ms.Error != "" {
				sum.Failures++
			} else {
				sum.Cases++
				accuracies[name] = append(accuracies[name], ms.Accuracy)
				confidences[name] = append(confidences[name], ms.Confidence)
			}
			if name == cr.BestMethod {
				sum.BestCount++
			}
			out[name] = sum
		}
	}

	for name, sum := range out {
		if len(accuracies[name]) > 0 {
			sum.MeanAccuracy = stat.Mean(accuracies[name], nil)
			sum.MeanConfidence = stat.Mean(confidences[name], nil)
		}
		out[name] = sum
	}
	return out
}
