package ensemble

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"sprite-curator/internal/direction"
	"sprite-curator/internal/vision"
)

// ProbingClassifier is a classifier that can report whether its backing
// service is reachable.
type ProbingClassifier interface {
	direction.Classifier
	Ping(ctx context.Context) error
}

// Options selects which optional methods to try at start-up.
type Options struct {
	// Feature enables the OpenCV method when the backend is compiled in.
	Feature      bool
	VisionParams vision.Params

	// Classifier enables the semantic method when it answers Ping.
	Classifier      ProbingClassifier
	SemanticTimeout time.Duration
	ProbeTimeout    time.Duration
}

// DefaultOptions enables every optional method that is available.
func DefaultOptions() Options {
	return Options{
		Feature:         true,
		VisionParams:    vision.DefaultParams(),
		SemanticTimeout: direction.DefaultSemanticTimeout,
		ProbeTimeout:    5 * time.Second,
	}
}

// DefaultMethods registers the traditional method plus every optional method
// whose capability is present right now. Missing capabilities are logged
// and skipped.
func DefaultMethods(ctx context.Context, opts Options, logger *slog.Logger) []direction.Method {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	methods := []direction.Method{direction.NewTraditional()}

	if opts.Feature {
		if m, err := featureMethod(opts.VisionParams); err != nil {
			logger.Info("feature direction method disabled", "reason", err)
		} else {
			methods = append(methods, m)
		}
	}

	if opts.Classifier != nil {
		if m, err := semanticMethod(ctx, opts); err != nil {
			logger.Info("semantic direction method disabled", "reason", err)
		} else {
			methods = append(methods, m)
		}
	}

	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.Name()
	}
	logger.Debug("direction methods registered", "methods", names)
	return methods
}

// NewDefaultResolver builds a resolver over DefaultMethods.
func NewDefaultResolver(ctx context.Context, opts Options, logger *slog.Logger) *Resolver {
	return NewResolver(DefaultMethods(ctx, opts, logger)...).WithLogger(logger)
}

func featureMethod(params vision.Params) (direction.Method, error) {
	if !vision.Available() {
		return nil, direction.ErrUnavailable
	}
	ext, err := vision.NewExtractor(params)
	if err != nil {
		return nil, err
	}
	m, err := direction.NewFeature(ext)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func semanticMethod(ctx context.Context, opts Options) (direction.Method, error) {
	timeout := opts.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := opts.Classifier.Ping(probeCtx); err != nil {
		return nil, errors.Join(direction.ErrUnavailable, err)
	}
	m, err := direction.NewSemantic(opts.Classifier, opts.SemanticTimeout)
	if err != nil {
		return nil, err
	}
	return m, nil
}
