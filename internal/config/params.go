package config

import (
	"time"

	"sprite-curator/internal/grid"
	"sprite-curator/internal/similarity"
	"sprite-curator/internal/vision"
)

// GridParams returns detector parameters from the [grid] section.
func (c *Config) GridParams() grid.Params {
	return grid.DefaultParams().
		WithPeriodRange(c.Grid.MinPeriod, c.Grid.MaxPeriod).
		WithPeakDistance(c.Grid.MinPeakDistance).
		WithPeakSigma(c.Grid.PeakSigma)
}

// VisionParams returns feature extractor parameters from the [direction] section.
func (c *Config) VisionParams() vision.Params {
	return vision.DefaultParams().WithUpsampleMin(c.Direction.UpsampleMin)
}

// GroupingParams returns similarity parameters from the [grouping] section.
func (c *Config) GroupingParams() similarity.Params {
	p := similarity.DefaultParams().WithThreshold(c.Grouping.Threshold)
	p.HashSize = c.Grouping.HashSize
	return p
}

// SemanticTimeout is the per-call classifier timeout.
func (c *Config) SemanticTimeout() time.Duration {
	return time.Duration(c.Semantic.TimeoutSeconds) * time.Second
}

// ProbeTimeout bounds the start-up health check.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.Semantic.ProbeTimeoutSeconds) * time.Second
}
