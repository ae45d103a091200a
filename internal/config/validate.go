package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateGrid(); err != nil {
		return err
	}
	if err := c.validateSemantic(); err != nil {
		return err
	}
	if err := c.validateGrouping(); err != nil {
		return err
	}
	if c.Direction.UpsampleMin < 0 {
		return errors.New("direction.upsample_min must be >= 0")
	}
	return c.validateLogging()
}

func (c *Config) validateGrid() error {
	g := c.Grid
	if g.MinPeriod < 1 {
		return errors.New("grid.min_period must be >= 1")
	}
	if g.MaxPeriod < g.MinPeriod {
		return fmt.Errorf("grid.max_period (%d) must be >= grid.min_period (%d)", g.MaxPeriod, g.MinPeriod)
	}
	if g.MinPeakDistance < 1 {
		return errors.New("grid.min_peak_distance must be >= 1")
	}
	if g.PeakSigma < 0 {
		return errors.New("grid.peak_sigma must be >= 0")
	}
	return nil
}

func (c *Config) validateSemantic() error {
	if !c.Semantic.Enabled {
		return nil
	}
	if c.Semantic.BaseURL == "" {
		return errors.New("semantic.base_url must be set when semantic.enabled is true")
	}
	if c.Semantic.TimeoutSeconds <= 0 {
		return errors.New("semantic.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateGrouping() error {
	g := c.Grouping
	if g.HashSize < 8 || g.HashSize > 32 || g.HashSize%8 != 0 {
		return fmt.Errorf("grouping.hash_size must be 8, 16, 24 or 32, got %d", g.HashSize)
	}
	if limit := g.HashSize * g.HashSize; g.Threshold < 0 || g.Threshold > limit {
		return fmt.Errorf("grouping.threshold must be between 0 and %d, got %d", limit, g.Threshold)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}
