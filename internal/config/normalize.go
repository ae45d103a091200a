package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Pipeline.OutputDir, err = expandPath(strings.TrimSpace(c.Pipeline.OutputDir)); err != nil {
		return fmt.Errorf("pipeline.output_dir: %w", err)
	}
	if c.Catalog.Path, err = expandPath(strings.TrimSpace(c.Catalog.Path)); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}

	if value, ok := os.LookupEnv(semanticURLEnv); ok && strings.TrimSpace(value) != "" {
		c.Semantic.BaseURL = value
		c.Semantic.Enabled = true
	}
	c.Semantic.BaseURL = strings.TrimRight(strings.TrimSpace(c.Semantic.BaseURL), "/")
	if c.Semantic.ProbeTimeoutSeconds <= 0 {
		c.Semantic.ProbeTimeoutSeconds = defaultProbeSeconds
	}

	if c.Pipeline.Workers <= 0 {
		c.Pipeline.Workers = defaultWorkers
	}

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	return nil
}
