// Package config loads sprite-curator settings from TOML.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// SampleConfig returns a commented configuration file with default values.
func SampleConfig() string {
	return sampleConfig
}

// Grid tunes the autocorrelation grid detector.
type Grid struct {
	MinPeakDistance int     `toml:"min_peak_distance"`
	PeakSigma       float64 `toml:"peak_sigma"`
	MinPeriod       int     `toml:"min_period"`
	MaxPeriod       int     `toml:"max_period"`
}

// Direction configures the local direction methods.
type Direction struct {
	FeatureEnabled bool `toml:"feature_enabled"`
	UpsampleMin    int  `toml:"upsample_min"`
}

// Semantic configures the classifier service.
type Semantic struct {
	Enabled             bool   `toml:"enabled"`
	BaseURL             string `toml:"base_url"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	ProbeTimeoutSeconds int    `toml:"probe_timeout_seconds"`
	ValidateLayouts     bool   `toml:"validate_layouts"`
}

// Grouping configures the similarity grouper.
type Grouping struct {
	Enabled   bool `toml:"enabled"`
	HashSize  int  `toml:"hash_size"`
	Threshold int  `toml:"threshold"`
}

// Pipeline configures batch runs.
type Pipeline struct {
	Workers        int    `toml:"workers"`
	OutputDir      string `toml:"output_dir"`
	CharactersOnly bool   `toml:"characters_only"`
}

// Catalog locates the SQLite catalog.
type Catalog struct {
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values.
type Config struct {
	Grid      Grid      `toml:"grid"`
	Direction Direction `toml:"direction"`
	Semantic  Semantic  `toml:"semantic"`
	Grouping  Grouping  `toml:"grouping"`
	Pipeline  Pipeline  `toml:"pipeline"`
	Catalog   Catalog   `toml:"catalog"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path == "" {
		path = defaultConfigPath
	}
	expanded, err := expandPath(path)
	if err != nil {
		return "", false, err
	}
	info, err := os.Stat(expanded)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return expanded, false, nil
		}
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	if info.IsDir() {
		return "", false, fmt.Errorf("config path %q is a directory", expanded)
	}
	return expanded, true, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}
