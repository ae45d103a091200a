package config

import (
	"sprite-curator/internal/grid"
	"sprite-curator/internal/similarity"
	"sprite-curator/internal/vision"
)

const (
	defaultConfigPath   = "~/.config/sprite-curator/config.toml"
	defaultOutputDir    = "~/.local/share/sprite-curator/frames"
	defaultCatalogPath  = "~/.local/share/sprite-curator/catalog.db"
	defaultSemanticURL  = "http://127.0.0.1:8765"
	defaultWorkers      = 4
	semanticURLEnv      = "SPRITE_CURATOR_SEMANTIC_URL"
	defaultLogFormat    = "text"
	defaultLogLevel     = "info"
	defaultProbeSeconds = 5
)

// Default returns a Config populated with default values. Paths are not
// expanded until Load.
func Default() Config {
	gp := grid.DefaultParams()
	vp := vision.DefaultParams()
	sp := similarity.DefaultParams()
	return Config{
		Grid: Grid{
			MinPeakDistance: gp.MinPeakDistance,
			PeakSigma:       gp.PeakSigma,
			MinPeriod:       gp.MinPeriod,
			MaxPeriod:       gp.MaxPeriod,
		},
		Direction: Direction{
			FeatureEnabled: true,
			UpsampleMin:    vp.UpsampleMin,
		},
		Semantic: Semantic{
			BaseURL:             defaultSemanticURL,
			TimeoutSeconds:      10,
			ProbeTimeoutSeconds: defaultProbeSeconds,
		},
		Grouping: Grouping{
			Enabled:   true,
			HashSize:  sp.HashSize,
			Threshold: sp.Threshold,
		},
		Pipeline: Pipeline{
			Workers:   defaultWorkers,
			OutputDir: defaultOutputDir,
		},
		Catalog: Catalog{Path: defaultCatalogPath},
		Logging: Logging{Format: defaultLogFormat, Level: defaultLogLevel},
	}
}
