package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"sprite-curator/internal/config"
	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/logging"
	"sprite-curator/internal/semantic"
)

type commandContext struct {
	configFlag *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
	logger     *slog.Logger
}

func newCommandContext(configFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, cmd.ErrOrStderr())
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) log() *slog.Logger {
	if c.logger == nil {
		return logging.Discard()
	}
	return c.logger
}

// classifier returns the semantic client, or nil when disabled.
func (c *commandContext) classifier() (*semantic.Client, error) {
	if c.config == nil || !c.config.Semantic.Enabled {
		return nil, nil
	}
	return semantic.NewClient(semantic.Config{
		BaseURL:        c.config.Semantic.BaseURL,
		TimeoutSeconds: c.config.Semantic.TimeoutSeconds,
	})
}

// resolver registers every direction method available right now.
func (c *commandContext) resolver(ctx context.Context) (*ensemble.Resolver, error) {
	opts := ensemble.DefaultOptions()
	if cfg := c.config; cfg != nil {
		opts.Feature = cfg.Direction.FeatureEnabled
		opts.VisionParams = cfg.VisionParams()
		opts.SemanticTimeout = cfg.SemanticTimeout()
		opts.ProbeTimeout = cfg.ProbeTimeout()
	}
	client, err := c.classifier()
	if err != nil {
		return nil, err
	}
	if client != nil {
		opts.Classifier = client
	}
	return ensemble.NewDefaultResolver(ctx, opts, c.log()), nil
}
