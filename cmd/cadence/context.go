package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"cadence/internal/config"
	"cadence/internal/export"
	"cadence/internal/logging"
	"cadence/internal/services"
	"cadence/internal/services/librosa"
	"cadence/internal/services/madmom"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", err.Error(), nil)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "ensure directories", err.Error(), nil)
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) newLogger(cfg *config.Config) (*slog.Logger, error) {
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
}

// newBackend constructs the configured detection backend.
func (c *commandContext) newBackend(cfg *config.Config) (export.Backend, error) {
	switch cfg.Detection.Backend {
	case "madmom":
		return madmom.NewService(madmom.Config{
			FPS:         cfg.Detection.FPS,
			BeatsPerBar: cfg.Detection.BeatsPerBar,
		}, cfg.UVXBinary()), nil
	case "librosa":
		return librosa.NewService(cfg.UVXBinary()), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "config", "backend",
			fmt.Sprintf("unknown detection backend %q", cfg.Detection.Backend), nil)
	}
}
