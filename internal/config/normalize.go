package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDetection()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDetection() {
	c.Detection.Backend = strings.ToLower(strings.TrimSpace(c.Detection.Backend))
	if c.Detection.Backend == "" {
		c.Detection.Backend = defaultBackend
	}
	if c.Detection.FPS <= 0 {
		c.Detection.FPS = defaultFPS
	}
	if c.Detection.BeatsPerBar <= 0 {
		c.Detection.BeatsPerBar = defaultBeatsPerBar
	}
	if c.Detection.TimeDecimals <= 0 {
		c.Detection.TimeDecimals = defaultTimeDecimals
	}
	c.Detection.UVXCommand = strings.TrimSpace(c.Detection.UVXCommand)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
