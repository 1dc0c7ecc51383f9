package config

import (
	"fmt"
)

// Backends lists the detection backends cadence knows how to run.
var Backends = []string{"madmom", "librosa"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateDetection() error {
	known := false
	for _, backend := range Backends {
		if c.Detection.Backend == backend {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("detection.backend: unknown backend %q (supported: %v)", c.Detection.Backend, Backends)
	}
	if c.Detection.FPS > 1000 {
		return fmt.Errorf("detection.fps: %d is out of range (1-1000)", c.Detection.FPS)
	}
	if c.Detection.BeatsPerBar > 16 {
		return fmt.Errorf("detection.beats_per_bar: %d is out of range (1-16)", c.Detection.BeatsPerBar)
	}
	if c.Detection.TimeDecimals > 9 {
		return fmt.Errorf("detection.time_decimals: %d is out of range (1-9)", c.Detection.TimeDecimals)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
