// Package config loads, normalizes, and validates the TOML configuration for
// cadence. Configuration is resolved from an explicit --config path, then
// ~/.config/cadence/config.toml, then a project-local cadence.toml; a missing
// file falls back to defaults.
package config
