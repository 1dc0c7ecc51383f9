package config

const (
	defaultLogDir       = "~/.local/share/cadence/logs"
	defaultCacheDir     = "~/.cache/cadence"
	defaultBackend      = "madmom"
	defaultFPS          = 100
	defaultBeatsPerBar  = 4
	defaultTimeDecimals = 2
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			CacheDir: defaultCacheDir,
		},
		Detection: Detection{
			Backend:      defaultBackend,
			FPS:          defaultFPS,
			BeatsPerBar:  defaultBeatsPerBar,
			TimeDecimals: defaultTimeDecimals,
		},
		Cache: Cache{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
