package config

import "kernlog/internal/backend"

const (
	defaultConfigPath     = "~/.config/kernlog/config.toml"
	projectConfigName     = "kernlog.toml"
	defaultBackendKind    = "auto"
	defaultFollowMode     = "cooperative"
	defaultPollIntervalMS = 1000
	defaultBaseBackoffMS  = 100
	defaultMaxBackoffMS   = 5000
	defaultOutputFormat   = "text"
	defaultOutputColor    = "auto"
	defaultCompress       = "none"
	defaultLogFormat      = "console"
	defaultLogLevel       = "warn"

	// kmsgPathEnv overrides backend.kmsg_path when the file leaves it unset.
	kmsgPathEnv = "KERNLOG_KMSG_PATH"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Backend: Backend{
			Kind:     defaultBackendKind,
			Replay:   true,
			Fallback: true,
		},
		Follow: Follow{
			Mode:           defaultFollowMode,
			PollIntervalMS: defaultPollIntervalMS,
			BaseBackoffMS:  defaultBaseBackoffMS,
			MaxBackoffMS:   defaultMaxBackoffMS,
		},
		Output: Output{
			Format: defaultOutputFormat,
			Color:  defaultOutputColor,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Lock: Lock{
			Path: defaultLockPath(),
		},
	}
}

func defaultKmsgPath() string {
	return backend.DefaultKmsgPath
}
