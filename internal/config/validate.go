package config

import (
	"fmt"
	"slices"

	"kernlog/internal/backend"
	"kernlog/internal/engine"
	"kernlog/internal/kmsg"
)

var (
	outputFormats = []string{"text", "json", "raw", "table"}
	colorModes    = []string{"auto", "always", "never"}
	compressions  = []string{"", "none", "gzip", "zstd"}
	logFormats    = []string{"console", "json"}
	logLevels     = []string{"debug", "info", "warn", "error"}
)

// Validate ensures the configuration is usable. Every failure wraps
// kmsg.ErrConfig.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validateFollow(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateLogging()
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", kmsg.ErrConfig, fmt.Sprintf(format, args...))
}

func (c *Config) validateBackend() error {
	kind, err := backend.ParseKind(c.Backend.Kind)
	if err != nil {
		return invalid("backend.kind %q must be auto, klogctl or devkmsg", c.Backend.Kind)
	}
	if c.Backend.KmsgPath == "" {
		return invalid("backend.kmsg_path must be set")
	}
	if c.Backend.Clear {
		if !c.Backend.Replay {
			return invalid("backend.clear requires backend.replay; the buffer would be discarded unread")
		}
		if kind == backend.KindDevKmsg {
			return invalid("backend.clear is only supported by the klogctl backend")
		}
	}
	return nil
}

func (c *Config) validateFollow() error {
	if _, err := engine.ParseMode(c.Follow.Mode); err != nil {
		return invalid("follow.mode %q must be blocking or cooperative", c.Follow.Mode)
	}
	if c.Follow.PollIntervalMS < 0 {
		return invalid("follow.poll_interval_ms must be >= 0")
	}
	if c.Follow.BaseBackoffMS < 0 || c.Follow.MaxBackoffMS < 0 {
		return invalid("follow backoff durations must be >= 0")
	}
	if c.Follow.MaxBackoffMS > 0 && c.Follow.MaxBackoffMS < c.Follow.BaseBackoffMS {
		return invalid("follow.max_backoff_ms (%d) must be >= follow.base_backoff_ms (%d)", c.Follow.MaxBackoffMS, c.Follow.BaseBackoffMS)
	}
	if c.Follow.MaxRetries < 0 {
		return invalid("follow.max_retries must be >= 0 (0 retries forever)")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !slices.Contains(outputFormats, c.Output.Format) {
		return invalid("output.format %q must be one of %v", c.Output.Format, outputFormats)
	}
	if c.Output.Format == "table" && c.Follow.Enabled {
		return invalid("output.format table needs the whole buffer and cannot follow")
	}
	if !slices.Contains(colorModes, c.Output.Color) {
		return invalid("output.color %q must be one of %v", c.Output.Color, colorModes)
	}
	if !slices.Contains(compressions, c.Output.Compress) {
		return invalid("output.compress %q must be none, gzip or zstd", c.Output.Compress)
	}
	if codec := c.Output.Codec(); codec != defaultCompress && (c.Output.File == "" || c.Output.File == "-") {
		return invalid("output.compress %s requires output.file", codec)
	}
	if c.Output.MinLevel != "" {
		if _, err := kmsg.ParseLevel(c.Output.MinLevel); err != nil {
			return invalid("output.min_level %q is not a kernel log level", c.Output.MinLevel)
		}
	}
	for _, name := range c.Output.Facilities {
		if _, err := kmsg.ParseFacility(name); err != nil {
			return invalid("output.facilities: unknown facility %q", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(logFormats, c.Logging.Format) {
		return invalid("logging.format %q must be console or json", c.Logging.Format)
	}
	if !slices.Contains(logLevels, c.Logging.Level) {
		return invalid("logging.level %q must be one of %v", c.Logging.Level, logLevels)
	}
	return nil
}
