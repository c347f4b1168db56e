package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeBackend(); err != nil {
		return err
	}
	c.normalizeFollow()
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return c.normalizeLock()
}

func (c *Config) normalizeBackend() error {
	c.Backend.Kind = strings.ToLower(strings.TrimSpace(c.Backend.Kind))
	if c.Backend.Kind == "" {
		c.Backend.Kind = defaultBackendKind
	}
	c.Backend.KmsgPath = strings.TrimSpace(c.Backend.KmsgPath)
	if c.Backend.KmsgPath == "" {
		if value, ok := os.LookupEnv(kmsgPathEnv); ok && strings.TrimSpace(value) != "" {
			c.Backend.KmsgPath = strings.TrimSpace(value)
		} else {
			c.Backend.KmsgPath = defaultKmsgPath()
		}
	}
	var err error
	if c.Backend.KmsgPath, err = expandPath(c.Backend.KmsgPath); err != nil {
		return fmt.Errorf("backend.kmsg_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeFollow() {
	c.Follow.Mode = strings.ToLower(strings.TrimSpace(c.Follow.Mode))
	if c.Follow.Mode == "" {
		c.Follow.Mode = defaultFollowMode
	}
}

func (c *Config) normalizeOutput() error {
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	c.Output.Color = strings.ToLower(strings.TrimSpace(c.Output.Color))
	if c.Output.Color == "" {
		c.Output.Color = defaultOutputColor
	}
	c.Output.MinLevel = strings.ToLower(strings.TrimSpace(c.Output.MinLevel))
	facilities := c.Output.Facilities[:0]
	for _, name := range c.Output.Facilities {
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			facilities = append(facilities, name)
		}
	}
	c.Output.Facilities = facilities

	c.Output.File = strings.TrimSpace(c.Output.File)
	if c.Output.File != "" && c.Output.File != "-" {
		var err error
		if c.Output.File, err = expandPath(c.Output.File); err != nil {
			return fmt.Errorf("output.file: %w", err)
		}
	}

	c.Output.Compress = strings.ToLower(strings.TrimSpace(c.Output.Compress))
	return nil
}

// Codec returns the compression codec for the output file. An empty
// output.compress infers it from the file extension.
func (o Output) Codec() string {
	if o.Compress != "" {
		return o.Compress
	}
	switch strings.ToLower(filepath.Ext(o.File)) {
	case ".zst", ".zstd":
		return "zstd"
	case ".gz":
		return "gzip"
	default:
		return defaultCompress
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console", "text", "pretty":
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	var err error
	if c.Logging.File, err = expandPath(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeLock() error {
	if strings.TrimSpace(c.Lock.Path) == "" {
		c.Lock.Path = defaultLockPath()
	}
	var err error
	if c.Lock.Path, err = expandPath(strings.TrimSpace(c.Lock.Path)); err != nil {
		return fmt.Errorf("lock.path: %w", err)
	}
	return nil
}
