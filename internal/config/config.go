package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"kernlog/internal/backend"
	"kernlog/internal/engine"
	"kernlog/internal/logging"
)

//go:embed sample_config.toml
var sampleConfig string

// Backend selects and opens the kernel log access mechanism.
type Backend struct {
	Kind     string `toml:"kind"`
	KmsgPath string `toml:"kmsg_path"`
	// Clear reads and clears the ring buffer (klogctl only).
	Clear    bool `toml:"clear"`
	Replay   bool `toml:"replay"`
	Fallback bool `toml:"fallback"`
}

// Follow configures the poll engine.
type Follow struct {
	Enabled          bool   `toml:"enabled"`
	Mode             string `toml:"mode"`
	PollIntervalMS   int    `toml:"poll_interval_ms"`
	BaseBackoffMS    int    `toml:"base_backoff_ms"`
	MaxBackoffMS     int    `toml:"max_backoff_ms"`
	MaxRetries       int    `toml:"max_retries"`
	IgnoreWouldBlock bool   `toml:"ignore_would_block"`
}

// Output controls how entries are rendered by the CLI.
type Output struct {
	Format     string   `toml:"format"`
	Color      string   `toml:"color"`
	File       string   `toml:"file"`
	Compress   string   `toml:"compress"`
	WallClock  bool     `toml:"wall_clock"`
	MinLevel   string   `toml:"min_level"`
	Facilities []string `toml:"facilities"`
}

// Logging contains configuration for diagnostic log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Lock configures the advisory lock taken around destructive reads.
type Lock struct {
	Path string `toml:"path"`
}

// Config encapsulates all configuration values for kernlog.
//
// Configuration sections:
//   - Backend: access mechanism, replay and clear behaviour
//   - Follow: polling, backoff and suspension strategy
//   - Output: rendering format, filters, export file and compression
//   - Logging: diagnostic log format, level and optional file
//   - Lock: lock file guarding --clear
type Config struct {
	Backend Backend `toml:"backend"`
	Follow  Follow  `toml:"follow"`
	Output  Output  `toml:"output"`
	Logging Logging `toml:"logging"`
	Lock    Lock    `toml:"lock"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// BackendOptions converts the [backend] section. The source is opened
// non-blocking whenever the engine waits cooperatively or runs one-shot.
func (c *Config) BackendOptions(logger *slog.Logger) (backend.Options, error) {
	kind, err := backend.ParseKind(c.Backend.Kind)
	if err != nil {
		return backend.Options{}, err
	}
	mode, err := engine.ParseMode(c.Follow.Mode)
	if err != nil {
		return backend.Options{}, err
	}
	return backend.Options{
		Kind:        kind,
		Clear:       c.Backend.Clear,
		Replay:      c.Backend.Replay,
		NonBlocking: !c.Follow.Enabled || mode == engine.ModeCooperative,
		Fallback:    c.Backend.Fallback,
		KmsgPath:    c.Backend.KmsgPath,
		Logger:      logger,
	}, nil
}

// EngineOptions converts the [follow] section.
func (c *Config) EngineOptions() (engine.Options, error) {
	mode, err := engine.ParseMode(c.Follow.Mode)
	if err != nil {
		return engine.Options{}, err
	}
	return engine.Options{
		PollInterval:     millis(c.Follow.PollIntervalMS),
		BaseBackoff:      millis(c.Follow.BaseBackoffMS),
		MaxBackoff:       millis(c.Follow.MaxBackoffMS),
		MaxRetries:       c.Follow.MaxRetries,
		IgnoreWouldBlock: c.Follow.IgnoreWouldBlock,
		Follow:           c.Follow.Enabled,
		Mode:             mode,
	}, nil
}

// LoggingOptions converts the [logging] section.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		File:   c.Logging.File,
	}
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

func defaultLockPath() string {
	if base, ok := os.LookupEnv("XDG_RUNTIME_DIR"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "kernlog", "clear.lock")
	}
	return filepath.Join(os.TempDir(), "kernlog-clear.lock")
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
