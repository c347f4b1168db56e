package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"kernlog/internal/backend"
	"kernlog/internal/config"
	"kernlog/internal/engine"
	"kernlog/internal/kmsg"
)

func TestLoadDefaultConfig(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("KERNLOG_KMSG_PATH", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if want := filepath.Join(tempHome, ".config", "kernlog", "config.toml"); resolved != want {
		t.Fatalf("resolved = %q, want %q", resolved, want)
	}
	if cfg.Backend.Kind != "auto" || cfg.Backend.KmsgPath != backend.DefaultKmsgPath {
		t.Fatalf("unexpected backend defaults: %+v", cfg.Backend)
	}
	if !cfg.Backend.Replay || !cfg.Backend.Fallback || cfg.Backend.Clear {
		t.Fatalf("unexpected backend flags: %+v", cfg.Backend)
	}
	if cfg.Follow.Enabled {
		t.Fatal("expected follow disabled by default")
	}
	if cfg.Output.Format != "text" || cfg.Output.Color != "auto" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Logging.Level != "warn" || cfg.Logging.Format != "console" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
	if !filepath.IsAbs(cfg.Lock.Path) {
		t.Fatalf("lock path should be absolute, got %q", cfg.Lock.Path)
	}
}

func TestLoadCustomPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "kernlog.toml")

	type payload struct {
		Backend struct {
			Kind  string `toml:"kind"`
			Clear bool   `toml:"clear"`
		} `toml:"backend"`
		Follow struct {
			Enabled    bool   `toml:"enabled"`
			Mode       string `toml:"mode"`
			MaxRetries int    `toml:"max_retries"`
		} `toml:"follow"`
		Output struct {
			Format     string   `toml:"format"`
			File       string   `toml:"file"`
			Facilities []string `toml:"facilities"`
		} `toml:"output"`
	}
	custom := payload{}
	custom.Backend.Kind = " KLOGCTL "
	custom.Backend.Clear = true
	custom.Follow.Enabled = true
	custom.Follow.Mode = "Blocking"
	custom.Follow.MaxRetries = 7
	custom.Output.Format = "json"
	custom.Output.File = "~/kern.jsonl.zst"
	custom.Output.Facilities = []string{" Kern ", "", "daemon"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("resolved = %q exists = %v", resolved, exists)
	}
	if cfg.Backend.Kind != "klogctl" || !cfg.Backend.Clear {
		t.Fatalf("unexpected backend: %+v", cfg.Backend)
	}
	if cfg.Follow.Mode != "blocking" || cfg.Follow.MaxRetries != 7 {
		t.Fatalf("unexpected follow: %+v", cfg.Follow)
	}
	// Unset keys keep their defaults.
	if cfg.Follow.PollIntervalMS != config.Default().Follow.PollIntervalMS {
		t.Fatalf("poll interval = %d", cfg.Follow.PollIntervalMS)
	}
	home, _ := os.UserHomeDir()
	if cfg.Output.File != filepath.Join(home, "kern.jsonl.zst") {
		t.Fatalf("output file not expanded: %q", cfg.Output.File)
	}
	if cfg.Output.Codec() != "zstd" {
		t.Fatalf("codec = %q, want zstd inferred from extension", cfg.Output.Codec())
	}
	if strings.Join(cfg.Output.Facilities, ",") != "kern,daemon" {
		t.Fatalf("facilities = %v", cfg.Output.Facilities)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "kernlog.toml")
	if err := os.WriteFile(configPath, []byte("[backend]\nkind = \"auto\"\nbogus = 1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestKmsgPathEnvFallback(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	fixture := filepath.Join(t.TempDir(), "kmsg.fixture")
	t.Setenv("KERNLOG_KMSG_PATH", fixture)

	cfg := config.Default()
	configPath := filepath.Join(t.TempDir(), "kernlog.toml")
	if err := os.WriteFile(configPath, []byte("[backend]\nkmsg_path = \"\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	loaded, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Backend.KmsgPath != fixture {
		t.Fatalf("kmsg path = %q, want %q", loaded.Backend.KmsgPath, fixture)
	}
	if cfg.Backend.KmsgPath != "" {
		t.Fatalf("Default should leave kmsg_path to normalization, got %q", cfg.Backend.KmsgPath)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown kind", func(c *config.Config) { c.Backend.Kind = "netlink" }},
		{"clear without replay", func(c *config.Config) { c.Backend.Clear = true; c.Backend.Replay = false }},
		{"clear on devkmsg", func(c *config.Config) { c.Backend.Clear = true; c.Backend.Kind = "devkmsg" }},
		{"unknown mode", func(c *config.Config) { c.Follow.Mode = "threads" }},
		{"negative poll", func(c *config.Config) { c.Follow.PollIntervalMS = -1 }},
		{"max below base", func(c *config.Config) { c.Follow.BaseBackoffMS = 500; c.Follow.MaxBackoffMS = 100 }},
		{"negative retries", func(c *config.Config) { c.Follow.MaxRetries = -2 }},
		{"unknown format", func(c *config.Config) { c.Output.Format = "xml" }},
		{"table while following", func(c *config.Config) { c.Output.Format = "table"; c.Follow.Enabled = true }},
		{"unknown color", func(c *config.Config) { c.Output.Color = "rainbow" }},
		{"unknown compress", func(c *config.Config) { c.Output.Compress = "lz4" }},
		{"compress to stdout", func(c *config.Config) { c.Output.Compress = "gzip" }},
		{"bad min level", func(c *config.Config) { c.Output.MinLevel = "loud" }},
		{"bad facility", func(c *config.Config) { c.Output.Facilities = []string{"kern", "nope"} }},
		{"bad log level", func(c *config.Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Backend.KmsgPath = backend.DefaultKmsgPath
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, kmsg.ErrConfig) {
				t.Fatalf("Validate() = %v, want ErrConfig", err)
			}
		})
	}
}

func TestConversions(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.KmsgPath = "/tmp/kmsg"
	cfg.Backend.Kind = "devkmsg"
	cfg.Follow.Enabled = true
	cfg.Follow.Mode = "blocking"
	cfg.Follow.PollIntervalMS = 250
	cfg.Follow.MaxRetries = 3
	cfg.Follow.IgnoreWouldBlock = true
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	eopts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions: %v", err)
	}
	if eopts.Mode != engine.ModeBlocking || !eopts.Follow || eopts.PollInterval != 250*time.Millisecond ||
		eopts.BaseBackoff != 100*time.Millisecond || eopts.MaxBackoff != 5*time.Second || eopts.MaxRetries != 3 || !eopts.IgnoreWouldBlock {
		t.Fatalf("unexpected engine options: %+v", eopts)
	}

	bopts, err := cfg.BackendOptions(nil)
	if err != nil {
		t.Fatalf("BackendOptions: %v", err)
	}
	if bopts.Kind != backend.KindDevKmsg || bopts.KmsgPath != "/tmp/kmsg" || !bopts.Replay || bopts.NonBlocking {
		t.Fatalf("unexpected backend options: %+v", bopts)
	}

	cfg.Follow.Mode = "cooperative"
	if bopts, _ = cfg.BackendOptions(nil); !bopts.NonBlocking {
		t.Fatal("cooperative follow should open the source non-blocking")
	}
	cfg.Follow.Mode = "blocking"
	cfg.Follow.Enabled = false
	if bopts, _ = cfg.BackendOptions(nil); !bopts.NonBlocking {
		t.Fatal("one-shot reads should open the source non-blocking")
	}

	lopts := cfg.LoggingOptions()
	if lopts.Level != "warn" || lopts.Format != "console" {
		t.Fatalf("unexpected logging options: %+v", lopts)
	}
}

func TestCodec(t *testing.T) {
	tests := map[string]config.Output{
		"none": {File: "/tmp/out.jsonl"},
		"gzip": {File: "/tmp/out.jsonl.gz"},
		"zstd": {File: "/tmp/out.ZST"},
	}
	for want, out := range tests {
		if got := out.Codec(); got != want {
			t.Fatalf("Codec(%q) = %q, want %q", out.File, got, want)
		}
	}
	explicit := config.Output{File: "/tmp/out.gz", Compress: "none"}
	if explicit.Codec() != "none" {
		t.Fatal("explicit compress should win over the extension")
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("KERNLOG_KMSG_PATH", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("sample config does not load: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to exist")
	}
	if cfg.Backend.Kind != "auto" || cfg.Output.Format != "text" || cfg.Follow.PollIntervalMS != 1000 {
		t.Fatalf("sample config diverges from defaults: %+v", cfg)
	}
}
