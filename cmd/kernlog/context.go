package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"kernlog/internal/config"
	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
	"kernlog/internal/preflight"
)

type cliFlags struct {
	configPath string

	follow     bool
	clear      bool
	raw        bool
	noReplay   bool
	wallClock  bool
	backend    string
	format     string
	output     string
	compress   string
	color      string
	level      string
	facilities []string
	mode       string
}

type commandContext struct {
	flags *cliFlags

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(flags *cliFlags) *commandContext {
	return &commandContext{flags: flags}
}

// ensureConfig loads the configuration once and applies the flags that were
// set on cmd.
func (c *commandContext) ensureConfig(cmd *cobra.Command) (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(strings.TrimSpace(c.flags.configPath))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.flags.apply(cfg, cmd); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(stderr io.Writer) (*slog.Logger, error) {
	cfg := c.config
	if cfg == nil {
		return logging.NewNop(), nil
	}
	opts := cfg.LoggingOptions()
	opts.Writer = stderr
	return logging.New(opts)
}

// apply overrides cfg with every flag the user set explicitly.
func (f *cliFlags) apply(cfg *config.Config, cmd *cobra.Command) error {
	changed := cmd.Flags().Changed
	lower := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }

	if changed("follow") {
		cfg.Follow.Enabled = f.follow
	}
	if changed("clear") {
		cfg.Backend.Clear = f.clear
	}
	if changed("no-replay") && f.noReplay {
		cfg.Backend.Replay = false
	}
	if changed("backend") {
		cfg.Backend.Kind = lower(f.backend)
	}
	if changed("mode") {
		cfg.Follow.Mode = lower(f.mode)
	}
	if changed("format") {
		cfg.Output.Format = lower(f.format)
	}
	if changed("raw") && f.raw {
		cfg.Output.Format = formatRaw
	}
	if changed("color") {
		cfg.Output.Color = lower(f.color)
	}
	if changed("compress") {
		cfg.Output.Compress = lower(f.compress)
	}
	if changed("wall-clock") {
		cfg.Output.WallClock = f.wallClock
	}
	if changed("level") {
		cfg.Output.MinLevel = lower(f.level)
	}
	if changed("facility") {
		cfg.Output.Facilities = cfg.Output.Facilities[:0]
		for _, name := range f.facilities {
			if name = lower(name); name != "" {
				cfg.Output.Facilities = append(cfg.Output.Facilities, name)
			}
		}
	}
	if changed("output") {
		path := strings.TrimSpace(f.output)
		if path != "" && path != "-" {
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			path = expanded
		}
		cfg.Output.File = path
	}
	return nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// describeError appends a remediation hint for errors the user can fix.
func describeError(err error) string {
	msg := err.Error()
	if hint := preflight.HintFor(err); hint != "" {
		return msg + "\nhint: " + hint
	}
	if errors.Is(err, kmsg.ErrConfig) {
		return msg + "\nhint: check the configuration file or run `kernlog config validate`"
	}
	return msg
}
