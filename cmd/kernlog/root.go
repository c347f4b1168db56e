package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	flags := &cliFlags{}
	ctx := newCommandContext(flags)

	rootCmd := &cobra.Command{
		Use:           "kernlog",
		Short:         "Read and follow the Linux kernel log",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig(cmd)
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRead(cmd, ctx)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Configuration file path")

	f := rootCmd.Flags()
	f.BoolVarP(&flags.follow, "follow", "f", false, "Keep printing new records as they arrive")
	f.BoolVarP(&flags.clear, "clear", "c", false, "Read and clear the ring buffer (klogctl, needs CAP_SYSLOG)")
	f.BoolVarP(&flags.raw, "raw", "r", false, "Print records exactly as the kernel returns them")
	f.StringVarP(&flags.backend, "backend", "b", "", "Backend: auto, klogctl or devkmsg")
	f.StringVar(&flags.format, "format", "", "Output format: text, json, raw or table")
	f.StringVarP(&flags.output, "output", "o", "", "Write entries to this file instead of stdout")
	f.StringVar(&flags.compress, "compress", "", "Compress the output file: none, gzip or zstd")
	f.StringVar(&flags.color, "color", "", "Colorize text output: auto, always or never")
	f.BoolVarP(&flags.wallClock, "wall-clock", "T", false, "Show wall-clock timestamps")
	f.StringVarP(&flags.level, "level", "l", "", "Only show records at least this severe")
	f.StringSliceVar(&flags.facilities, "facility", nil, "Only show these facilities (repeatable)")
	f.StringVar(&flags.mode, "mode", "", "Follow wait strategy: cooperative or blocking")
	f.BoolVar(&flags.noReplay, "no-replay", false, "With -f, skip the retained history")

	rootCmd.AddCommand(newBackendsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
