// Package main hosts the kernlog CLI entrypoint and command graph.
//
// The root command reads the kernel ring buffer once, or follows it with -f,
// and renders entries as text, JSON lines, raw kernel records, or a table.
// Flags override the TOML configuration file. The backends subcommand probes
// both access mechanisms and config init writes a sample configuration.
package main
