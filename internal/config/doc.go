// Package config loads, normalizes, and validates kernlog configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the KERNLOG_KMSG_PATH environment
// fallback. Config converts its sections into backend, engine and logging
// options so callers never translate raw TOML values themselves.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical names, and errors that wrap kmsg.ErrConfig.
package config
