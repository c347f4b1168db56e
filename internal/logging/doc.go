// Package logging assembles the structured slog loggers used by kernlog.
//
// It owns the console and JSON handlers, the optional JSON log file mirror,
// the standard attribute keys (component, event_type, error_hint, impact,
// backend, session_id) and the helpers that enforce them on warnings and
// errors. Diagnostics always go to stderr or the log file; kernel log entries
// themselves are never routed through this package.
//
// NewNop returns a logger for tests and wiring code that cannot fail.
package logging
