// Package kmsg defines the kernel log entry model and the parsers that turn
// raw ring buffer records into typed entries.
//
// Two wire formats are understood: the text returned by the syslog(2)
// control call ("<6>[    0.000001] message") and the structured records
// exposed by /dev/kmsg ("14,521,125456,-;message"). Parsing is pure and
// idempotent; a malformed record yields an error wrapping ErrParse and never
// affects neighbouring records.
//
// The package also owns the error taxonomy shared by the backend, engine and
// stream packages so callers can classify failures with errors.Is.
package kmsg
