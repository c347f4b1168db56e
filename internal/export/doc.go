// Package export serializes kernel log entries for storage and exchange:
// JSON lines, the two raw kernel formats, and optional gzip or zstd
// compression of the output stream.
package export
