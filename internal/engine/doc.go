// Package engine drives repeated reads from a kernel log source and turns
// them into an ordered stream of parsed entries.
//
// The Engine is a small state machine (Idle, Reading, Backoff, Closed).
// Retry, exponential backoff, poll spacing and ordering live here once; the
// only thing that varies between consumers is the suspension strategy used
// while waiting, chosen at construction with Options.Mode.
//
// An Engine serves exactly one consumer. It performs no locking against
// concurrent Next calls and no deduplication across restarts.
package engine
