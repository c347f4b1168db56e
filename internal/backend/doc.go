// Package backend opens the kernel log access mechanisms and returns raw,
// unparsed records.
//
// Two variants exist. The klogctl source drives syslog(2): it sizes its
// buffer with SYSLOG_ACTION_SIZE_BUFFER and reads with READ_ALL, or with the
// destructive READ_CLEAR when Clear is requested. The devkmsg source reads
// /dev/kmsg, one structured record per read(2), optionally non-blocking and
// optionally replaying retained history before following.
//
// Open selects a variant and falls back to the other one at most once when
// the first is unsupported by the running kernel. Permission failures are
// never retried. Per-read transient conditions are classified and returned
// to the caller; retrying them is the poll engine's job.
//
// A Source owns its handle exclusively and is not safe for concurrent use:
// the klogctl clear action and the /dev/kmsg cursor cannot be shared
// between readers.
package backend
