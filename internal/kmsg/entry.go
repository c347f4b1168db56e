package kmsg

import "time"

// Format identifies the wire format of a raw record.
type Format int

const (
	// FormatKlog is the text returned by the syslog(2) control call.
	FormatKlog Format = iota + 1
	// FormatKmsg is the structured record format of /dev/kmsg.
	FormatKmsg
)

func (f Format) String() string {
	switch f {
	case FormatKlog:
		return "klogctl"
	case FormatKmsg:
		return "devkmsg"
	default:
		return "unknown"
	}
}

// Entry is one parsed kernel log record. Fields whose Has* flag is false were
// absent from the source record.
type Entry struct {
	Facility    Facility
	Level       Level
	HasPriority bool

	// Timestamp is the offset since boot reported by the kernel.
	Timestamp    time.Duration
	HasTimestamp bool

	// Sequence is only provided by /dev/kmsg.
	Sequence    uint64
	HasSequence bool

	Message string
	Fields  map[string]string
}
