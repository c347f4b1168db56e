package export

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"kernlog/internal/kmsg"
)

// FormatKmsg serializes e back into the /dev/kmsg record format: a
// "priority,sequence,timestamp,flags;message" line followed by one
// " KEY=value" line per dictionary field. Absent header values are left
// empty. Non-printable bytes and backslashes are written as \xHH.
func FormatKmsg(e kmsg.Entry) string {
	var b strings.Builder
	b.Grow(len(e.Message) + 32)
	if e.HasPriority {
		b.WriteString(strconv.FormatUint(kmsg.Priority(e.Facility, e.Level), 10))
	}
	b.WriteByte(',')
	if e.HasSequence {
		b.WriteString(strconv.FormatUint(e.Sequence, 10))
	}
	b.WriteByte(',')
	if e.HasTimestamp {
		b.WriteString(strconv.FormatInt(int64(e.Timestamp/time.Microsecond), 10))
	}
	b.WriteString(",-;")
	escapeKmsg(&b, e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		b.WriteString("\n ")
		escapeKmsg(&b, key)
		b.WriteByte('=')
		escapeKmsg(&b, e.Fields[key])
	}
	return b.String()
}

func escapeKmsg(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < ' ' || c == 0x7f || c == '\\' {
			fmt.Fprintf(b, `\x%02x`, c)
			continue
		}
		b.WriteByte(c)
	}
}

// FormatKlog serializes e as a syslog(2) buffer line: "<pri>[secs.micros] message".
func FormatKlog(e kmsg.Entry) string {
	var b strings.Builder
	b.Grow(len(e.Message) + 24)
	if e.HasPriority {
		b.WriteByte('<')
		b.WriteString(strconv.FormatUint(kmsg.Priority(e.Facility, e.Level), 10))
		b.WriteByte('>')
	}
	if e.HasTimestamp {
		b.WriteString(KlogTimestamp(e.Timestamp))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ReplaceAll(e.Message, "\n", " "))
	return b.String()
}

// KlogTimestamp renders d the way the kernel prefixes printk lines,
// "[%5lu.%06lu]".
func KlogTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := d / time.Second
	micros := (d % time.Second) / time.Microsecond
	return fmt.Sprintf("[%5d.%06d]", int64(secs), int64(micros))
}
