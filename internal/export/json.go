package export

import (
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/valyala/fastjson"

	"kernlog/internal/kmsg"
)

// Encoder writes entries as JSON lines. It reuses one arena and one output
// buffer, so it is not safe for concurrent use.
type Encoder struct {
	w     io.Writer
	boot  time.Time
	arena fastjson.Arena
	buf   []byte
	keys  []string
}

// NewEncoder returns an Encoder writing to w. A non-zero boot adds a
// wall-clock "time" member to every timestamped entry.
func NewEncoder(w io.Writer, boot time.Time) *Encoder {
	return &Encoder{w: w, boot: boot}
}

// Encode writes e followed by a newline. Members whose value was absent in
// the source record are omitted.
func (enc *Encoder) Encode(e kmsg.Entry) error {
	a := &enc.arena
	defer a.Reset()

	obj := a.NewObject()
	if e.HasPriority {
		obj.Set("facility", a.NewString(e.Facility.String()))
		obj.Set("level", a.NewString(e.Level.String()))
		obj.Set("priority", a.NewNumberInt(int(kmsg.Priority(e.Facility, e.Level))))
	}
	if e.HasSequence {
		obj.Set("seq", a.NewNumberString(strconv.FormatUint(e.Sequence, 10)))
	}
	if e.HasTimestamp {
		obj.Set("monotonic_us", a.NewNumberString(strconv.FormatInt(int64(e.Timestamp/time.Microsecond), 10)))
		if !enc.boot.IsZero() {
			obj.Set("time", a.NewString(enc.boot.Add(e.Timestamp).UTC().Format(time.RFC3339Nano)))
		}
	}
	obj.Set("message", a.NewString(e.Message))
	if len(e.Fields) > 0 {
		enc.keys = enc.keys[:0]
		for key := range e.Fields {
			enc.keys = append(enc.keys, key)
		}
		slices.Sort(enc.keys)
		fields := a.NewObject()
		for _, key := range enc.keys {
			fields.Set(key, a.NewString(e.Fields[key]))
		}
		obj.Set("fields", fields)
	}

	enc.buf = obj.MarshalTo(enc.buf[:0])
	enc.buf = append(enc.buf, '\n')
	_, err := enc.w.Write(enc.buf)
	return err
}
