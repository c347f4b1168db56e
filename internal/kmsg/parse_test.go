package kmsg

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSplitPriorityCoversAllValidBytes(t *testing.T) {
	for b := uint64(0); b < 192; b++ {
		facility, level, err := SplitPriority(b)
		if err != nil {
			t.Fatalf("SplitPriority(%d) returned error: %v", b, err)
		}
		if uint64(facility) != b>>3 {
			t.Fatalf("facility(%d) = %d, want %d", b, facility, b>>3)
		}
		if uint64(level) != b&7 {
			t.Fatalf("level(%d) = %d, want %d", b, level, b&7)
		}
		if !facility.Valid() || !level.Valid() {
			t.Fatalf("priority %d produced out-of-range values", b)
		}
		if Priority(facility, level) != b {
			t.Fatalf("Priority(%d, %d) = %d, want %d", facility, level, Priority(facility, level), b)
		}
	}
}

func TestSplitPriorityRejectsOutOfRange(t *testing.T) {
	for _, b := range []uint64{192, 200, 1 << 20} {
		if _, _, err := SplitPriority(b); !errors.Is(err, ErrParse) {
			t.Fatalf("SplitPriority(%d) error = %v, want ErrParse", b, err)
		}
	}
}

func TestParseKlog(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Entry
	}{
		{
			name: "priority and timestamp",
			raw:  "<6>[    0.000001] kernel started",
			want: Entry{Facility: 0, Level: 6, HasPriority: true, Timestamp: time.Microsecond, HasTimestamp: true, Message: "kernel started"},
		},
		{
			name: "trailing newline",
			raw:  "<4>[12345.678901] usb 1-1: reset\n",
			want: Entry{Facility: 0, Level: 4, HasPriority: true, Timestamp: 12345*time.Second + 678901*time.Microsecond, HasTimestamp: true, Message: "usb 1-1: reset"},
		},
		{
			name: "short fraction is scaled",
			raw:  "<14>[1.5] hello",
			want: Entry{Facility: 1, Level: 6, HasPriority: true, Timestamp: 1500 * time.Millisecond, HasTimestamp: true, Message: "hello"},
		},
		{
			name: "no timestamp",
			raw:  "<3>disk failure",
			want: Entry{Facility: 0, Level: 3, HasPriority: true, Message: "disk failure"},
		},
		{
			name: "no prefix at all",
			raw:  "plain text",
			want: Entry{Message: "plain text"},
		},
		{
			name: "bracket that is not a timestamp",
			raw:  "<6>[drm] initialized",
			want: Entry{Level: 6, HasPriority: true, Message: "[drm] initialized"},
		},
		{
			name: "angle bracket that is not a priority",
			raw:  "<x> odd",
			want: Entry{Message: "<x> odd"},
		},
		{
			name: "invalid utf8 is replaced",
			raw:  "<6>[    1.000000] bad \xff byte",
			want: Entry{Level: 6, HasPriority: true, Timestamp: time.Second, HasTimestamp: true, Message: "bad � byte"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKlog([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseKlog returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseKlog(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseKlogOutOfRangePriority(t *testing.T) {
	_, err := ParseKlog([]byte("<192>[    0.000001] nope"))
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseKmsg(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Entry
	}{
		{
			name: "documented example",
			raw:  "14,521,125456,-;Out of memory",
			want: Entry{Facility: 1, Level: 6, HasPriority: true, Sequence: 521, HasSequence: true, Timestamp: 125456 * time.Microsecond, HasTimestamp: true, Message: "Out of memory"},
		},
		{
			name: "extra header fields are ignored",
			raw:  "6,1,2,c,caller=T1;hello\n",
			want: Entry{Level: 6, HasPriority: true, Sequence: 1, HasSequence: true, Timestamp: 2 * time.Microsecond, HasTimestamp: true, Message: "hello"},
		},
		{
			name: "short header leaves fields unset",
			raw:  "3,17;short",
			want: Entry{Level: 3, HasPriority: true, Sequence: 17, HasSequence: true, Message: "short"},
		},
		{
			name: "empty fields are unset",
			raw:  ",,,-;bare",
			want: Entry{Message: "bare"},
		},
		{
			name: "dictionary continuation lines",
			raw:  "6,339,5140900,-;NET: Registered protocol family 10\n SUBSYSTEM=net\n DEVICE=+net:lo\n",
			want: Entry{
				Level: 6, HasPriority: true, Sequence: 339, HasSequence: true,
				Timestamp: 5140900 * time.Microsecond, HasTimestamp: true,
				Message: "NET: Registered protocol family 10",
				Fields:  map[string]string{"SUBSYSTEM": "net", "DEVICE": "+net:lo"},
			},
		},
		{
			name: "escaped bytes are decoded",
			raw:  `6,1,1,-;line one\x0aline two`,
			want: Entry{Level: 6, HasPriority: true, Sequence: 1, HasSequence: true, Timestamp: time.Microsecond, HasTimestamp: true, Message: "line one\nline two"},
		},
		{
			name: "continued message lines",
			raw:  "6,2,3,-;first\nsecond",
			want: Entry{Level: 6, HasPriority: true, Sequence: 2, HasSequence: true, Timestamp: 3 * time.Microsecond, HasTimestamp: true, Message: "first\nsecond"},
		},
		{
			name: "invalid utf8 is replaced",
			raw:  "6,3,4,-;oops \xfe",
			want: Entry{Level: 6, HasPriority: true, Sequence: 3, HasSequence: true, Timestamp: 4 * time.Microsecond, HasTimestamp: true, Message: "oops �"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKmsg([]byte(tt.raw))
			if err != nil {
				t.Fatalf("ParseKmsg returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseKmsg(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseKmsgFailures(t *testing.T) {
	for _, raw := range []string{
		"no separator here",
		"abc,1,2,-;bad priority",
		"6,x,2,-;bad sequence",
		"6,1,y,-;bad timestamp",
		"999,1,2,-;facility out of range",
	} {
		if _, err := ParseKmsg([]byte(raw)); !errors.Is(err, ErrParse) {
			t.Errorf("ParseKmsg(%q) error = %v, want ErrParse", raw, err)
		}
	}
}

func TestParseIsIdempotent(t *testing.T) {
	inputs := []struct {
		format Format
		raw    string
	}{
		{FormatKlog, "<6>[    0.000001] kernel started"},
		{FormatKmsg, "14,521,125456,-;Out of memory\n SUBSYSTEM=mem"},
		{FormatKmsg, "6,3,4,-;oops \xfe"},
	}
	for _, in := range inputs {
		raw := []byte(in.raw)
		first, err1 := Parse(in.format, raw)
		second, err2 := Parse(in.format, raw)
		if err1 != nil || err2 != nil {
			t.Fatalf("Parse(%q) errors: %v, %v", in.raw, err1, err2)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("Parse(%q) not idempotent: %+v vs %+v", in.raw, first, second)
		}
		if string(raw) != in.raw {
			t.Fatalf("Parse mutated its input: %q", raw)
		}
	}
}

func TestParseUnknownFormat(t *testing.T) {
	if _, err := Parse(Format(42), []byte("x")); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestKlogTimestamp(t *testing.T) {
	ts, ok := KlogTimestamp([]byte("<6>[   12.000250] eth0: link up"))
	if !ok || ts != 12*time.Second+250*time.Microsecond {
		t.Fatalf("KlogTimestamp = %v, %v", ts, ok)
	}
	if _, ok := KlogTimestamp([]byte("<6>no timestamp")); ok {
		t.Fatal("expected no timestamp")
	}
}
