package kmsg

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// Parse converts one raw record in the given format into an Entry.
func Parse(format Format, raw []byte) (Entry, error) {
	switch format {
	case FormatKlog:
		return ParseKlog(raw)
	case FormatKmsg:
		return ParseKmsg(raw)
	default:
		return Entry{}, fmt.Errorf("%w: unknown record format %d", ErrConfig, int(format))
	}
}

// ParseKlog parses one line of syslog(2) output:
//
//	<6>[    0.000001] kernel started
//
// Both the priority prefix and the timestamp are optional.
func ParseKlog(raw []byte) (Entry, error) {
	var entry Entry
	line := trimEOL(raw)

	if prio, rest, ok := cutPriority(line); ok {
		n, err := strconv.ParseUint(string(prio), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: priority %q: %w", ErrParse, prio, err)
		}
		facility, level, err := SplitPriority(n)
		if err != nil {
			return Entry{}, err
		}
		entry.Facility, entry.Level, entry.HasPriority = facility, level, true
		line = rest
	}

	if ts, rest, ok := cutKlogTimestamp(line); ok {
		entry.Timestamp, entry.HasTimestamp = ts, true
		line = bytes.TrimPrefix(rest, []byte(" "))
	}

	entry.Message = validText(line)
	return entry, nil
}

// KlogTimestamp extracts only the timestamp of a syslog(2) line.
func KlogTimestamp(raw []byte) (time.Duration, bool) {
	line := trimEOL(raw)
	if _, rest, ok := cutPriority(line); ok {
		line = rest
	}
	ts, _, ok := cutKlogTimestamp(line)
	return ts, ok
}

// ParseKmsg parses one /dev/kmsg record:
//
//	14,521,125456,-;Out of memory
//	 SUBSYSTEM=mem
//
// Header fields are positional (priority, sequence, timestamp, flags). Empty
// or missing fields are left unset. Lines following the first that start with
// a space are dictionary entries; other lines continue the message.
func ParseKmsg(raw []byte) (Entry, error) {
	var entry Entry
	record := trimEOL(raw)

	first, rest, _ := bytes.Cut(record, []byte("\n"))
	header, message, ok := bytes.Cut(first, []byte(";"))
	if !ok {
		return Entry{}, fmt.Errorf("%w: missing ';' separator", ErrParse)
	}

	fields := bytes.Split(header, []byte(","))
	if len(fields) > 0 && len(fields[0]) > 0 {
		n, err := strconv.ParseUint(string(fields[0]), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: priority %q: %w", ErrParse, fields[0], err)
		}
		facility, level, err := SplitPriority(n)
		if err != nil {
			return Entry{}, err
		}
		entry.Facility, entry.Level, entry.HasPriority = facility, level, true
	}
	if len(fields) > 1 && len(fields[1]) > 0 {
		n, err := strconv.ParseUint(string(fields[1]), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: sequence %q: %w", ErrParse, fields[1], err)
		}
		entry.Sequence, entry.HasSequence = n, true
	}
	if len(fields) > 2 && len(fields[2]) > 0 {
		n, err := strconv.ParseUint(string(fields[2]), 10, 64)
		if err != nil {
			return Entry{}, fmt.Errorf("%w: timestamp %q: %w", ErrParse, fields[2], err)
		}
		entry.Timestamp, entry.HasTimestamp = time.Duration(n)*time.Microsecond, true
	}

	text := unescapeKmsg(message)
	for len(rest) > 0 {
		var line []byte
		line, rest, _ = bytes.Cut(rest, []byte("\n"))
		if len(line) > 0 && line[0] == ' ' {
			key, value, found := bytes.Cut(line[1:], []byte("="))
			if !found || len(key) == 0 {
				continue
			}
			if entry.Fields == nil {
				entry.Fields = make(map[string]string)
			}
			entry.Fields[validText(key)] = validText(unescapeKmsg(value))
			continue
		}
		text = append(text, '\n')
		text = append(text, unescapeKmsg(line)...)
	}

	entry.Message = validText(text)
	return entry, nil
}

func trimEOL(b []byte) []byte {
	return bytes.TrimRight(b, "\r\n")
}

// cutPriority splits a leading "<N>" prefix.
func cutPriority(line []byte) (prio, rest []byte, ok bool) {
	if len(line) < 3 || line[0] != '<' {
		return nil, line, false
	}
	end := bytes.IndexByte(line, '>')
	if end < 2 || !allDigits(line[1:end]) {
		return nil, line, false
	}
	return line[1:end], line[end+1:], true
}

// cutKlogTimestamp splits a leading "[ secs.frac]" timestamp.
func cutKlogTimestamp(line []byte) (time.Duration, []byte, bool) {
	if len(line) == 0 || line[0] != '[' {
		return 0, line, false
	}
	end := bytes.IndexByte(line, ']')
	if end < 0 {
		return 0, line, false
	}
	secs, frac, ok := bytes.Cut(bytes.TrimSpace(line[1:end]), []byte("."))
	if !ok || len(secs) == 0 || len(frac) == 0 || !allDigits(secs) || !allDigits(frac) {
		return 0, line, false
	}
	s, err := strconv.ParseUint(string(secs), 10, 64)
	if err != nil {
		return 0, line, false
	}
	if len(frac) > 6 {
		frac = frac[:6]
	}
	micros, err := strconv.ParseUint(string(frac)+strings.Repeat("0", 6-len(frac)), 10, 64)
	if err != nil {
		return 0, line, false
	}
	ts := time.Duration(s)*time.Second + time.Duration(micros)*time.Microsecond
	return ts, line[end+1:], true
}

// unescapeKmsg decodes the \xHH escapes the kernel uses for non-printable bytes.
func unescapeKmsg(b []byte) []byte {
	if bytes.IndexByte(b, '\\') < 0 {
		return append([]byte(nil), b...)
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+3 < len(b) && b[i+1] == 'x' {
			hi, okHi := unhex(b[i+2])
			lo, okLo := unhex(b[i+3])
			if okHi && okLo {
				out = append(out, hi<<4|lo)
				i += 3
				continue
			}
		}
		out = append(out, b[i])
	}
	return out
}

// validText returns b as a string, replacing invalid UTF-8 with U+FFFD.
func validText(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	repaired, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(repaired)
}

func allDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(b) > 0
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
