package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"kernlog/internal/config"
	"kernlog/internal/export"
	"kernlog/internal/kmsg"
	"kernlog/internal/logstream"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiDim    = "\x1b[2m"
)

const (
	wallClockLayout    = "2006-01-02 15:04:05.000000"
	messageColumnWidth = 100
)

type entrySink interface {
	Write(kmsg.Entry) error
	Close() error
}

func newSink(o config.Output, w io.Writer, r *logstream.Reader, colorize bool) entrySink {
	wall := func(kmsg.Entry) time.Time { return time.Time{} }
	if o.WallClock {
		wall = r.WallClock
	}
	switch o.Format {
	case formatJSON:
		return &jsonSink{enc: export.NewEncoder(w, r.BootTime())}
	case formatRaw:
		return &rawSink{w: w, format: r.Backend()}
	case formatTable:
		return &tableSink{w: w, wall: wall}
	default:
		return &textSink{w: w, wall: wall, colorize: colorize}
	}
}

type textSink struct {
	w        io.Writer
	wall     func(kmsg.Entry) time.Time
	colorize bool
}

func (s *textSink) Write(e kmsg.Entry) error {
	_, err := fmt.Fprintln(s.w, formatTextLine(e, s.wall(e), s.colorize))
	return err
}

func (s *textSink) Close() error { return nil }

type jsonSink struct {
	enc *export.Encoder
}

func (s *jsonSink) Write(e kmsg.Entry) error { return s.enc.Encode(e) }

func (s *jsonSink) Close() error { return nil }

// rawSink re-serializes entries in the backend's own record format.
type rawSink struct {
	w      io.Writer
	format kmsg.Format
}

func (s *rawSink) Write(e kmsg.Entry) error {
	line := export.FormatKlog(e)
	if s.format == kmsg.FormatKmsg {
		line = export.FormatKmsg(e)
	}
	_, err := io.WriteString(s.w, line+"\n")
	return err
}

func (s *rawSink) Close() error { return nil }

// tableSink buffers every entry and renders one table on Close.
type tableSink struct {
	w    io.Writer
	wall func(kmsg.Entry) time.Time
	rows [][]string
}

func (s *tableSink) Write(e kmsg.Entry) error {
	facility, level := "", ""
	if e.HasPriority {
		facility, level = e.Facility.String(), e.Level.String()
	}
	s.rows = append(s.rows, []string{
		timestampLabel(e, s.wall(e)),
		facility,
		level,
		strings.ReplaceAll(e.Message, "\n", " "),
	})
	return nil
}

func (s *tableSink) Close() error {
	if len(s.rows) == 0 {
		return nil
	}
	out := renderTable(
		[]string{"Time", "Facility", "Level", "Message"},
		s.rows,
		tableLayout{rightAligned: []int{0}, wrap: map[int]int{3: messageColumnWidth}},
	)
	_, err := fmt.Fprintln(s.w, out)
	return err
}

// formatTextLine renders "[timestamp] facility.level: message". Parts the
// record does not carry are left out.
func formatTextLine(e kmsg.Entry, wall time.Time, colorize bool) string {
	var b strings.Builder
	if ts := timestampLabel(e, wall); ts != "" {
		b.WriteString("[")
		b.WriteString(ts)
		b.WriteString("] ")
	}
	if e.HasPriority {
		b.WriteString(e.Facility.String())
		b.WriteByte('.')
		b.WriteString(e.Level.String())
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	line := b.String()
	if colorize && e.HasPriority {
		if color := levelColor(e.Level); color != "" {
			return color + line + ansiReset
		}
	}
	return line
}

func timestampLabel(e kmsg.Entry, wall time.Time) string {
	if !wall.IsZero() {
		return wall.Local().Format(wallClockLayout)
	}
	if !e.HasTimestamp {
		return ""
	}
	return strings.Trim(export.KlogTimestamp(e.Timestamp), "[]")
}

func levelColor(l kmsg.Level) string {
	switch {
	case l <= kmsg.LevelCrit:
		return ansiBold + ansiRed
	case l == kmsg.LevelErr:
		return ansiRed
	case l == kmsg.LevelWarning:
		return ansiYellow
	case l == kmsg.LevelNotice:
		return ansiBlue
	case l == kmsg.LevelDebug:
		return ansiDim
	default:
		return ""
	}
}

func wantColor(o config.Output, stdout io.Writer) bool {
	if o.File != "" && o.File != "-" {
		return false
	}
	switch o.Color {
	case "always":
		return true
	case "never":
		return false
	default:
		return shouldColorize(stdout)
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
