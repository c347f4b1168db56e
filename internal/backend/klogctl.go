package backend

import (
	"bytes"
	"sync"
	"time"

	"kernlog/internal/kmsg"
)

const defaultKlogBufferSize = 1 << 17

// klogSource reads the ring buffer through syslog(2).
//
// Without Clear the whole buffer is returned by every call, so the source
// keeps an in-session high-water timestamp and only hands out lines newer
// than it. Lines sharing the high-water timestamp are counted so that later
// lines with the same timestamp are still delivered once. Lines without a
// timestamp can only be emitted by the first read.
type klogSource struct {
	sys    *sysCalls
	buf    []byte
	clear  bool
	replay bool
	boot   time.Time

	primed    bool
	highWater time.Duration
	// atHighWater is the number of lines already seen at highWater.
	atHighWater int

	closeOnce sync.Once
	closed    bool
}

func openKlog(opts Options, sys *sysCalls) (*klogSource, error) {
	size, err := sys.klogctl(syslogActionSizeBuffer, nil)
	if err != nil {
		return nil, classifyOpen("klogctl size buffer", err)
	}
	if size <= 0 {
		size = defaultKlogBufferSize
	}
	return &klogSource{
		sys:    sys,
		buf:    make([]byte, size),
		clear:  opts.Clear,
		replay: opts.Replay,
		boot:   bootReference(sys),
	}, nil
}

func (s *klogSource) Read() ([][]byte, error) {
	if s.closed {
		return nil, kmsg.Wrap(kmsg.ErrFatal, "klogctl read", errSourceClosed)
	}
	action, op := syslogActionReadAll, "klogctl read all"
	if s.clear {
		action, op = syslogActionReadClear, "klogctl read clear"
	}
	n, err := s.sys.klogctl(action, s.buf)
	if err != nil {
		return nil, classifyRead(op, err)
	}
	return s.filter(s.buf[:n]), nil
}

func (s *klogSource) filter(data []byte) [][]byte {
	var records [][]byte
	first := !s.primed
	s.primed = true
	emit := !first || s.replay
	skip := s.atHighWater

	for len(data) > 0 {
		var line []byte
		line, data, _ = bytes.Cut(data, []byte("\n"))
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		if s.clear {
			records = append(records, line)
			continue
		}
		ts, ok := kmsg.KlogTimestamp(line)
		fresh := first
		switch {
		case !ok:
		case ts > s.highWater:
			s.highWater, s.atHighWater, skip = ts, 1, 0
			fresh = true
		case ts == s.highWater && skip > 0:
			skip--
		case ts == s.highWater:
			s.atHighWater++
			fresh = true
		}
		if fresh && emit {
			records = append(records, line)
		}
	}
	return records
}

func (s *klogSource) Format() kmsg.Format { return kmsg.FormatKlog }

func (s *klogSource) Blocking() bool { return false }

func (s *klogSource) BootTime() time.Time { return s.boot }

func (s *klogSource) Close() error {
	s.closeOnce.Do(func() {
		s.closed = true
		s.buf = nil
	})
	return nil
}
