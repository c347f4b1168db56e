package backend

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
)

const (
	// kmsgRecordMax matches CONSOLE_EXT_LOG_MAX; shorter buffers make read(2)
	// fail with EINVAL.
	kmsgRecordMax = 8192
	// kmsgBatchMax bounds how many records one non-blocking Read drains.
	kmsgBatchMax = 512
)

var errSourceClosed = errors.New("source closed")

// kmsgSource reads structured records from /dev/kmsg.
type kmsgSource struct {
	sys         *sysCalls
	path        string
	fd          int
	nonBlocking bool
	device      bool
	boot        time.Time
	logger      *slog.Logger

	buf     []byte
	pending []byte

	closeOnce sync.Once
	closed    bool
}

func openKmsg(opts Options, sys *sysCalls) (*kmsgSource, error) {
	path := strings.TrimSpace(opts.KmsgPath)
	if path == "" {
		path = DefaultKmsgPath
	}
	fd, err := sys.open(path, opts.NonBlocking)
	if err != nil {
		return nil, classifyOpen("open "+path, err)
	}
	// Pipes cannot seek and empty regular files have no data to seek to.
	if err := sys.seek(fd, !opts.Replay); err != nil && !errors.Is(err, unix.ESPIPE) && !errors.Is(err, unix.ENXIO) {
		_ = sys.close(fd)
		return nil, classifyOpen("seek "+path, err)
	}
	return &kmsgSource{
		sys:         sys,
		path:        path,
		fd:          fd,
		nonBlocking: opts.NonBlocking,
		device:      sys.isDevice(fd),
		boot:        bootReference(sys),
		logger:      logging.NewComponentLogger(opts.Logger, "devkmsg"),
		buf:         make([]byte, kmsgRecordMax),
	}, nil
}

// Read returns one record in blocking mode. In non-blocking mode it drains
// records until the kernel reports EAGAIN or the batch limit is reached.
func (s *kmsgSource) Read() ([][]byte, error) {
	if s.closed {
		return nil, kmsg.Wrap(kmsg.ErrFatal, "read "+s.path, errSourceClosed)
	}
	var records [][]byte
	for len(records) < kmsgBatchMax {
		n, err := s.sys.read(s.fd, s.buf)
		if err != nil {
			classified := classifyRead("read "+s.path, err)
			if errors.Is(classified, kmsg.ErrRecordsLost) {
				logging.WarnWithContext(s.logger, "kernel overwrote records before they were read", "kmsg_records_lost",
					logging.String(logging.FieldErrorHint, "consume the log faster or raise log_buf_len"),
					logging.String(logging.FieldImpact, "some kernel messages were skipped"),
				)
			}
			if len(records) > 0 && kmsg.IsTransient(classified) {
				return records, nil
			}
			return records, classified
		}
		if n == 0 {
			// Only regular files hit EOF; treat it as "no data yet".
			records = append(records, s.flush(true)...)
			if len(records) > 0 {
				return records, nil
			}
			return nil, kmsg.Wrap(kmsg.ErrWouldBlock, "read "+s.path, nil)
		}
		s.pending = append(s.pending, s.buf[:n]...)
		records = append(records, s.flush(s.device)...)
		if !s.nonBlocking && len(records) > 0 {
			return records, nil
		}
	}
	return records, nil
}

// flush splits complete records off the pending bytes. A record ends at a
// newline that is not followed by a space-prefixed continuation line; the
// trailing record is only released when final is set, since its
// continuation lines may still be in flight.
func (s *kmsgSource) flush(final bool) [][]byte {
	records, rest := splitRecords(s.pending, final)
	if len(rest) == 0 {
		s.pending = nil
	} else {
		s.pending = append([]byte(nil), rest...)
	}
	return records
}

func splitRecords(data []byte, final bool) ([][]byte, []byte) {
	var records [][]byte
	start := 0
	for i := 0; i < len(data)-1; i++ {
		if data[i] == '\n' && data[i+1] != ' ' {
			records = append(records, data[start:i+1])
			start = i + 1
		}
	}
	rest := data[start:]
	if final && len(rest) > 0 && rest[len(rest)-1] == '\n' {
		records = append(records, rest)
		rest = nil
	}
	return records, rest
}

func (s *kmsgSource) Format() kmsg.Format { return kmsg.FormatKmsg }

func (s *kmsgSource) Blocking() bool { return !s.nonBlocking }

func (s *kmsgSource) BootTime() time.Time { return s.boot }

func (s *kmsgSource) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed = true
		if cerr := s.sys.close(s.fd); cerr != nil {
			err = kmsg.Wrap(kmsg.ErrFatal, "close "+s.path, cerr)
		}
		s.fd = -1
	})
	return err
}
