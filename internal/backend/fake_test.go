package backend

import (
	"time"

	"golang.org/x/sys/unix"
)

// fakeKernel scripts the kernel boundary for source tests.
type fakeKernel struct {
	klogSize   int
	klogErr    error
	klogReads  []string
	klogCalls  []int
	openErr    error
	seekErr    error
	seekToEnd  []bool
	reads      []fakeRead
	device     bool
	closeCalls int
}

type fakeRead struct {
	data string
	err  error
}

func (k *fakeKernel) sys() *sysCalls {
	return &sysCalls{
		klogctl: func(action int, buf []byte) (int, error) {
			k.klogCalls = append(k.klogCalls, action)
			if action == syslogActionSizeBuffer {
				if k.klogErr != nil {
					return 0, k.klogErr
				}
				return k.klogSize, nil
			}
			if len(k.klogReads) == 0 {
				return 0, nil
			}
			next := k.klogReads[0]
			k.klogReads = k.klogReads[1:]
			return copy(buf, next), nil
		},
		open: func(string, bool) (int, error) {
			if k.openErr != nil {
				return -1, k.openErr
			}
			return 7, nil
		},
		read: func(fd int, buf []byte) (int, error) {
			if len(k.reads) == 0 {
				return 0, unix.EAGAIN
			}
			next := k.reads[0]
			k.reads = k.reads[1:]
			if next.err != nil {
				return 0, next.err
			}
			return copy(buf, next.data), nil
		},
		seek: func(fd int, toEnd bool) error {
			k.seekToEnd = append(k.seekToEnd, toEnd)
			return k.seekErr
		},
		isDevice: func(int) bool { return k.device },
		close: func(int) error {
			k.closeCalls++
			return nil
		},
		bootClock: func() (time.Duration, error) { return time.Hour, nil },
		now: func() time.Time {
			return time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
		},
	}
}
