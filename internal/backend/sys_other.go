//go:build !linux

package backend

import (
	"time"

	"golang.org/x/sys/unix"
)

const (
	syslogActionReadAll    = 3
	syslogActionReadClear  = 4
	syslogActionSizeBuffer = 10
)

type sysCalls struct {
	klogctl   func(action int, buf []byte) (int, error)
	open      func(path string, nonBlocking bool) (int, error)
	read      func(fd int, buf []byte) (int, error)
	seek      func(fd int, toEnd bool) error
	isDevice  func(fd int) bool
	close     func(fd int) error
	bootClock func() (time.Duration, error)
	now       func() time.Time
}

// The kernel ring buffer interfaces only exist on Linux.
var defaultSys = &sysCalls{
	klogctl:   func(int, []byte) (int, error) { return 0, unix.ENOSYS },
	open:      func(string, bool) (int, error) { return -1, unix.ENOSYS },
	read:      func(int, []byte) (int, error) { return 0, unix.ENOSYS },
	seek:      func(int, bool) error { return unix.ENOSYS },
	isDevice:  func(int) bool { return false },
	close:     func(int) error { return nil },
	bootClock: func() (time.Duration, error) { return 0, unix.ENOSYS },
	now:       time.Now,
}
