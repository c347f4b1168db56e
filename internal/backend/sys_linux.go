//go:build linux

package backend

import (
	"time"

	"golang.org/x/sys/unix"
)

// syslog(2) actions, see include/linux/syslog.h.
const (
	syslogActionReadAll    = 3
	syslogActionReadClear  = 4
	syslogActionSizeBuffer = 10
)

// sysCalls isolates the kernel boundary so sources can be exercised in tests.
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

var defaultSys = &sysCalls{
	klogctl: unix.Klogctl,
	open: func(path string, nonBlocking bool) (int, error) {
		flags := unix.O_RDONLY | unix.O_CLOEXEC
		if nonBlocking {
			flags |= unix.O_NONBLOCK
		}
		return unix.Open(path, flags, 0)
	},
	read: unix.Read,
	seek: func(fd int, toEnd bool) error {
		// SEEK_DATA positions /dev/kmsg after the last syslog clear, which is
		// what dmesg(1) replays.
		whence := unix.SEEK_DATA
		if toEnd {
			whence = unix.SEEK_END
		}
		_, err := unix.Seek(fd, 0, whence)
		return err
	},
	isDevice: func(fd int) bool {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			return true
		}
		return st.Mode&unix.S_IFMT == unix.S_IFCHR
	},
	close: unix.Close,
	bootClock: func() (time.Duration, error) {
		var ts unix.Timespec
		if err := unix.ClockGettime(unix.CLOCK_BOOTTIME, &ts); err != nil {
			return 0, err
		}
		return time.Duration(ts.Nano()), nil
	},
	now: time.Now,
}
