package backend

import (
	"errors"

	"golang.org/x/sys/unix"

	"kernlog/internal/kmsg"
)

var unsupportedErrnos = []unix.Errno{unix.ENOENT, unix.ENODEV, unix.ENXIO, unix.ENOSYS, unix.EOPNOTSUPP}

// classifyOpen maps a construction failure onto the error taxonomy.
func classifyOpen(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return kmsg.Wrap(kmsg.ErrPermission, op, err)
	case isUnsupported(err):
		return kmsg.Wrap(kmsg.ErrUnsupported, op, err)
	default:
		return kmsg.Wrap(kmsg.ErrFatal, op, err)
	}
}

// classifyRead maps a per-read failure onto the error taxonomy.
func classifyRead(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EINTR):
		return kmsg.Wrap(kmsg.ErrTransient, op, err)
	case errors.Is(err, unix.EAGAIN):
		return kmsg.Wrap(kmsg.ErrWouldBlock, op, err)
	case errors.Is(err, unix.EPIPE):
		return kmsg.Wrap(kmsg.ErrRecordsLost, op, err)
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES):
		return kmsg.Wrap(kmsg.ErrPermission, op, err)
	default:
		return kmsg.Wrap(kmsg.ErrFatal, op, err)
	}
}

func isUnsupported(err error) bool {
	for _, errno := range unsupportedErrnos {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}
