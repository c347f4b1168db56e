package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
)

// DefaultKmsgPath is the structured kernel log device.
const DefaultKmsgPath = "/dev/kmsg"

// Source is an open kernel log access mechanism.
type Source interface {
	// Read performs one read attempt and returns the raw records obtained,
	// in arrival order. Records are only valid until the next Read.
	Read() ([][]byte, error)
	// Format reports the wire format of the returned records.
	Format() kmsg.Format
	// Blocking reports whether Read waits in the kernel for new data.
	Blocking() bool
	// BootTime is the wall-clock boot reference captured at construction.
	BootTime() time.Time
	// Close releases the handle. Subsequent calls are no-ops.
	Close() error
}

// Kind selects the access mechanism.
type Kind int

const (
	KindAuto Kind = iota
	KindKlogctl
	KindDevKmsg
)

func (k Kind) String() string {
	switch k {
	case KindAuto:
		return "auto"
	case KindKlogctl:
		return "klogctl"
	case KindDevKmsg:
		return "devkmsg"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind resolves a backend name as used in configuration and flags.
func ParseKind(value string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "auto", "default":
		return KindAuto, nil
	case "klogctl", "klog", "syslog":
		return KindKlogctl, nil
	case "devkmsg", "kmsg":
		return KindDevKmsg, nil
	default:
		return KindAuto, fmt.Errorf("%w: unknown backend %q", kmsg.ErrConfig, value)
	}
}

// Options describes how a Source is opened.
type Options struct {
	Kind Kind
	// Clear selects the destructive read-and-clear action (klogctl only).
	Clear bool
	// Replay emits the retained history before following new records.
	Replay bool
	// NonBlocking opens /dev/kmsg with O_NONBLOCK.
	NonBlocking bool
	// Fallback allows an explicitly selected kind to fall back to the other
	// one when unsupported. KindAuto always falls back.
	Fallback bool
	KmsgPath string
	Logger   *slog.Logger
}

// Open constructs the Source described by opts.
func Open(opts Options) (Source, error) {
	return open(opts, defaultSys)
}

func open(opts Options, sys *sysCalls) (Source, error) {
	order, err := opts.candidates()
	if err != nil {
		return nil, err
	}
	logger := logging.NewComponentLogger(opts.Logger, "backend")

	var lastErr error
	for i, kind := range order {
		var src Source
		switch kind {
		case KindKlogctl:
			src, err = openKlog(opts, sys)
		case KindDevKmsg:
			src, err = openKmsg(opts, sys)
		}
		if err == nil {
			logger.Debug("kernel log backend opened",
				logging.String(logging.FieldEventType, "backend_opened"),
				logging.String(logging.FieldBackend, kind.String()),
				logging.Bool("clear", opts.Clear),
				logging.Bool("replay", opts.Replay),
			)
			return src, nil
		}
		lastErr = err
		if !errors.Is(err, kmsg.ErrUnsupported) || i == len(order)-1 {
			break
		}
		logger.Info("kernel log backend unsupported, trying fallback",
			logging.String(logging.FieldEventType, "backend_fallback"),
			logging.String(logging.FieldBackend, kind.String()),
			logging.String("fallback", order[i+1].String()),
			logging.Error(err),
		)
	}
	return nil, lastErr
}

// candidates returns the kinds to try, in order.
func (o Options) candidates() ([]Kind, error) {
	if o.Clear && !o.Replay {
		return nil, fmt.Errorf("%w: clear requires replay; the buffer would be discarded unread", kmsg.ErrConfig)
	}
	switch o.Kind {
	case KindAuto:
		if o.Clear {
			return []Kind{KindKlogctl}, nil
		}
		return []Kind{KindDevKmsg, KindKlogctl}, nil
	case KindKlogctl:
		if o.Fallback && !o.Clear {
			return []Kind{KindKlogctl, KindDevKmsg}, nil
		}
		return []Kind{KindKlogctl}, nil
	case KindDevKmsg:
		if o.Clear {
			return nil, fmt.Errorf("%w: clear is not supported by %s", kmsg.ErrConfig, KindDevKmsg)
		}
		if o.Fallback {
			return []Kind{KindDevKmsg, KindKlogctl}, nil
		}
		return []Kind{KindDevKmsg}, nil
	default:
		return nil, fmt.Errorf("%w: unknown backend kind %d", kmsg.ErrConfig, int(o.Kind))
	}
}

// bootReference returns the wall-clock time the system booted.
func bootReference(sys *sysCalls) time.Time {
	uptime, err := sys.bootClock()
	if err != nil {
		return time.Time{}
	}
	return sys.now().Add(-uptime)
}
