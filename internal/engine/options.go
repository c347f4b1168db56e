package engine

import (
	"fmt"
	"strings"
	"time"

	"kernlog/internal/kmsg"
)

const (
	DefaultPollInterval = time.Second
	DefaultBaseBackoff  = 100 * time.Millisecond
	DefaultMaxBackoff   = 5 * time.Second
)

// Mode is the suspension strategy used while the engine waits.
type Mode int

const (
	// ModeBlocking parks the calling goroutine for the whole delay; a stop
	// request is noticed once the delay has elapsed.
	ModeBlocking Mode = iota
	// ModeCooperative waits in a select and wakes early on context
	// cancellation or a stop request.
	ModeCooperative
)

func (m Mode) String() string {
	switch m {
	case ModeBlocking:
		return "blocking"
	case ModeCooperative:
		return "cooperative"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name from configuration.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "cooperative", "async", "suspend":
		return ModeCooperative, nil
	case "blocking", "sync":
		return ModeBlocking, nil
	default:
		return ModeCooperative, fmt.Errorf("%w: unknown follow mode %q", kmsg.ErrConfig, value)
	}
}

// Options configures an Engine. Zero durations take the package defaults.
type Options struct {
	// PollInterval spaces read attempts started from Idle on sources
	// without a blocking wait.
	PollInterval time.Duration
	BaseBackoff  time.Duration
	MaxBackoff   time.Duration
	// MaxRetries bounds consecutive transient failures, would-block
	// included. Zero means unbounded.
	MaxRetries int
	// IgnoreWouldBlock keeps would-block results out of the MaxRetries
	// budget. They still back off.
	IgnoreWouldBlock bool
	// Follow keeps reading after the first batch. When false the engine
	// reports io.EOF once the first successful read has been drained.
	Follow bool
	Mode   Mode

	// OnParseError observes records that failed to parse. They are always
	// skipped.
	OnParseError func(raw []byte, err error)
	// OnTransition observes every state change.
	OnTransition func(from, to State)
}

func (o Options) withDefaults() (Options, error) {
	if o.PollInterval < 0 || o.BaseBackoff < 0 || o.MaxBackoff < 0 {
		return o, fmt.Errorf("%w: durations must not be negative", kmsg.ErrConfig)
	}
	if o.MaxRetries < 0 {
		return o, fmt.Errorf("%w: max_retries must not be negative", kmsg.ErrConfig)
	}
	if o.Mode != ModeBlocking && o.Mode != ModeCooperative {
		return o, fmt.Errorf("%w: unknown mode %d", kmsg.ErrConfig, int(o.Mode))
	}
	if o.PollInterval == 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.BaseBackoff == 0 {
		o.BaseBackoff = DefaultBaseBackoff
	}
	if o.MaxBackoff == 0 {
		o.MaxBackoff = DefaultMaxBackoff
		if o.MaxBackoff < o.BaseBackoff {
			o.MaxBackoff = o.BaseBackoff
		}
	}
	if o.MaxBackoff < o.BaseBackoff {
		return o, fmt.Errorf("%w: max_backoff %s is below base_backoff %s", kmsg.ErrConfig, o.MaxBackoff, o.BaseBackoff)
	}
	return o, nil
}

// BackoffDelay returns the delay after n consecutive transient failures:
// min(base * 2^(n-1), max).
func BackoffDelay(n int, base, maxDelay time.Duration) time.Duration {
	if n <= 0 || base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < n; i++ {
		if delay >= maxDelay/2 {
			return maxDelay
		}
		delay *= 2
	}
	if delay > maxDelay {
		return maxDelay
	}
	return delay
}
