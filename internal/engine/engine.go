package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
)

// ErrClosed is returned once the engine has been stopped.
var ErrClosed = errors.New("kernel log stream closed")

// Source is the read side of a kernel log backend.
type Source interface {
	Read() ([][]byte, error)
	Format() kmsg.Format
	Blocking() bool
}

// Engine turns a Source into an ordered sequence of entries.
type Engine struct {
	src     Source
	opts    Options
	logger  *slog.Logger
	clock   clock
	suspend suspender

	state atomic.Int32
	err   error

	queue []kmsg.Entry
	head  int

	// failures counts consecutive transient failures and drives the backoff
	// exponent; retries is checked against MaxRetries and skips would-block
	// only with IgnoreWouldBlock.
	failures  int
	retries   int
	delay     time.Duration
	lastRead  time.Time
	reads     int
	lastBatch int

	stopOnce sync.Once
	stopCh   chan struct{}
	stopped  atomic.Bool
}

// New validates opts and returns an Idle engine reading from src.
func New(src Source, opts Options, logger *slog.Logger) (*Engine, error) {
	return newEngine(src, opts, logger, realClock{})
}

func newEngine(src Source, opts Options, logger *slog.Logger, clk clock) (*Engine, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: engine requires a source", kmsg.ErrConfig)
	}
	resolved, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		src:    src,
		opts:   resolved,
		logger: logging.NewComponentLogger(logger, "poll-engine"),
		clock:  clk,
		stopCh: make(chan struct{}),
	}
	e.suspend = newSuspender(resolved.Mode, clk, e.stopCh)
	e.state.Store(int32(StateIdle))
	return e, nil
}

// State reports the current state. It is safe to call from any goroutine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Options returns the resolved options.
func (e *Engine) Options() Options {
	return e.opts
}

// Delay returns the current backoff delay, zero after a success.
func (e *Engine) Delay() time.Duration {
	return e.delay
}

// Stop requests termination. It is honoured at the next state boundary; a
// read already in flight completes and its records are discarded.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.stopped.Store(true)
		close(e.stopCh)
	})
}

// Next returns the next entry in arrival order. It waits through poll
// intervals and backoff delays using the configured suspension strategy and
// returns the terminal error once the engine is closed: ErrClosed after Stop,
// io.EOF at the end of a one-shot read, or the fatal backend error.
func (e *Engine) Next(ctx context.Context) (kmsg.Entry, error) {
	for {
		if e.stopped.Load() {
			e.close(ErrClosed)
		}
		if e.head < len(e.queue) {
			entry := e.queue[e.head]
			e.queue[e.head] = kmsg.Entry{}
			e.head++
			if e.head == len(e.queue) {
				e.queue, e.head = e.queue[:0], 0
			}
			return entry, nil
		}
		if e.State() == StateClosed {
			return kmsg.Entry{}, e.err
		}
		if err := ctx.Err(); err != nil {
			return kmsg.Entry{}, err
		}
		if err := e.step(ctx); err != nil {
			return kmsg.Entry{}, err
		}
	}
}

// step advances the state machine by one transition. It only returns an
// error when ctx ended during a wait; the state is left unchanged then.
func (e *Engine) step(ctx context.Context) error {
	switch e.State() {
	case StateIdle:
		if !e.opts.Follow {
			if e.reads > 0 && e.lastBatch == 0 {
				e.close(io.EOF)
				return nil
			}
		} else if !e.src.Blocking() && !e.lastRead.IsZero() {
			if wait := e.lastRead.Add(e.opts.PollInterval).Sub(e.clock.Now()); wait > 0 {
				if err := e.suspend.suspend(ctx, wait); err != nil {
					return err
				}
				if e.stopped.Load() {
					e.close(ErrClosed)
					return nil
				}
			}
		}
		e.transition(StateReading)
	case StateReading:
		e.read()
	case StateBackoff:
		if err := e.suspend.suspend(ctx, e.delay); err != nil {
			return err
		}
		if e.stopped.Load() {
			e.close(ErrClosed)
			return nil
		}
		e.transition(StateReading)
	}
	return nil
}

func (e *Engine) read() {
	records, err := e.src.Read()
	e.lastRead = e.clock.Now()
	if e.stopped.Load() {
		e.close(ErrClosed)
		return
	}
	if err != nil {
		e.readFailed(err)
		return
	}

	if e.failures > 0 {
		e.logger.Debug("kernel log read recovered",
			logging.String(logging.FieldEventType, "read_recovered"),
			logging.Int("failures", e.failures),
		)
	}
	e.failures, e.retries, e.delay = 0, 0, 0
	e.reads++
	e.lastBatch = len(records)

	format := e.src.Format()
	for _, raw := range records {
		entry, err := kmsg.Parse(format, raw)
		if err != nil {
			e.parseFailed(raw, err)
			continue
		}
		e.queue = append(e.queue, entry)
	}
	e.transition(StateIdle)
}

func (e *Engine) readFailed(err error) {
	if !kmsg.IsTransient(err) {
		e.fail(err)
		return
	}
	wouldBlock := errors.Is(err, kmsg.ErrWouldBlock)
	if wouldBlock && !e.opts.Follow {
		e.close(io.EOF)
		return
	}

	e.failures++
	if !wouldBlock || !e.opts.IgnoreWouldBlock {
		e.retries++
	}
	if e.opts.MaxRetries > 0 && e.retries > e.opts.MaxRetries {
		e.fail(fmt.Errorf("%w after %d consecutive failures: %w", kmsg.ErrRetriesExhausted, e.retries, err))
		return
	}

	e.delay = BackoffDelay(e.failures, e.opts.BaseBackoff, e.opts.MaxBackoff)
	if !wouldBlock {
		e.logger.Debug("transient kernel log read failure, backing off",
			logging.String(logging.FieldEventType, "read_backoff"),
			logging.Int("failures", e.failures),
			logging.Duration("delay", e.delay),
			logging.Error(err),
		)
	}
	e.transition(StateBackoff)
}

func (e *Engine) parseFailed(raw []byte, err error) {
	if e.opts.OnParseError != nil {
		e.opts.OnParseError(raw, err)
		return
	}
	e.logger.Debug("skipping malformed kernel log record",
		logging.String(logging.FieldEventType, "record_skipped"),
		logging.Int("bytes", len(raw)),
		logging.Error(err),
	)
}

func (e *Engine) fail(err error) {
	logging.ErrorWithContext(e.logger, "kernel log stream terminated", "stream_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check backend permissions and kernel log availability"),
	)
	e.close(err)
}

func (e *Engine) close(err error) {
	if e.State() == StateClosed {
		return
	}
	e.err = err
	if errors.Is(err, ErrClosed) {
		e.queue, e.head = nil, 0
	}
	e.transition(StateClosed)
}

func (e *Engine) transition(to State) {
	from := State(e.state.Swap(int32(to)))
	if e.opts.OnTransition != nil {
		e.opts.OnTransition(from, to)
	}
}
