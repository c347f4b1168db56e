package logstream

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kernlog/internal/backend"
	"kernlog/internal/engine"
	"kernlog/internal/kmsg"
	"kernlog/internal/logging"
)

// ErrClosed is returned by Next once the reader has been closed.
var ErrClosed = engine.ErrClosed

// Options combines the backend, engine and filter settings of a Reader.
type Options struct {
	Backend backend.Options
	Engine  engine.Options
	Filters Filters
}

// Reader delivers parsed kernel log entries from one backend source.
type Reader struct {
	src     backend.Source
	eng     *engine.Engine
	filters Filters
	logger  *slog.Logger
	session string

	mu      sync.Mutex
	busy    bool
	closing bool

	closeOnce   sync.Once
	releaseOnce sync.Once
	releaseErr  error
}

// Open selects and opens a backend and starts a reader over it. One-shot
// reads (Engine.Follow false) always open the source non-blocking so the
// end of the retained buffer is observable.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	session := uuid.NewString()
	logger = logging.WithSessionID(logger, session)

	bopts := opts.Backend
	if !opts.Engine.Follow {
		bopts.NonBlocking = true
	}
	if bopts.Logger == nil {
		bopts.Logger = logger
	}
	src, err := backend.Open(bopts)
	if err != nil {
		return nil, err
	}
	r, err := newReader(src, opts.Engine, opts.Filters, logger, session)
	if err != nil {
		src.Close()
		return nil, err
	}
	return r, nil
}

// New starts a reader over an already opened source. The reader takes
// ownership of src and closes it on Close.
func New(src backend.Source, opts engine.Options, logger *slog.Logger) (*Reader, error) {
	session := uuid.NewString()
	return newReader(src, opts, Filters{}, logging.WithSessionID(logger, session), session)
}

func newReader(src backend.Source, opts engine.Options, filters Filters, logger *slog.Logger, session string) (*Reader, error) {
	eng, err := engine.New(src, opts, logger)
	if err != nil {
		return nil, err
	}
	r := &Reader{
		src:     src,
		eng:     eng,
		filters: filters,
		logger:  logging.NewComponentLogger(logger, "logstream"),
		session: session,
	}
	r.logger.Debug("kernel log reader started",
		logging.String(logging.FieldEventType, "reader_started"),
		logging.String(logging.FieldBackend, src.Format().String()),
		logging.Bool("follow", opts.Follow),
		logging.String("mode", eng.Options().Mode.String()),
	)
	return r, nil
}

// Next blocks until the next entry matching the reader's filters is
// available. It returns ErrClosed after Close, io.EOF at the end of a
// one-shot read, ctx.Err() when ctx ends during a wait, or the fatal
// backend error that terminated the stream.
func (r *Reader) Next(ctx context.Context) (kmsg.Entry, error) {
	r.mu.Lock()
	if r.closing {
		r.mu.Unlock()
		return kmsg.Entry{}, ErrClosed
	}
	r.busy = true
	r.mu.Unlock()
	defer r.leave()

	for {
		entry, err := r.eng.Next(ctx)
		if err != nil {
			return kmsg.Entry{}, err
		}
		if r.filters.Match(entry) {
			return entry, nil
		}
	}
}

// leave ends a Next call and releases the source if Close ran meanwhile.
func (r *Reader) leave() {
	r.mu.Lock()
	r.busy = false
	closing := r.closing
	r.mu.Unlock()
	if closing {
		r.release()
	}
}

// All returns a lazy sequence over the stream. The sequence ends silently
// on Close or at the end of a one-shot read. Any other terminating error is
// yielded once as the final element. Breaking out of the loop leaves the
// reader open.
func (r *Reader) All(ctx context.Context) iter.Seq2[kmsg.Entry, error] {
	return func(yield func(kmsg.Entry, error) bool) {
		for {
			entry, err := r.Next(ctx)
			if err != nil {
				if errors.Is(err, ErrClosed) || errors.Is(err, io.EOF) {
					return
				}
				yield(kmsg.Entry{}, err)
				return
			}
			if !yield(entry, nil) {
				return
			}
		}
	}
}

// Close stops the engine and releases the backend handle exactly once. It is
// safe to call from any goroutine and more than once. When a Next call is in
// progress the handle is released as soon as that call returns.
func (r *Reader) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.eng.Stop()
		r.mu.Lock()
		r.closing = true
		busy := r.busy
		r.mu.Unlock()
		if !busy {
			err = r.release()
		}
	})
	return err
}

func (r *Reader) release() error {
	r.releaseOnce.Do(func() {
		r.releaseErr = r.src.Close()
		r.logger.Debug("kernel log reader closed",
			logging.String(logging.FieldEventType, "reader_closed"),
		)
	})
	return r.releaseErr
}

// BootTime is the wall-clock boot reference captured when the source opened.
func (r *Reader) BootTime() time.Time {
	return r.src.BootTime()
}

// WallClock converts an entry's since-boot timestamp to wall-clock time. It
// returns the zero time when either the timestamp or the boot reference is
// unknown.
func (r *Reader) WallClock(e kmsg.Entry) time.Time {
	boot := r.src.BootTime()
	if !e.HasTimestamp || boot.IsZero() {
		return time.Time{}
	}
	return boot.Add(e.Timestamp)
}

// Backend reports the record format of the underlying source.
func (r *Reader) Backend() kmsg.Format {
	return r.src.Format()
}

// SessionID identifies this reader in diagnostic logs.
func (r *Reader) SessionID() string {
	return r.session
}

// State reports the engine state.
func (r *Reader) State() engine.State {
	return r.eng.State()
}
