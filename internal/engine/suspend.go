package engine

import (
	"context"
	"time"
)

type clock interface {
	Now() time.Time
	Sleep(d time.Duration)
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) Sleep(d time.Duration)                  { time.Sleep(d) }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// suspender is how the engine gives up control while it waits for the poll
// interval or a backoff delay.
type suspender interface {
	suspend(ctx context.Context, d time.Duration) error
}

type blockingSuspender struct {
	clock clock
}

func (s blockingSuspender) suspend(_ context.Context, d time.Duration) error {
	if d > 0 {
		s.clock.Sleep(d)
	}
	return nil
}

type cooperativeSuspender struct {
	clock clock
	stop  <-chan struct{}
}

func (s cooperativeSuspender) suspend(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stop:
		return nil
	case <-s.clock.After(d):
		return nil
	}
}

func newSuspender(mode Mode, clk clock, stop <-chan struct{}) suspender {
	if mode == ModeBlocking {
		return blockingSuspender{clock: clk}
	}
	return cooperativeSuspender{clock: clk, stop: stop}
}
