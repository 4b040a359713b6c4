package shared

import (
	"context"
	"time"
)

// Clock abstracts wall-clock access and timer scheduling so that undo
// windows, retry backoff, and poll delays can be driven deterministically
// in tests instead of sleeping on real time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// AfterFunc schedules fn to run on its own goroutine after d and
	// returns a cancellable handle. fn may fire concurrently with a
	// Stop call; callers must re-check their own state when it runs.
	AfterFunc(d time.Duration, fn func()) Timer

	// Sleep blocks for d or until ctx is cancelled, returning ctx.Err()
	// in the cancelled case.
	Sleep(ctx context.Context, d time.Duration) error
}

// Timer is a handle to a scheduled task created by [Clock.AfterFunc].
type Timer interface {
	// Stop cancels the timer. Returns false if it already fired or was
	// already stopped.
	Stop() bool
}

// NewClock returns a [Clock] backed by the time package.
func NewClock() Clock {
	return systemClock{}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return systemTimer{t: time.AfterFunc(d, fn)}
}

func (systemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type systemTimer struct {
	t *time.Timer
}

func (s systemTimer) Stop() bool { return s.t.Stop() }
