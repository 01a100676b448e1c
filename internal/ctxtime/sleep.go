// Package ctxtime provides context-aware waiting primitives used by the
// credential store's expiration timer.
package ctxtime

import (
	"context"
	"time"
)

// Sleep blocks until d elapses or ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if ctx == nil || d <= 0 {
		time.Sleep(d)
		return nil
	}

	t := time.NewTimer(d)
	select {
	case <-ctx.Done():
		t.Stop()
		return ctx.Err()
	case <-t.C:
	}
	return nil
}

// Timer is a cancellable one-shot timer: exactly one call to f will run,
// either when d elapses or never, if Stop is called first.
type Timer struct {
	t *time.Timer
}

// AfterFunc schedules f to run once after d. The returned Timer's Stop
// method cancels the call if it has not run yet.
func AfterFunc(d time.Duration, f func()) *Timer {
	return &Timer{t: time.AfterFunc(d, f)}
}

// Stop cancels the pending call. It is safe to call Stop more than once and
// on a nil *Timer.
func (t *Timer) Stop() {
	if t == nil || t.t == nil {
		return
	}
	t.t.Stop()
}
