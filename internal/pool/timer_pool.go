// Package pool provides pooled timers and the context aware sleep built on them.
//
// Every wait of an aging run (post-send response wait, the long aging wait and the
// inter-cycle pause) goes through Sleep, so an interrupt is observed as soon as the
// run context is cancelled instead of at the end of a multi-minute wait.
package pool

import (
	"context"
	"sync"
	"time"
)

var timerPool sync.Pool

// GetTimer returns a stopped-and-reset timer firing after d.
//
// Return the timer to the pool with PutTimer.
func GetTimer(d time.Duration) *time.Timer {
	v := timerPool.Get()
	if v == nil {
		return time.NewTimer(d)
	}

	t, _ := v.(*time.Timer) // only *time.Timer is ever put into the pool
	if t.Reset(d) {
		// t was still armed; drop a stale expiry so the caller only sees the new one.
		select {
		case <-t.C:
		default:
		}
	}

	return t
}

// PutTimer stops t and returns it to the pool.
//
// t cannot be accessed after returning to the pool.
func PutTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	timerPool.Put(t)
}

// Sleep blocks for d or until ctx is done, whichever comes first.
//
// It returns ctx.Err() when the wait was interrupted and nil otherwise.
// A non-positive d only checks ctx.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := GetTimer(d)
	defer PutTimer(t)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SleepProgress sleeps for d in slices of at most every, calling report with the
// remaining duration at the start of each slice. It stops early with ctx.Err()
// when ctx is done.
func SleepProgress(ctx context.Context, d, every time.Duration, report func(remaining time.Duration)) error {
	if every <= 0 {
		every = d
	}

	for remaining := d; remaining > 0; remaining -= every {
		if report != nil {
			report(remaining)
		}

		if err := Sleep(ctx, min(every, remaining)); err != nil {
			return err
		}
	}

	return ctx.Err()
}
