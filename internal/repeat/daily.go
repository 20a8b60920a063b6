package repeat

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/infrahq/trustlist/internal/timer"
)

// Daily runs a function once per calendar day at a local wall-clock time.
type Daily struct {
	Clock clock.Clock
	At    timer.TimeOfDay
	// Armed, when set, is called with the target time every time the schedule
	// is armed. The timer for the target already exists when Armed is called.
	Armed func(next time.Time)
}

// Start a goroutine which calls run at the next occurrence of d.At strictly
// after now, and then at the same wall-clock time on every following day.
// The next target is computed from the previous target, not from when run
// returned, so a slow or failed run never skips or repeats a day.
//
// The goroutine runs until ctx is cancelled. The returned channel is closed
// when the goroutine exits. Cancelling ctx does not wait for an in-flight
// call to run, which receives the same ctx.
func (d Daily) Start(ctx context.Context, run func(context.Context)) <-chan struct{} {
	clk := d.Clock
	if clk == nil {
		clk = clock.New()
	}

	done := make(chan struct{})
	go func() {
		defer close(done)

		next := timer.NextAfter(clk.Now(), d.At)
		for {
			t := clk.Timer(next.Sub(clk.Now()))
			if d.Armed != nil {
				d.Armed(next)
			}

			select {
			case <-t.C:
				run(ctx)
			case <-ctx.Done():
				t.Stop()
				return
			}

			next = timer.NextAfter(next, d.At)
		}
	}()
	return done
}
