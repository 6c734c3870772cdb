package match

import (
	"sync"
	"time"
)

// Timer is a cancellable delayed callback. Scheduling always cancels
// any prior pending callback, so at most one callback per Timer is ever
// outstanding. A callback that fires after it has been superseded or
// stopped is a no-op, even if it had already been dequeued by the
// runtime when the cancellation happened.
//
// Each session owns exactly two Timers: the main state-transition timer
// and the bot-action timer.
type Timer struct {
	mu    sync.Mutex
	gen   uint64
	timer *time.Timer
}

// Schedule arranges for fn to run after d, cancelling any previously
// scheduled callback on this Timer.
//
// Precondition: fn must not be nil.
// Postcondition: Exactly one of the callbacks ever scheduled on this
// Timer is pending.
func (t *Timer) Schedule(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := t.gen == gen
		t.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Stop cancels any pending callback. Safe to call multiple times and
// safe to call when nothing is scheduled.
//
// Postcondition: No previously scheduled callback will run after Stop
// returns.
func (t *Timer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
}
