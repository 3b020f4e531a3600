package game

import (
	"sync"
	"time"
)

// scheduledTask is a deferred, cancellable callback bound to a session.
// All methods must be called with the owning session's lock held; the callback
// itself runs with that lock re-acquired.
type scheduledTask struct {
	timer    *time.Timer
	deadline time.Time
	gen      uint64
}

// schedule arms the task to run fn after d. It is a no-op while the task is already
// pending. A non-positive delay runs fn immediately on the caller's goroutine.
func (t *scheduledTask) schedule(mu sync.Locker, d time.Duration, fn func()) bool {
	if t.timer != nil {
		return false
	}
	if d <= 0 {
		fn()
		return true
	}

	t.gen++
	gen := t.gen
	t.deadline = time.Now().Add(d)
	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		mu.Lock()
		defer mu.Unlock()
		// A cancel or re-schedule after this timer fired leaves a stale callback behind.
		if t.gen != gen || t.timer != timer {
			return
		}
		t.timer = nil
		fn()
	})
	t.timer = timer
	return true
}

// extend behaves like schedule, except that a pending run due before d from now is
// pushed back to that later deadline.
func (t *scheduledTask) extend(mu sync.Locker, d time.Duration, fn func()) {
	if t.timer != nil {
		if !time.Now().Add(d).After(t.deadline) {
			return
		}
		t.timer.Stop()
		t.timer = nil
	}
	t.schedule(mu, d, fn)
}

func (t *scheduledTask) pending() bool {
	return t.timer != nil
}

func (t *scheduledTask) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}
