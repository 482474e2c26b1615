package player

import (
	"sync"
	"time"
)

// activityTimer is a resettable single-shot delay driving controls auto-hide.
// Re-arming or cancelling bumps the generation so a timer that already fired
// but has not run yet becomes a no-op. Safe for use from multiple goroutines;
// the armed callback runs on the timer goroutine and must re-post into the
// session event loop itself.
type activityTimer struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// Arm schedules fn after d, cancelling any previously armed shot. fn is only
// invoked if no Arm or Cancel happened in between.
func (t *activityTimer) Arm(d time.Duration, fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	gen := t.gen
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(d, func() {
		t.mu.Lock()
		live := gen == t.gen
		t.mu.Unlock()
		if live {
			fn()
		}
	})
}

// Cancel stops any pending shot. A shot that already fired is suppressed.
func (t *activityTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
