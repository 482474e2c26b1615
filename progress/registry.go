package progress

import (
	"context"
	"log"
	"sync"
	"time"
)

// Registry hands out one Tracker per course so the module list and the player
// share a single completion cache with a single writer.
type Registry struct {
	baseURL string
	timeout time.Duration

	mu       sync.Mutex
	trackers map[uint]*Tracker
}

func NewRegistry(baseURL string, timeout time.Duration) *Registry {
	return &Registry{
		baseURL:  baseURL,
		timeout:  timeout,
		trackers: make(map[uint]*Tracker),
	}
}

// ForCourse returns the course tracker, creating and rehydrating it on first
// use. Rehydration runs in the background; until it lands the cache is simply
// empty, which only delays the confirmed view, never corrupts it.
func (r *Registry) ForCourse(courseID uint) *Tracker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.trackers[courseID]; ok {
		return t
	}

	t := NewTracker(r.baseURL, courseID, r.timeout)
	r.trackers[courseID] = t

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		if err := t.Rehydrate(ctx); err != nil {
			log.Printf("[PROGRESS] rehydrate failed for course %d: %v", courseID, err)
		}
	}()

	return t
}

// Wait drains in-flight mutations across every tracker. Called on shutdown.
func (r *Registry) Wait() {
	r.mu.Lock()
	trackers := make([]*Tracker, 0, len(r.trackers))
	for _, t := range r.trackers {
		trackers = append(trackers, t)
	}
	r.mu.Unlock()

	for _, t := range trackers {
		t.Wait()
	}
}
