package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"lms/models"

	"github.com/go-resty/resty/v2"
)

// ErrToggleInFlight rejects a toggle for a pair whose mutation is still being
// confirmed. Racing two toggles on the same boolean loses updates, so the
// second caller gets an immediate error and may retry.
var ErrToggleInFlight = errors.New("completion toggle already in flight for this content")

// MutationError wraps a rejected or failed completion mutation. Local state is
// untouched on failure, so a retry is always safe.
type MutationError struct {
	Reason string
	Err    error
}

func (e *MutationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("completion mutation failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("completion mutation failed: %s", e.Reason)
}

func (e *MutationError) Unwrap() error { return e.Err }

// Tracker reconciles the completed-content cache for one course with the
// learning API. The cache only ever holds server-confirmed state: a toggle is
// sent first and applied only from the authoritative response, never
// optimistically, so a failed mutation cannot leave a flipped flag behind.
type Tracker struct {
	http     *resty.Client
	courseID uint
	timeout  time.Duration

	mu         sync.Mutex
	completed  map[models.CompletionPair]struct{}
	percentage int
	inflight   map[models.CompletionPair]bool

	wg sync.WaitGroup
}

// NewTracker builds a tracker against the learning API base URL
func NewTracker(baseURL string, courseID uint, timeout time.Duration) *Tracker {
	return &Tracker{
		http:      resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		courseID:  courseID,
		timeout:   timeout,
		completed: make(map[models.CompletionPair]struct{}),
		inflight:  make(map[models.CompletionPair]bool),
	}
}

type toggleRequest struct {
	CourseID  uint `json:"course_id"`
	ModuleID  uint `json:"module_id"`
	ContentID uint `json:"content_id"`
	Completed bool `json:"completed"`
}

// ToggleCompletion requests the opposite of currentlyCompleted for the pair
// and, on success, replaces the local cache with the server's authoritative
// completed-set and percentage. Concurrent toggles on the same pair are
// rejected with ErrToggleInFlight.
func (t *Tracker) ToggleCompletion(ctx context.Context, moduleID, contentID uint, currentlyCompleted bool) (*models.CompletionMutationResult, error) {
	pair := models.CompletionPair{ModuleID: moduleID, ContentID: contentID}

	t.mu.Lock()
	if t.inflight[pair] {
		t.mu.Unlock()
		return nil, ErrToggleInFlight
	}
	t.inflight[pair] = true
	t.mu.Unlock()
	t.wg.Add(1)
	defer func() {
		t.mu.Lock()
		delete(t.inflight, pair)
		t.mu.Unlock()
		t.wg.Done()
	}()

	resp, err := t.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(toggleRequest{
			CourseID:  t.courseID,
			ModuleID:  moduleID,
			ContentID: contentID,
			Completed: !currentlyCompleted,
		}).
		Post("/completions/toggle")
	if err != nil {
		log.Printf("[PROGRESS] toggle failed for content %d: %v", contentID, err)
		return nil, &MutationError{Reason: "network error", Err: err}
	}
	if resp.StatusCode() != 200 {
		log.Printf("[PROGRESS] learning API returned %d for content %d", resp.StatusCode(), contentID)
		return nil, &MutationError{Reason: fmt.Sprintf("learning API returned %d", resp.StatusCode())}
	}

	var result models.CompletionMutationResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, &MutationError{Reason: "invalid response body", Err: err}
	}

	t.applyResult(&result)
	return &result, nil
}

// applyResult replaces the cache wholesale; the server response is the single
// source of truth post-mutation. Applying the same result twice is a no-op.
func (t *Tracker) applyResult(result *models.CompletionMutationResult) {
	fresh := make(map[models.CompletionPair]struct{}, len(result.CompletedContentPairs))
	for _, pair := range result.CompletedContentPairs {
		fresh[pair] = struct{}{}
	}
	t.mu.Lock()
	t.completed = fresh
	t.percentage = result.ProgressPercentage
	t.mu.Unlock()
}

// OnPlaybackEnded marks just-finished content complete unless it already is.
// Runs on its own deadline detached from the session, so a content switch
// right after the ended event cannot cancel the mutation. Implements
// player.CompletionSink.
func (t *Tracker) OnPlaybackEnded(moduleID, contentID uint) {
	pair := models.CompletionPair{ModuleID: moduleID, ContentID: contentID}
	if t.IsCompleted(pair) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()
	if _, err := t.ToggleCompletion(ctx, moduleID, contentID, false); err != nil {
		if errors.Is(err, ErrToggleInFlight) {
			return
		}
		log.Printf("[PROGRESS] auto-completion failed for content %d: %v", contentID, err)
	}
}

// Rehydrate seeds the cache from the server on view entry
func (t *Tracker) Rehydrate(ctx context.Context) error {
	resp, err := t.http.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/courses/%d/progress", t.courseID))
	if err != nil {
		return &MutationError{Reason: "network error", Err: err}
	}
	if resp.StatusCode() != 200 {
		return &MutationError{Reason: fmt.Sprintf("learning API returned %d", resp.StatusCode())}
	}
	var result models.CompletionMutationResult
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return &MutationError{Reason: "invalid response body", Err: err}
	}
	t.applyResult(&result)
	return nil
}

// IsCompleted reports whether the pair is in the confirmed completed-set
func (t *Tracker) IsCompleted(pair models.CompletionPair) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.completed[pair]
	return ok
}

// CompletedPairs returns a copy of the confirmed completed-set
func (t *Tracker) CompletedPairs() []models.CompletionPair {
	t.mu.Lock()
	defer t.mu.Unlock()
	pairs := make([]models.CompletionPair, 0, len(t.completed))
	for pair := range t.completed {
		pairs = append(pairs, pair)
	}
	return pairs
}

// ServerPercentage returns the last server-confirmed progress percentage
func (t *Tracker) ServerPercentage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percentage
}

// SnapshotFor computes the aggregate over a module listing and the confirmed
// completed-set
func (t *Tracker) SnapshotFor(modules []models.CourseModule) models.ProgressSnapshot {
	t.mu.Lock()
	completed := make(map[models.CompletionPair]struct{}, len(t.completed))
	for pair := range t.completed {
		completed[pair] = struct{}{}
	}
	t.mu.Unlock()
	return ComputeProgress(modules, completed)
}

// Wait blocks until every in-flight mutation has settled. Called on graceful
// shutdown so background ended-completions are not lost with the process.
func (t *Tracker) Wait() {
	t.wg.Wait()
}
