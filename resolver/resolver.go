package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"lms/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
)

// ErrNotApplicable marks content that has no playable source (missing or zero
// identifiers, e.g. text content). No request is issued.
var ErrNotApplicable = errors.New("content has no playable source")

// ResolutionError wraps a failed signed-URL resolution. Recoverable by a
// user-triggered retry.
type ResolutionError struct {
	Reason string
	Err    error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source resolution failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("source resolution failed: %s", e.Reason)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// signedURLResponse is the content service payload
type signedURLResponse struct {
	URL       string    `json:"url" validate:"required,url"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

// Client fetches short-lived signed playback URLs from the content service.
// URLs expire, so results are never cached; every content selection resolves
// fresh.
type Client struct {
	http     *resty.Client
	apiKey   string
	validate *validator.Validate
}

// NewClient builds a resolver against the content service base URL
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		http:     resty.New().SetBaseURL(baseURL).SetTimeout(timeout),
		apiKey:   apiKey,
		validate: validator.New(),
	}
}

// Resolve exchanges the identifier triple for a signed time-limited URL.
// All identifiers must be non-zero or ErrNotApplicable is returned without a
// network call. Cancellation of ctx abandons the request.
func (c *Client) Resolve(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
	if courseID == 0 || moduleID == 0 || contentID == 0 {
		return nil, ErrNotApplicable
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.apiKey).
		SetQueryParams(map[string]string{
			"course_id":  strconv.FormatUint(uint64(courseID), 10),
			"module_id":  strconv.FormatUint(uint64(moduleID), 10),
			"content_id": strconv.FormatUint(uint64(contentID), 10),
		}).
		Get("/playback-url")
	if err != nil {
		log.Printf("[RESOLVER] request failed for content %d: %v", contentID, err)
		return nil, &ResolutionError{Reason: "network error", Err: err}
	}
	if resp.StatusCode() != 200 {
		log.Printf("[RESOLVER] content service returned %d for content %d", resp.StatusCode(), contentID)
		return nil, &ResolutionError{Reason: fmt.Sprintf("content service returned %d", resp.StatusCode())}
	}

	var payload signedURLResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return nil, &ResolutionError{Reason: "invalid response body", Err: err}
	}
	if err := c.validate.Struct(&payload); err != nil {
		return nil, &ResolutionError{Reason: "incomplete response body", Err: err}
	}

	return &models.ResolvedSource{URL: payload.URL, ExpiresAt: payload.ExpiresAt}, nil
}
