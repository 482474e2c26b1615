package models

import "time"

// PlaybackStatus represents the lifecycle state of a playback session
type PlaybackStatus string

const (
	StatusIdle      PlaybackStatus = "IDLE"
	StatusResolving PlaybackStatus = "RESOLVING"
	StatusReady     PlaybackStatus = "READY"
	StatusPlaying   PlaybackStatus = "PLAYING"
	StatusPaused    PlaybackStatus = "PAUSED"
	StatusBuffering PlaybackStatus = "BUFFERING"
	StatusEnded     PlaybackStatus = "ENDED"
	StatusErrored   PlaybackStatus = "ERRORED"
)

// AllowedPlaybackRates is the fixed set of accepted playback speeds
var AllowedPlaybackRates = []float64{0.5, 0.75, 1, 1.25, 1.5, 1.75, 2}

// IsAllowedPlaybackRate reports whether rate is one of the enumerated speeds
func IsAllowedPlaybackRate(rate float64) bool {
	for _, r := range AllowedPlaybackRates {
		if r == rate {
			return true
		}
	}
	return false
}

// ResolvedSource is a signed, time-limited playback URL from the content service
type ResolvedSource struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionSnapshot is the read view of a playback session returned to the dashboard
type SessionSnapshot struct {
	SessionID string `json:"session_id"`
	CourseID  uint   `json:"course_id"`
	ModuleID  uint   `json:"module_id"`
	ContentID uint   `json:"content_id"`

	Status      PlaybackStatus `json:"status"`
	ErrorReason string         `json:"error_reason,omitempty"`

	SourceURL       string     `json:"source_url,omitempty"`
	SourceExpiresAt *time.Time `json:"source_expires_at,omitempty"`

	PositionFraction float64   `json:"position_fraction"`
	BufferedFraction float64   `json:"buffered_fraction"`
	DurationSeconds  float64   `json:"duration_seconds"`
	PositionDisplay  string    `json:"position_display"` // e.g. "4:05" or "1:04:05"
	DurationDisplay  string    `json:"duration_display"`
	Volume           float64   `json:"volume"`
	Muted            bool      `json:"muted"`
	PlaybackRate     float64   `json:"playback_rate"`
	Fullscreen       bool      `json:"fullscreen"`
	ControlsVisible  bool      `json:"controls_visible"`
	LastActivityAt   time.Time `json:"last_activity_at"`
}
