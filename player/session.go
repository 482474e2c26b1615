package player

import (
	"context"
	"log"
	"time"

	"lms/models"
	"lms/utils"
)

// maxSeekFraction keeps explicit seeks strictly short of the end so a seek can
// never synthesize an ended state on its own.
const maxSeekFraction = 0.999999

// SourceResolver exchanges content identifiers for a signed playback URL
type SourceResolver interface {
	Resolve(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error)
}

// CompletionSink receives the ended-playback side effect. Implementations must
// be idempotent for already-completed content and must not block the caller on
// session teardown.
type CompletionSink interface {
	OnPlaybackEnded(moduleID, contentID uint)
}

// Params configures a new playback session
type Params struct {
	CourseID  uint
	ModuleID  uint
	ContentID uint
	Autoplay  bool
	ViewerKey string

	Surface    MediaSurface
	Resolver   SourceResolver
	Completion CompletionSink

	HideDelay        time.Duration // controls auto-hide window
	ProgressThrottle time.Duration // minimum interval between accepted progress events
}

// Session is the playback state machine for one open content item. All state
// lives on a single event loop; exported methods post operations onto it, so
// no two transitions ever interleave.
type Session struct {
	ID        string
	ViewerKey string

	courseID  uint
	moduleID  uint
	contentID uint
	autoplay  bool

	surface    MediaSurface
	resolver   SourceResolver
	completion CompletionSink

	hideDelay        time.Duration
	progressThrottle time.Duration

	ops    chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Event-loop-owned state. Never touched outside run().
	status          models.PlaybackStatus
	errorReason     string
	sourceURL       string
	sourceExpiresAt time.Time
	position        float64 // fraction [0,1]
	buffered        float64 // fraction [0,1]
	duration        float64 // seconds, 0 while unknown
	volume          float64
	muted           bool
	rate            float64
	fullscreen      bool
	controlsVisible bool
	lastActivityAt  time.Time
	lastProgressAt  time.Time

	resolveGen    uint64
	resolveCancel context.CancelFunc
	hideTimer     activityTimer
}

// NewSession creates the session and starts its event loop. The first
// resolution is kicked off immediately (Idle -> Resolving).
func NewSession(id string, p Params) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:               id,
		ViewerKey:        p.ViewerKey,
		courseID:         p.CourseID,
		moduleID:         p.ModuleID,
		contentID:        p.ContentID,
		autoplay:         p.Autoplay,
		surface:          p.Surface,
		resolver:         p.Resolver,
		completion:       p.Completion,
		hideDelay:        p.HideDelay,
		progressThrottle: p.ProgressThrottle,
		ops:              make(chan func(), 64),
		ctx:              ctx,
		cancel:           cancel,
		done:             make(chan struct{}),
		status:           models.StatusIdle,
		volume:           1,
		rate:             1,
		controlsVisible:  true,
		lastActivityAt:   time.Now(),
	}
	go s.run()
	s.post(s.resolveSource)
	return s
}

func (s *Session) run() {
	for {
		select {
		case op := <-s.ops:
			op()
		case <-s.ctx.Done():
			s.hideTimer.Cancel()
			if s.resolveCancel != nil {
				s.resolveCancel()
			}
			close(s.done)
			return
		}
	}
}

// post queues op without waiting; drops it if the session is closed. Used for
// async callbacks (timer fire, resolver result) that must not block.
func (s *Session) post(op func()) {
	select {
	case s.ops <- op:
	case <-s.ctx.Done():
	}
}

// call runs op on the event loop and waits for its result
func (s *Session) call(op func() error) error {
	res := make(chan error, 1)
	select {
	case s.ops <- func() { res <- op() }:
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	select {
	case err := <-res:
		return err
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
}

// Close tears the session down: the hide timer and any in-flight resolution
// are cancelled and no queued operation runs afterwards. An ended-completion
// mutation already handed to the CompletionSink keeps running in the
// background; teardown does not wait for it.
func (s *Session) Close() {
	s.cancel()
	<-s.done
}

// Closed reports whether the session has been torn down
func (s *Session) Closed() bool {
	select {
	case <-s.ctx.Done():
		return true
	default:
		return false
	}
}

// setStatus applies a transition and its controls-visibility consequence:
// any state other than Playing forces controls visible and disarms the hide timer.
func (s *Session) setStatus(next models.PlaybackStatus) {
	if s.status == next {
		return
	}
	log.Printf("[SESSION] %s: %s -> %s", s.ID, s.status, next)
	s.status = next
	if next != models.StatusPlaying {
		s.hideTimer.Cancel()
		s.controlsVisible = true
	}
}

// markActivity records user activity and, while playing, re-arms the hide timer
func (s *Session) markActivity() {
	s.lastActivityAt = time.Now()
	s.controlsVisible = true
	if s.status == models.StatusPlaying {
		s.armHideTimer()
	}
}

func (s *Session) armHideTimer() {
	armedAt := time.Now()
	s.hideTimer.Arm(s.hideDelay, func() {
		s.post(func() {
			// Hide only if still playing and nothing happened inside the window
			if s.status != models.StatusPlaying {
				return
			}
			if s.lastActivityAt.After(armedAt) {
				return
			}
			s.controlsVisible = false
		})
	})
}

// resolveSource supersedes any in-flight resolution and starts a fresh one.
// The generation counter guards against a stale result landing after a newer
// request or a content switch.
func (s *Session) resolveSource() {
	s.setStatus(models.StatusResolving)
	s.errorReason = ""
	s.sourceURL = ""
	s.sourceExpiresAt = time.Time{}
	s.resolveGen++
	gen := s.resolveGen

	if s.resolveCancel != nil {
		s.resolveCancel()
	}
	rctx, cancel := context.WithCancel(s.ctx)
	s.resolveCancel = cancel

	courseID, moduleID, contentID := s.courseID, s.moduleID, s.contentID
	go func() {
		src, err := s.resolver.Resolve(rctx, courseID, moduleID, contentID)
		s.post(func() {
			if gen != s.resolveGen {
				log.Printf("[SESSION] %s: discarding stale resolution result", s.ID)
				return
			}
			if err != nil {
				log.Printf("[SESSION] %s: source resolution failed: %v", s.ID, err)
				s.errorReason = err.Error()
				s.setStatus(models.StatusErrored)
				return
			}
			s.sourceURL = src.URL
			s.sourceExpiresAt = src.ExpiresAt
			s.setStatus(models.StatusReady)
			if s.autoplay {
				s.playLocked()
			}
		})
	}()
}

// playLocked runs on the event loop
func (s *Session) playLocked() {
	if s.status == models.StatusPlaying || s.status == models.StatusBuffering {
		return
	}
	if s.sourceURL == "" {
		log.Printf("[SESSION] %s: play ignored, no source resolved", s.ID)
		return
	}
	if s.status == models.StatusEnded {
		// Restart from the beginning
		s.position = 0
		s.surface.Seek(0)
	}
	s.surface.Play()
	s.setStatus(models.StatusPlaying)
	s.markActivity()
}

// Play starts playback. Idempotent; silently ignored without a resolved source.
func (s *Session) Play() error {
	return s.call(func() error {
		s.playLocked()
		return nil
	})
}

// Pause pauses playback. Idempotent; silently ignored without a resolved source.
func (s *Session) Pause() error {
	return s.call(func() error {
		if s.status != models.StatusPlaying && s.status != models.StatusBuffering {
			return nil
		}
		if s.sourceURL == "" {
			log.Printf("[SESSION] %s: pause ignored, no source resolved", s.ID)
			return nil
		}
		s.surface.Pause()
		s.setStatus(models.StatusPaused)
		s.markActivity()
		return nil
	})
}

// Seek jumps to a fraction of the duration. Input outside [0, 0.999999] is
// clamped, the local position updates immediately and the surface is asked to
// seek. Seeking out of Ended resumes playback.
func (s *Session) Seek(fraction float64) error {
	return s.call(func() error {
		if s.sourceURL == "" {
			log.Printf("[SESSION] %s: seek ignored, no source resolved", s.ID)
			return nil
		}
		if fraction < 0 {
			fraction = 0
		}
		if fraction > maxSeekFraction {
			fraction = maxSeekFraction
		}
		s.position = fraction
		s.surface.Seek(fraction)
		if s.status == models.StatusEnded {
			s.surface.Play()
			s.setStatus(models.StatusPlaying)
		}
		s.markActivity()
		return nil
	})
}

// Skip moves playback by deltaSeconds relative to the last position reported
// by the source, clamped to [0, duration].
func (s *Session) Skip(deltaSeconds float64) error {
	return s.call(func() error {
		if s.sourceURL == "" {
			log.Printf("[SESSION] %s: skip ignored, no source resolved", s.ID)
			return nil
		}
		if s.duration <= 0 {
			log.Printf("[SESSION] %s: skip ignored, duration unknown", s.ID)
			return nil
		}
		target := s.position*s.duration + deltaSeconds
		if target < 0 {
			target = 0
		}
		if target > s.duration {
			target = s.duration
		}
		fraction := target / s.duration
		if fraction > maxSeekFraction {
			fraction = maxSeekFraction
		}
		s.position = fraction
		s.surface.Seek(fraction)
		if s.status == models.StatusEnded {
			s.surface.Play()
			s.setStatus(models.StatusPlaying)
		}
		s.markActivity()
		return nil
	})
}

// SetVolume sets the output level. Zero implies muted; a positive level while
// muted is stored but does not unmute.
func (s *Session) SetVolume(level float64) error {
	return s.call(func() error {
		if level < 0 || level > 1 {
			err := &InputError{Field: "volume", Reason: "must be within [0,1]"}
			log.Printf("[SESSION] %s: %v", s.ID, err)
			return err
		}
		s.volume = level
		if level == 0 {
			s.muted = true
		}
		if s.muted {
			s.surface.SetVolume(0)
		} else {
			s.surface.SetVolume(level)
		}
		s.markActivity()
		return nil
	})
}

// SetMuted toggles mute explicitly. Unmuting restores the stored volume.
func (s *Session) SetMuted(muted bool) error {
	return s.call(func() error {
		s.muted = muted
		if muted {
			s.surface.SetVolume(0)
		} else {
			s.surface.SetVolume(s.volume)
		}
		s.markActivity()
		return nil
	})
}

// SetPlaybackRate accepts only the enumerated speeds
func (s *Session) SetPlaybackRate(rate float64) error {
	return s.call(func() error {
		if !models.IsAllowedPlaybackRate(rate) {
			err := &InputError{Field: "playback_rate", Reason: "not an allowed rate"}
			log.Printf("[SESSION] %s: %v", s.ID, err)
			return err
		}
		s.rate = rate
		s.surface.SetRate(rate)
		s.markActivity()
		return nil
	})
}

// SetFullscreen forwards the intent to the host. The local flag is only ever
// written by the host's fullscreen-change notification, never here.
func (s *Session) SetFullscreen(enter bool) error {
	return s.call(func() error {
		if enter {
			s.surface.RequestFullscreen()
		} else {
			s.surface.ExitFullscreen()
		}
		s.markActivity()
		return nil
	})
}

// Activity records a pointer/touch/keyboard event from the viewer
func (s *Session) Activity() error {
	return s.call(func() error {
		s.markActivity()
		return nil
	})
}

// Retry re-resolves the source after an error. A session in Errored state
// stays there until this is called.
func (s *Session) Retry() error {
	return s.call(func() error {
		s.resolveSource()
		return nil
	})
}

// EnsureFreshSource re-resolves when the signed URL is about to expire and the
// session is sitting idle on it (Ready or Paused). Called by the reaper.
func (s *Session) EnsureFreshSource(slack time.Duration) error {
	return s.call(func() error {
		if s.sourceURL == "" || s.sourceExpiresAt.IsZero() {
			return nil
		}
		if s.status != models.StatusReady && s.status != models.StatusPaused {
			return nil
		}
		if time.Until(s.sourceExpiresAt) > slack {
			return nil
		}
		log.Printf("[SESSION] %s: signed URL near expiry, re-resolving", s.ID)
		s.resolveSource()
		return nil
	})
}

// HandleSurfaceEvent applies one host media event to the machine
func (s *Session) HandleSurfaceEvent(ev SurfaceEvent) error {
	return s.call(func() error {
		switch ev.Kind {
		case EventProgress:
			// Throttled; dropping an update never changes the final state
			now := time.Now()
			if now.Sub(s.lastProgressAt) < s.progressThrottle {
				return nil
			}
			s.lastProgressAt = now
			if ev.PlayedFraction >= 0 && ev.PlayedFraction <= 1 {
				s.position = ev.PlayedFraction
			}
			if ev.BufferedFraction >= 0 && ev.BufferedFraction <= 1 {
				s.buffered = ev.BufferedFraction
			}
		case EventDurationKnown:
			if ev.DurationSeconds > 0 {
				s.duration = ev.DurationSeconds
			}
		case EventBuffering:
			// Starvation never interrupts Paused
			if s.status == models.StatusPlaying {
				s.setStatus(models.StatusBuffering)
			}
		case EventBufferingEnded:
			if s.status == models.StatusBuffering {
				s.setStatus(models.StatusPlaying)
			}
		case EventEnded:
			// A duplicate ended event finds the session already in Ended and
			// cannot re-fire the completion side effect
			if s.status != models.StatusPlaying && s.status != models.StatusBuffering {
				return nil
			}
			s.position = 1
			s.setStatus(models.StatusEnded)
			if s.completion != nil {
				moduleID, contentID := s.moduleID, s.contentID
				// Fire-and-background: the sink owns its own lifetime, so a
				// content switch right after ended cannot cancel the mutation.
				// The sink skips content already marked complete.
				go s.completion.OnPlaybackEnded(moduleID, contentID)
			}
		case EventError:
			// Errored is terminal: releasing the source keeps every transport
			// command a no-op until Retry re-resolves
			s.errorReason = ev.Reason
			s.sourceURL = ""
			s.sourceExpiresAt = time.Time{}
			s.setStatus(models.StatusErrored)
		case EventFullscreenChanged:
			// Sole writer of the fullscreen flag
			s.fullscreen = ev.Fullscreen
		default:
			err := &InputError{Field: "event", Reason: "unknown kind " + ev.Kind}
			log.Printf("[SESSION] %s: %v", s.ID, err)
			return err
		}
		return nil
	})
}

// Surface returns the media surface this session drives
func (s *Session) Surface() MediaSurface {
	return s.surface
}

// Snapshot returns a consistent read view of the session
func (s *Session) Snapshot() (models.SessionSnapshot, error) {
	var snap models.SessionSnapshot
	err := s.call(func() error {
		snap = models.SessionSnapshot{
			SessionID:        s.ID,
			CourseID:         s.courseID,
			ModuleID:         s.moduleID,
			ContentID:        s.contentID,
			Status:           s.status,
			ErrorReason:      s.errorReason,
			SourceURL:        s.sourceURL,
			PositionFraction: s.position,
			BufferedFraction: s.buffered,
			DurationSeconds:  s.duration,
			PositionDisplay:  utils.FormatPlaybackTime(s.position * s.duration),
			DurationDisplay:  utils.FormatPlaybackTime(s.duration),
			Volume:           s.volume,
			Muted:            s.muted,
			PlaybackRate:     s.rate,
			Fullscreen:       s.fullscreen,
			ControlsVisible:  s.controlsVisible,
			LastActivityAt:   s.lastActivityAt,
		}
		if !s.sourceExpiresAt.IsZero() {
			t := s.sourceExpiresAt
			snap.SourceExpiresAt = &t
		}
		return nil
	})
	return snap, err
}
