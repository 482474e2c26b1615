package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSurface records the commands the session issues
type fakeSurface struct {
	mu   sync.Mutex
	cmds []SurfaceCommand
}

func (f *fakeSurface) record(action string, value float64) error {
	f.mu.Lock()
	f.cmds = append(f.cmds, SurfaceCommand{Action: action, Value: value})
	f.mu.Unlock()
	return nil
}

func (f *fakeSurface) Play() error                   { return f.record(CmdPlay, 0) }
func (f *fakeSurface) Pause() error                  { return f.record(CmdPause, 0) }
func (f *fakeSurface) Seek(fraction float64) error   { return f.record(CmdSeek, fraction) }
func (f *fakeSurface) SetVolume(level float64) error { return f.record(CmdSetVolume, level) }
func (f *fakeSurface) SetRate(rate float64) error    { return f.record(CmdSetRate, rate) }
func (f *fakeSurface) RequestFullscreen() error      { return f.record(CmdRequestFullscreen, 0) }
func (f *fakeSurface) ExitFullscreen() error         { return f.record(CmdExitFullscreen, 0) }

func (f *fakeSurface) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.cmds))
	for i, cmd := range f.cmds {
		out[i] = cmd.Action
	}
	return out
}

func (f *fakeSurface) count(action string) int {
	n := 0
	for _, a := range f.actions() {
		if a == action {
			n++
		}
	}
	return n
}

// resolverFunc adapts a function to the SourceResolver interface
type resolverFunc func(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error)

func (f resolverFunc) Resolve(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
	return f(ctx, courseID, moduleID, contentID)
}

func instantResolver(url string) resolverFunc {
	return func(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
		return &models.ResolvedSource{URL: url, ExpiresAt: time.Now().Add(time.Hour)}, nil
	}
}

func blockedResolver() resolverFunc {
	return func(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
}

// completionCounter counts ended-completion notifications
type completionCounter struct {
	mu    sync.Mutex
	calls int
}

func (c *completionCounter) OnPlaybackEnded(moduleID, contentID uint) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *completionCounter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func newTestSession(t *testing.T, p Params) *Session {
	t.Helper()
	if p.Surface == nil {
		p.Surface = &fakeSurface{}
	}
	if p.Resolver == nil {
		p.Resolver = instantResolver("https://cdn.example.com/v.m3u8?sig=abc")
	}
	if p.CourseID == 0 {
		p.CourseID, p.ModuleID, p.ContentID = 1, 2, 3
	}
	if p.HideDelay == 0 {
		p.HideDelay = 50 * time.Millisecond
	}
	s := NewSession("test-session", p)
	t.Cleanup(s.Close)
	return s
}

func status(t *testing.T, s *Session) models.PlaybackStatus {
	t.Helper()
	snap, err := s.Snapshot()
	require.NoError(t, err)
	return snap.Status
}

func waitForStatus(t *testing.T, s *Session, want models.PlaybackStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		return status(t, s) == want
	}, time.Second, 5*time.Millisecond, "expected status %s", want)
}

func TestResolutionReadyThenPlay(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface})

	waitForStatus(t, s, models.StatusReady)
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/v.m3u8?sig=abc", snap.SourceURL)

	require.NoError(t, s.Play())
	assert.Equal(t, models.StatusPlaying, status(t, s))
	assert.Equal(t, 1, surface.count(CmdPlay))

	// Idempotent: a second play is a no-op
	require.NoError(t, s.Play())
	assert.Equal(t, 1, surface.count(CmdPlay))
}

func TestPlayWithoutSourceNeverEntersPlaying(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface, Resolver: blockedResolver()})

	waitForStatus(t, s, models.StatusResolving)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Play())
		require.NoError(t, s.Pause())
	}

	assert.NotEqual(t, models.StatusPlaying, status(t, s))
	assert.Equal(t, 0, surface.count(CmdPlay))
}

func TestResolutionFailureIsErroredUntilRetry(t *testing.T) {
	failing := true
	var mu sync.Mutex
	res := resolverFunc(func(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
		mu.Lock()
		defer mu.Unlock()
		if failing {
			return nil, context.DeadlineExceeded
		}
		return &models.ResolvedSource{URL: "https://cdn.example.com/v2", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	s := newTestSession(t, Params{Resolver: res})

	waitForStatus(t, s, models.StatusErrored)
	require.NoError(t, s.Play())
	assert.Equal(t, models.StatusErrored, status(t, s))

	mu.Lock()
	failing = false
	mu.Unlock()
	require.NoError(t, s.Retry())
	waitForStatus(t, s, models.StatusReady)
}

func TestStaleResolutionResultDiscarded(t *testing.T) {
	release := make(chan struct{})
	var call int
	var mu sync.Mutex
	res := resolverFunc(func(ctx context.Context, courseID, moduleID, contentID uint) (*models.ResolvedSource, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		if n == 1 {
			// First resolution is slow and lands after being superseded
			<-release
			return &models.ResolvedSource{URL: "https://cdn.example.com/stale", ExpiresAt: time.Now().Add(time.Hour)}, nil
		}
		return &models.ResolvedSource{URL: "https://cdn.example.com/fresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
	})
	s := newTestSession(t, Params{Resolver: res})

	waitForStatus(t, s, models.StatusResolving)
	require.NoError(t, s.Retry())
	waitForStatus(t, s, models.StatusReady)

	close(release)
	time.Sleep(20 * time.Millisecond)

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/fresh", snap.SourceURL)
}

func TestSeekClamping(t *testing.T) {
	s := newTestSession(t, Params{})
	waitForStatus(t, s, models.StatusReady)

	for _, input := range []float64{2.5, 1.0, 0.9999999} {
		require.NoError(t, s.Seek(input))
		snap, err := s.Snapshot()
		require.NoError(t, err)
		assert.InDelta(t, 0.999999, snap.PositionFraction, 1e-9, "input=%v", input)
	}

	require.NoError(t, s.Seek(-3))
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.PositionFraction)

	// Seek does not change status on its own
	assert.Equal(t, models.StatusReady, snap.Status)
}

func TestSkipClampsToDuration(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventDurationKnown, DurationSeconds: 100}))
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventProgress, PlayedFraction: 0.5}))

	require.NoError(t, s.Skip(30))
	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.InDelta(t, 0.8, snap.PositionFraction, 1e-9)

	require.NoError(t, s.Skip(1000))
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.InDelta(t, 0.999999, snap.PositionFraction, 1e-6)

	require.NoError(t, s.Skip(-1000))
	snap, err = s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.PositionFraction)
}

func TestVolumeAndMuteSemantics(t *testing.T) {
	s := newTestSession(t, Params{})
	waitForStatus(t, s, models.StatusReady)

	// Zero volume implies muted
	require.NoError(t, s.SetVolume(0))
	snap, _ := s.Snapshot()
	assert.True(t, snap.Muted)

	// Positive volume while muted does not auto-unmute
	require.NoError(t, s.SetVolume(0.6))
	snap, _ = s.Snapshot()
	assert.True(t, snap.Muted)
	assert.Equal(t, 0.6, snap.Volume)

	// Explicit unmute required
	require.NoError(t, s.SetMuted(false))
	snap, _ = s.Snapshot()
	assert.False(t, snap.Muted)
	assert.Equal(t, 0.6, snap.Volume)

	// Out-of-range level is an input error and changes nothing
	err := s.SetVolume(1.5)
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	snap, _ = s.Snapshot()
	assert.Equal(t, 0.6, snap.Volume)
}

func TestPlaybackRateEnum(t *testing.T) {
	s := newTestSession(t, Params{})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.SetPlaybackRate(1.5))
	snap, _ := s.Snapshot()
	assert.Equal(t, 1.5, snap.PlaybackRate)

	err := s.SetPlaybackRate(1.3)
	require.Error(t, err)
	assert.True(t, IsInputError(err))
	snap, _ = s.Snapshot()
	assert.Equal(t, 1.5, snap.PlaybackRate)
}

func TestFullscreenMirrorsHostOnly(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface})
	waitForStatus(t, s, models.StatusReady)

	// A request is an intent, never an assertion
	require.NoError(t, s.SetFullscreen(true))
	snap, _ := s.Snapshot()
	assert.False(t, snap.Fullscreen)
	assert.Equal(t, 1, surface.count(CmdRequestFullscreen))

	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventFullscreenChanged, Fullscreen: true}))
	snap, _ = s.Snapshot()
	assert.True(t, snap.Fullscreen)

	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventFullscreenChanged, Fullscreen: false}))
	snap, _ = s.Snapshot()
	assert.False(t, snap.Fullscreen)
}

func TestBufferingNeverInterruptsPaused(t *testing.T) {
	s := newTestSession(t, Params{})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.Play())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventBuffering}))
	assert.Equal(t, models.StatusBuffering, status(t, s))
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventBufferingEnded}))
	assert.Equal(t, models.StatusPlaying, status(t, s))

	require.NoError(t, s.Pause())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventBuffering}))
	assert.Equal(t, models.StatusPaused, status(t, s))
}

func TestEndedFiresCompletionExactlyOnce(t *testing.T) {
	sink := &completionCounter{}
	s := newTestSession(t, Params{Completion: sink})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.Play())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventEnded}))
	assert.Equal(t, models.StatusEnded, status(t, s))

	snap, _ := s.Snapshot()
	assert.Equal(t, 1.0, snap.PositionFraction)

	// A duplicate ended event must not re-fire the side effect
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventEnded}))

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, sink.count())
}

func TestSeekOutOfEndedResumesPlaying(t *testing.T) {
	s := newTestSession(t, Params{})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.Play())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventEnded}))
	assert.Equal(t, models.StatusEnded, status(t, s))

	require.NoError(t, s.Seek(0.2))
	assert.Equal(t, models.StatusPlaying, status(t, s))
}

func TestPlayFromEndedRestarts(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.Play())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventEnded}))
	require.NoError(t, s.Play())

	assert.Equal(t, models.StatusPlaying, status(t, s))
	snap, _ := s.Snapshot()
	assert.Equal(t, 0.0, snap.PositionFraction)
}

func TestProgressThrottle(t *testing.T) {
	s := newTestSession(t, Params{ProgressThrottle: 50 * time.Millisecond})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventProgress, PlayedFraction: 0.1, BufferedFraction: 0.2}))
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventProgress, PlayedFraction: 0.15, BufferedFraction: 0.3}))

	snap, _ := s.Snapshot()
	assert.Equal(t, 0.1, snap.PositionFraction)
	assert.Equal(t, 0.2, snap.BufferedFraction)

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventProgress, PlayedFraction: 0.3, BufferedFraction: 0.4}))
	snap, _ = s.Snapshot()
	assert.Equal(t, 0.3, snap.PositionFraction)
	assert.Equal(t, 0.4, snap.BufferedFraction)
}

func TestErrorEventIsTerminalUntilRetry(t *testing.T) {
	surface := &fakeSurface{}
	s := newTestSession(t, Params{Surface: surface})
	waitForStatus(t, s, models.StatusReady)

	require.NoError(t, s.Play())
	require.NoError(t, s.HandleSurfaceEvent(SurfaceEvent{Kind: EventError, Reason: "decode failed"}))

	snap, _ := s.Snapshot()
	assert.Equal(t, models.StatusErrored, snap.Status)
	assert.Equal(t, "decode failed", snap.ErrorReason)
	assert.Empty(t, snap.SourceURL, "an unrecoverable error must release the source")

	// No transport command may leave Errored without a fresh resolution
	playsBefore := surface.count(CmdPlay)
	require.NoError(t, s.Play())
	require.NoError(t, s.Seek(0.5))
	require.NoError(t, s.Skip(10))
	assert.Equal(t, models.StatusErrored, status(t, s))
	assert.Equal(t, playsBefore, surface.count(CmdPlay))

	require.NoError(t, s.Retry())
	waitForStatus(t, s, models.StatusReady)
	snap, _ = s.Snapshot()
	assert.Empty(t, snap.ErrorReason)

	require.NoError(t, s.Play())
	assert.Equal(t, models.StatusPlaying, status(t, s))
}

func TestCloseRejectsFurtherOperations(t *testing.T) {
	s := NewSession("closing", Params{
		CourseID: 1, ModuleID: 2, ContentID: 3,
		Surface:   &fakeSurface{},
		Resolver:  instantResolver("https://cdn.example.com/v"),
		HideDelay: 50 * time.Millisecond,
	})
	s.Close()

	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Play(), ErrSessionClosed)
	_, err := s.Snapshot()
	assert.ErrorIs(t, err, ErrSessionClosed)
}
