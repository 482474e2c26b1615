package player

import "sync"

// Surface command actions sent to the host media element
const (
	CmdPlay              = "PLAY"
	CmdPause             = "PAUSE"
	CmdSeek              = "SEEK"       // value = fraction [0,1)
	CmdSetVolume         = "SET_VOLUME" // value = level [0,1]
	CmdSetRate           = "SET_RATE"   // value = playback rate
	CmdRequestFullscreen = "REQUEST_FULLSCREEN"
	CmdExitFullscreen    = "EXIT_FULLSCREEN"
)

// SurfaceCommand is one rendering instruction for the host media surface
type SurfaceCommand struct {
	Action string  `json:"action"`
	Value  float64 `json:"value,omitempty"`
}

// MediaSurface consumes playback commands. Implementations must be safe for
// calls from the session event loop.
type MediaSurface interface {
	Play() error
	Pause() error
	Seek(fraction float64) error
	SetVolume(level float64) error
	SetRate(rate float64) error
	RequestFullscreen() error
	ExitFullscreen() error
}

// Surface event kinds emitted by the host media element
const (
	EventProgress          = "PROGRESS"
	EventDurationKnown     = "DURATION_KNOWN"
	EventBuffering         = "BUFFERING"
	EventBufferingEnded    = "BUFFERING_ENDED"
	EventEnded             = "ENDED"
	EventError             = "ERROR"
	EventFullscreenChanged = "FULLSCREEN_CHANGED"
)

// SurfaceEvent is one notification from the host media element
type SurfaceEvent struct {
	Kind             string  `json:"kind"`
	PlayedFraction   float64 `json:"played_fraction,omitempty"`
	BufferedFraction float64 `json:"buffered_fraction,omitempty"`
	DurationSeconds  float64 `json:"duration_seconds,omitempty"`
	Reason           string  `json:"reason,omitempty"`
	Fullscreen       bool    `json:"fullscreen,omitempty"`
}

// QueuedSurface buffers commands for a host that polls over HTTP. The dashboard
// drains the queue and applies each instruction to its media element in order.
type QueuedSurface struct {
	mu    sync.Mutex
	queue []SurfaceCommand
}

func NewQueuedSurface() *QueuedSurface {
	return &QueuedSurface{}
}

func (q *QueuedSurface) push(cmd SurfaceCommand) error {
	q.mu.Lock()
	q.queue = append(q.queue, cmd)
	q.mu.Unlock()
	return nil
}

func (q *QueuedSurface) Play() error  { return q.push(SurfaceCommand{Action: CmdPlay}) }
func (q *QueuedSurface) Pause() error { return q.push(SurfaceCommand{Action: CmdPause}) }

func (q *QueuedSurface) Seek(fraction float64) error {
	return q.push(SurfaceCommand{Action: CmdSeek, Value: fraction})
}

func (q *QueuedSurface) SetVolume(level float64) error {
	return q.push(SurfaceCommand{Action: CmdSetVolume, Value: level})
}

func (q *QueuedSurface) SetRate(rate float64) error {
	return q.push(SurfaceCommand{Action: CmdSetRate, Value: rate})
}

func (q *QueuedSurface) RequestFullscreen() error {
	return q.push(SurfaceCommand{Action: CmdRequestFullscreen})
}

func (q *QueuedSurface) ExitFullscreen() error {
	return q.push(SurfaceCommand{Action: CmdExitFullscreen})
}

// Drain returns and clears all pending commands
func (q *QueuedSurface) Drain() []SurfaceCommand {
	q.mu.Lock()
	cmds := q.queue
	q.queue = nil
	q.mu.Unlock()
	return cmds
}
