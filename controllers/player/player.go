package controllers

import (
	"errors"
	"time"

	"lms/config"
	"lms/middleware"
	"lms/player"
	"lms/progress"

	"github.com/gofiber/fiber/v2"
)

// Manager, Resolver and Trackers are wired at boot from main
var (
	Manager  *player.Manager
	Resolver player.SourceResolver
	Trackers *progress.Registry
)

// lookupSession fetches the session from the validated :id param
func lookupSession(c *fiber.Ctx) *player.Session {
	sessionID, _ := c.Locals("sessionID").(string)
	return Manager.Get(sessionID)
}

// respondCommandResult maps machine errors onto the response envelope
func respondCommandResult(c *fiber.Ctx, err error, message string) error {
	if err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, message, nil)
	}
	if errors.Is(err, player.ErrSessionClosed) {
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Session is closed!", nil)
	}
	if player.IsInputError(err) {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
	}
	return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Player command failed!", nil)
}

// CreateSession opens a playback session for a selected content item
func CreateSession(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCreateSession").(*struct {
		CourseID  uint   `json:"course_id"`
		ModuleID  uint   `json:"module_id"`
		ContentID uint   `json:"content_id"`
		Autoplay  bool   `json:"autoplay"`
		ViewerKey string `json:"viewer_key"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	session := Manager.Create(player.Params{
		CourseID:         reqData.CourseID,
		ModuleID:         reqData.ModuleID,
		ContentID:        reqData.ContentID,
		Autoplay:         reqData.Autoplay,
		ViewerKey:        reqData.ViewerKey,
		Surface:          player.NewQueuedSurface(),
		Resolver:         Resolver,
		Completion:       Trackers.ForCourse(reqData.CourseID),
		HideDelay:        time.Duration(config.AppConfig.ControlsHideDelayMs) * time.Millisecond,
		ProgressThrottle: time.Duration(config.AppConfig.ProgressThrottleMs) * time.Millisecond,
	})

	snapshot, err := session.Snapshot()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Playback session created!", snapshot)
}

// GetSession returns the current session snapshot
func GetSession(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	snapshot, err := session.Snapshot()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusGone, false, "Session is closed!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session fetched successfully!", snapshot)
}

// Play requests playback start
func Play(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}
	return respondCommandResult(c, session.Play(), "Play requested!")
}

// Pause requests playback pause
func Pause(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}
	return respondCommandResult(c, session.Pause(), "Pause requested!")
}

// Seek jumps to a fraction of the content duration
func Seek(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedSeek").(*struct {
		Fraction *float64 `json:"fraction"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.Seek(*reqData.Fraction), "Seek requested!")
}

// Skip moves playback by a signed number of seconds
func Skip(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedSkip").(*struct {
		DeltaSeconds *float64 `json:"delta_seconds"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.Skip(*reqData.DeltaSeconds), "Skip requested!")
}

// SetVolume sets the output level
func SetVolume(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedVolume").(*struct {
		Level *float64 `json:"level"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.SetVolume(*reqData.Level), "Volume updated!")
}

// SetMuted toggles mute explicitly
func SetMuted(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedMute").(*struct {
		Muted *bool `json:"muted"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.SetMuted(*reqData.Muted), "Mute updated!")
}

// SetRate sets the playback speed
func SetRate(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedRate").(*struct {
		Rate *float64 `json:"rate"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.SetPlaybackRate(*reqData.Rate), "Playback rate updated!")
}

// SetFullscreen forwards a fullscreen intent to the host surface
func SetFullscreen(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedFullscreen").(*struct {
		Enter *bool `json:"enter"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	return respondCommandResult(c, session.SetFullscreen(*reqData.Enter), "Fullscreen intent sent!")
}

// Activity records a viewer activity ping for the controls timer
func Activity(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}
	return respondCommandResult(c, session.Activity(), "Activity recorded!")
}

// Retry re-resolves the playback source after an error
func Retry(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}
	return respondCommandResult(c, session.Retry(), "Re-resolution started!")
}

// SurfaceEvent applies one host media event to the session
func SurfaceEvent(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	reqData, ok := c.Locals("validatedSurfaceEvent").(*struct {
		Kind             string  `json:"kind"`
		PlayedFraction   float64 `json:"played_fraction"`
		BufferedFraction float64 `json:"buffered_fraction"`
		DurationSeconds  float64 `json:"duration_seconds"`
		Reason           string  `json:"reason"`
		Fullscreen       bool    `json:"fullscreen"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	err := session.HandleSurfaceEvent(player.SurfaceEvent{
		Kind:             reqData.Kind,
		PlayedFraction:   reqData.PlayedFraction,
		BufferedFraction: reqData.BufferedFraction,
		DurationSeconds:  reqData.DurationSeconds,
		Reason:           reqData.Reason,
		Fullscreen:       reqData.Fullscreen,
	})
	return respondCommandResult(c, err, "Event applied!")
}

// DrainCommands returns and clears the pending surface commands for the host
func DrainCommands(c *fiber.Ctx) error {
	session := lookupSession(c)
	if session == nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}

	queued, ok := session.Surface().(*player.QueuedSurface)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Session surface is not pollable!", nil)
	}

	commands := queued.Drain()
	if commands == nil {
		commands = []player.SurfaceCommand{}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Commands fetched successfully!", fiber.Map{
		"commands": commands,
	})
}

// DestroySession tears the session down
func DestroySession(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("sessionID").(string)
	if !Manager.Destroy(sessionID) {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Session not found!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Session destroyed!", nil)
}
