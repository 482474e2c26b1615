package playerRoutes

import (
	controllers "lms/controllers/player"
	validators "lms/validators/player"

	"github.com/gofiber/fiber/v2"
)

// SetupPlayerRoutes sets up all playback session routes
func SetupPlayerRoutes(app *fiber.App) {
	playerGroup := app.Group("/player")

	// Session lifecycle
	playerGroup.Post("/sessions", validators.CreateSession(), controllers.CreateSession)
	playerGroup.Get("/sessions/:id", validators.SessionID(), controllers.GetSession)
	playerGroup.Delete("/sessions/:id", validators.SessionID(), controllers.DestroySession)

	// Transport controls
	playerGroup.Post("/sessions/:id/play", validators.SessionID(), controllers.Play)
	playerGroup.Post("/sessions/:id/pause", validators.SessionID(), controllers.Pause)
	playerGroup.Post("/sessions/:id/seek", validators.SessionID(), validators.Seek(), controllers.Seek)
	playerGroup.Post("/sessions/:id/skip", validators.SessionID(), validators.Skip(), controllers.Skip)
	playerGroup.Post("/sessions/:id/volume", validators.SessionID(), validators.Volume(), controllers.SetVolume)
	playerGroup.Post("/sessions/:id/mute", validators.SessionID(), validators.Mute(), controllers.SetMuted)
	playerGroup.Post("/sessions/:id/rate", validators.SessionID(), validators.Rate(), controllers.SetRate)
	playerGroup.Post("/sessions/:id/fullscreen", validators.SessionID(), validators.Fullscreen(), controllers.SetFullscreen)

	// Controls visibility and recovery
	playerGroup.Post("/sessions/:id/activity", validators.SessionID(), controllers.Activity)
	playerGroup.Post("/sessions/:id/retry", validators.SessionID(), controllers.Retry)

	// Host media surface boundary
	playerGroup.Post("/sessions/:id/events", validators.SessionID(), validators.SurfaceEvent(), controllers.SurfaceEvent)
	playerGroup.Get("/sessions/:id/commands", validators.SessionID(), controllers.DrainCommands)
}
