package playerValidator

import (
	"strings"

	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SessionID validates the :id path parameter
func SessionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := strings.TrimSpace(c.Params("id"))
		if sessionID == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Session ID is required!", nil)
		}
		c.Locals("sessionID", sessionID)
		return c.Next()
	}
}

// CreateSession validates a content selection request
func CreateSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			CourseID  uint   `json:"course_id"`
			ModuleID  uint   `json:"module_id"`
			ContentID uint   `json:"content_id"`
			Autoplay  bool   `json:"autoplay"`
			ViewerKey string `json:"viewer_key"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.CourseID == 0 {
			errors["course_id"] = "Course ID is required!"
		}
		if reqData.ModuleID == 0 {
			errors["module_id"] = "Module ID is required!"
		}
		if reqData.ContentID == 0 {
			errors["content_id"] = "Content ID is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		reqData.ViewerKey = strings.TrimSpace(reqData.ViewerKey)
		if reqData.ViewerKey == "" {
			reqData.ViewerKey = c.IP()
		}

		c.Locals("validatedCreateSession", reqData)
		return c.Next()
	}
}

// Seek validates a seek request body
func Seek() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Fraction *float64 `json:"fraction"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Fraction == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"fraction": "Fraction is required!"})
		}

		c.Locals("validatedSeek", reqData)
		return c.Next()
	}
}

// Skip validates a skip request body
func Skip() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			DeltaSeconds *float64 `json:"delta_seconds"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.DeltaSeconds == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"delta_seconds": "Delta seconds is required!"})
		}

		c.Locals("validatedSkip", reqData)
		return c.Next()
	}
}

// Volume validates a volume request body. Range enforcement is the machine's
// call boundary so an out-of-range level surfaces as an input error, not a
// silent coercion.
func Volume() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Level *float64 `json:"level"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Level == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"level": "Level is required!"})
		}

		c.Locals("validatedVolume", reqData)
		return c.Next()
	}
}

// Mute validates a mute toggle body
func Mute() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Muted *bool `json:"muted"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Muted == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"muted": "Muted is required!"})
		}

		c.Locals("validatedMute", reqData)
		return c.Next()
	}
}

// Rate validates a playback rate body. Membership in the allowed set is
// enforced by the machine.
func Rate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Rate *float64 `json:"rate"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Rate == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"rate": "Rate is required!"})
		}

		c.Locals("validatedRate", reqData)
		return c.Next()
	}
}

// Fullscreen validates a fullscreen intent body
func Fullscreen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Enter *bool `json:"enter"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Enter == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"enter": "Enter is required!"})
		}

		c.Locals("validatedFullscreen", reqData)
		return c.Next()
	}
}

// SurfaceEvent validates a host media event body
func SurfaceEvent() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Kind             string  `json:"kind"`
			PlayedFraction   float64 `json:"played_fraction"`
			BufferedFraction float64 `json:"buffered_fraction"`
			DurationSeconds  float64 `json:"duration_seconds"`
			Reason           string  `json:"reason"`
			Fullscreen       bool    `json:"fullscreen"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if strings.TrimSpace(reqData.Kind) == "" {
			return middleware.ValidationErrorResponse(c, map[string]string{"kind": "Event kind is required!"})
		}

		c.Locals("validatedSurfaceEvent", reqData)
		return c.Next()
	}
}
