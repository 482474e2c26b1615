package progressRoutes

import (
	controllers "lms/controllers/progress"
	validators "lms/validators/progress"

	"github.com/gofiber/fiber/v2"
)

// SetupProgressRoutes sets up all completion/progress routes
func SetupProgressRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Completion toggle (single writer of the completion cache)
	courseGroup.Post("/:course_id/content/toggle", validators.CourseID(), validators.ToggleCompletion(), controllers.ToggleCompletion)

	// Progress views
	courseGroup.Get("/:course_id/progress", validators.CourseID(), controllers.GetProgress)
	courseGroup.Post("/:course_id/progress/compute", validators.CourseID(), validators.ComputeProgress(), controllers.ComputeProgress)
}
