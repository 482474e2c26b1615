package progressValidator

import (
	"strconv"
	"strings"

	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// CourseID validates the :course_id path parameter
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseIDStr := strings.TrimSpace(c.Params("course_id"))
		if courseIDStr == "" {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course ID is required!", nil)
		}

		courseID, err := strconv.Atoi(courseIDStr)
		if err != nil || courseID <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}

		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// ToggleCompletion validates a completion toggle request
func ToggleCompletion() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			ModuleID           uint  `json:"module_id"`
			ContentID          uint  `json:"content_id"`
			CurrentlyCompleted *bool `json:"currently_completed"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if reqData.ModuleID == 0 {
			errors["module_id"] = "Module ID is required!"
		}
		if reqData.ContentID == 0 {
			errors["content_id"] = "Content ID is required!"
		}
		if reqData.CurrentlyCompleted == nil {
			errors["currently_completed"] = "Currently completed flag is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedToggle", reqData)
		return c.Next()
	}
}

// ComputeProgress validates a module listing for local aggregation
func ComputeProgress() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Modules []models.CourseModule `json:"modules"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		if reqData.Modules == nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"modules": "Module listing is required!"})
		}

		for _, module := range reqData.Modules {
			if module.ModuleID == 0 {
				return middleware.ValidationErrorResponse(c, map[string]string{"modules": "Module ID must be positive!"})
			}
		}

		c.Locals("validatedModules", reqData.Modules)
		return c.Next()
	}
}
