package controllers

import (
	"errors"

	"lms/middleware"
	"lms/models"
	"lms/progress"

	"github.com/gofiber/fiber/v2"
)

// Trackers is wired at boot from main
var Trackers *progress.Registry

// ToggleCompletion flips the completion state of one content item. The local
// cache only changes when the server confirms, so a failure here leaves the
// dashboard's completion view exactly as it was.
func ToggleCompletion(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedToggle").(*struct {
		ModuleID           uint  `json:"module_id"`
		ContentID          uint  `json:"content_id"`
		CurrentlyCompleted *bool `json:"currently_completed"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	tracker := Trackers.ForCourse(uint(courseID))
	result, err := tracker.ToggleCompletion(c.UserContext(), reqData.ModuleID, reqData.ContentID, *reqData.CurrentlyCompleted)
	if err != nil {
		if errors.Is(err, progress.ErrToggleInFlight) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "A toggle for this content is already in flight!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to update completion, please retry!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Completion updated successfully!", result)
}

// GetProgress returns the server-confirmed completion state for a course
func GetProgress(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	tracker := Trackers.ForCourse(uint(courseID))
	pairs := tracker.CompletedPairs()
	if pairs == nil {
		pairs = []models.CompletionPair{}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"progress_percentage":     tracker.ServerPercentage(),
		"completed_content_pairs": pairs,
	})
}

// ComputeProgress aggregates a posted module listing against the confirmed
// completed-set
func ComputeProgress(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	modules, ok := c.Locals("validatedModules").([]models.CourseModule)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	tracker := Trackers.ForCourse(uint(courseID))
	snapshot := tracker.SnapshotFor(modules)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress computed successfully!", snapshot)
}
