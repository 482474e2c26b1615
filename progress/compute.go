package progress

import (
	"math"

	"lms/models"
)

// ComputeProgress derives the aggregate completion snapshot from the full
// module/content listing and a completed-set. Pure and total: identical inputs
// give identical output, and an empty listing yields 0, never a divide error.
func ComputeProgress(modules []models.CourseModule, completed map[models.CompletionPair]struct{}) models.ProgressSnapshot {
	total := 0
	done := 0
	for _, module := range modules {
		for _, contentID := range module.ContentIDs {
			total++
			pair := models.CompletionPair{ModuleID: module.ModuleID, ContentID: contentID}
			if _, ok := completed[pair]; ok {
				done++
			}
		}
	}

	snapshot := models.ProgressSnapshot{
		TotalContentCount:     total,
		CompletedContentCount: done,
	}
	if total > 0 {
		snapshot.Percentage = int(math.Round(100 * float64(done) / float64(total)))
	}
	return snapshot
}
