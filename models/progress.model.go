package models

// CompletionPair identifies one unit of completed content within a course
type CompletionPair struct {
	ModuleID  uint `json:"module_id"`
	ContentID uint `json:"content_id"`
}

// CourseModule is the module/content listing the dashboard already holds;
// it is posted back when an aggregate percentage is computed locally
type CourseModule struct {
	ModuleID   uint   `json:"module_id"`
	ContentIDs []uint `json:"content_ids"`
}

// ProgressSnapshot is the aggregate completion view for a course
type ProgressSnapshot struct {
	TotalContentCount     int `json:"total_content_count"`
	CompletedContentCount int `json:"completed_content_count"`
	Percentage            int `json:"percentage"`
}

// CompletionMutationResult is the authoritative server state returned after a toggle
type CompletionMutationResult struct {
	ProgressPercentage    int              `json:"progress_percentage"`
	CompletedModuleIDs    []uint           `json:"completed_module_ids"`
	CompletedContentPairs []CompletionPair `json:"completed_content_pairs"`
}
