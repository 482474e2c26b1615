package progress

import (
	"testing"

	"lms/models"

	"github.com/stretchr/testify/assert"
)

func listing(contentPerModule ...int) []models.CourseModule {
	modules := make([]models.CourseModule, len(contentPerModule))
	contentID := uint(0)
	for i, n := range contentPerModule {
		m := models.CourseModule{ModuleID: uint(i + 1)}
		for j := 0; j < n; j++ {
			contentID++
			m.ContentIDs = append(m.ContentIDs, contentID)
		}
		modules[i] = m
	}
	return modules
}

func TestComputeProgressTwoOfFourIsFifty(t *testing.T) {
	modules := listing(2, 2)
	completed := map[models.CompletionPair]struct{}{
		{ModuleID: 1, ContentID: 1}: {},
		{ModuleID: 2, ContentID: 3}: {},
	}

	snap := ComputeProgress(modules, completed)
	assert.Equal(t, 4, snap.TotalContentCount)
	assert.Equal(t, 2, snap.CompletedContentCount)
	assert.Equal(t, 50, snap.Percentage)
}

func TestComputeProgressEmptyListingIsZero(t *testing.T) {
	snap := ComputeProgress(nil, nil)
	assert.Equal(t, models.ProgressSnapshot{}, snap)

	snap = ComputeProgress([]models.CourseModule{{ModuleID: 1}}, nil)
	assert.Equal(t, 0, snap.TotalContentCount)
	assert.Equal(t, 0, snap.Percentage)
}

func TestComputeProgressRounds(t *testing.T) {
	modules := listing(3)

	one := map[models.CompletionPair]struct{}{{ModuleID: 1, ContentID: 1}: {}}
	assert.Equal(t, 33, ComputeProgress(modules, one).Percentage)

	two := map[models.CompletionPair]struct{}{
		{ModuleID: 1, ContentID: 1}: {},
		{ModuleID: 1, ContentID: 2}: {},
	}
	assert.Equal(t, 67, ComputeProgress(modules, two).Percentage)
}

func TestComputeProgressIgnoresPairsOutsideListing(t *testing.T) {
	modules := listing(2)
	completed := map[models.CompletionPair]struct{}{
		{ModuleID: 1, ContentID: 1}:  {},
		{ModuleID: 9, ContentID: 99}: {},
	}

	snap := ComputeProgress(modules, completed)
	assert.Equal(t, 1, snap.CompletedContentCount)
	assert.Equal(t, 50, snap.Percentage)
}

func TestComputeProgressIsPure(t *testing.T) {
	modules := listing(3, 1)
	completed := map[models.CompletionPair]struct{}{
		{ModuleID: 1, ContentID: 2}: {},
	}

	first := ComputeProgress(modules, completed)
	second := ComputeProgress(modules, completed)
	assert.Equal(t, first, second)
}
