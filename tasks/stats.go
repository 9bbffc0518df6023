package tasks

import "github.com/mzurek/taskpilot/models"

// Statistics computes the collection counts: pending + completed always
// equals total.
func Statistics(taskList []*models.Task) models.TaskStatistics {
	completed := 0
	for _, task := range taskList {
		if task.Status == models.TaskStatusCompleted {
			completed++
		}
	}
	return models.TaskStatistics{
		TotalCount:     len(taskList),
		PendingCount:   len(taskList) - completed,
		CompletedCount: completed,
	}
}
