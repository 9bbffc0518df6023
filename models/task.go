package models

import "time"

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

type TaskSource string

const (
	TaskSourceManual   TaskSource = "manual"
	TaskSourceCalendar TaskSource = "calendar"
)

type Task struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	DueDate         *time.Time   `json:"due_date,omitempty"`
	Priority        TaskPriority `json:"priority"`
	Source          TaskSource   `json:"source"`
	CalendarEventID string       `json:"calendar_event_id,omitempty"`
	Status          TaskStatus   `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// TaskPatch carries a partial update: nil fields are left untouched.
type TaskPatch struct {
	Title       *string       `json:"title"`
	Description *string       `json:"description"`
	DueDate     *time.Time    `json:"due_date"`
	Priority    *TaskPriority `json:"priority"`
	Status      *TaskStatus   `json:"status"`
}

func ValidStatus(s TaskStatus) bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

func ValidPriority(p TaskPriority) bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

type TaskStatistics struct {
	TotalCount     int `json:"total_count"`
	PendingCount   int `json:"pending_count"`
	CompletedCount int `json:"completed_count"`
}

// TaskList is the reconciled view returned by GET /tasks.
type TaskList struct {
	Tasks            []*Task `json:"tasks"`
	CalendarImported bool    `json:"calendar_imported"`
	TaskStatistics
}

// GroupedTasks is the bucketed view returned by GET /tasks/grouped.
type GroupedTasks struct {
	Groups           map[string][]*Task `json:"groups"`
	CalendarImported bool               `json:"calendar_imported"`
	TaskStatistics
}
