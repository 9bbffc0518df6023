package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mzurek/taskpilot/models"
)

func newTestTask(userID, title string, due *time.Time) *models.Task {
	now := time.Now().UTC()
	return &models.Task{
		UserID:    userID,
		Title:     title,
		DueDate:   due,
		Priority:  models.TaskPriorityMedium,
		Source:    models.TaskSourceManual,
		Status:    models.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskRepository_InsertAndGet(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)

	due := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	task := newTestTask("user-1", "Standup", &due)
	task.Description = "daily sync"

	if err := repo.Insert(context.Background(), task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}
	if task.ID == "" {
		t.Fatal("Expected store-assigned id")
	}

	fetched, err := repo.GetByIDAndUser(context.Background(), task.ID, "user-1")
	if err != nil {
		t.Fatalf("GetByIDAndUser failed: %v", err)
	}
	if fetched.Title != "Standup" || fetched.Description != "daily sync" {
		t.Errorf("Fetched task mismatch: %+v", fetched)
	}
	if fetched.DueDate == nil || !fetched.DueDate.Equal(due) {
		t.Errorf("Expected due date %v, got %v", due, fetched.DueDate)
	}
}

func TestTaskRepository_UserScoping(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)

	task := newTestTask("user-1", "Private", nil)
	if err := repo.Insert(context.Background(), task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	if _, err := repo.GetByIDAndUser(context.Background(), task.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign user, got %v", err)
	}
	if _, err := repo.DeleteByIDAndUser(context.Background(), task.ID, "user-2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign delete, got %v", err)
	}
}

func TestTaskRepository_ListByUser_OrdersNullsLast(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	noDate := newTestTask("user-1", "no date", nil)
	late := newTestTask("user-1", "late", timePtr(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	early := newTestTask("user-1", "early", timePtr(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	for _, task := range []*models.Task{noDate, late, early} {
		if err := repo.Insert(ctx, task); err != nil {
			t.Fatalf("Failed to insert task: %v", err)
		}
	}

	taskList, err := repo.ListByUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(taskList) != 3 {
		t.Fatalf("Expected 3 tasks, got %d", len(taskList))
	}
	if taskList[0].Title != "early" || taskList[1].Title != "late" || taskList[2].Title != "no date" {
		t.Errorf("Wrong order: %q, %q, %q", taskList[0].Title, taskList[1].Title, taskList[2].Title)
	}
}

func TestTaskRepository_GetByCalendarEvent(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	task := newTestTask("user-1", "Standup", nil)
	task.Source = models.TaskSourceCalendar
	task.CalendarEventID = "e1"
	if err := repo.Insert(ctx, task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	found, err := repo.GetByCalendarEvent(ctx, "user-1", "e1")
	if err != nil {
		t.Fatalf("GetByCalendarEvent failed: %v", err)
	}
	if found.ID != task.ID {
		t.Errorf("Expected task %s, got %s", task.ID, found.ID)
	}

	if _, err := repo.GetByCalendarEvent(ctx, "user-1", "e2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetByCalendarEvent(ctx, "user-2", "e1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound for foreign user, got %v", err)
	}
}

func TestTaskRepository_UpdatePartial(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	task := newTestTask("user-1", "Write report", nil)
	task.Description = "quarterly numbers"
	if err := repo.Insert(ctx, task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}
	before := task.UpdatedAt

	completed := models.TaskStatusCompleted
	updated, err := repo.UpdateByIDAndUser(ctx, task.ID, "user-1", &models.TaskPatch{Status: &completed})
	if err != nil {
		t.Fatalf("UpdateByIDAndUser failed: %v", err)
	}

	if updated.Status != models.TaskStatusCompleted {
		t.Errorf("Expected status completed, got %q", updated.Status)
	}
	if updated.Title != "Write report" || updated.Description != "quarterly numbers" {
		t.Errorf("Untouched fields changed: %+v", updated)
	}
	if updated.Priority != models.TaskPriorityMedium {
		t.Errorf("Priority changed: %q", updated.Priority)
	}
	if !updated.UpdatedAt.After(before) {
		t.Errorf("Expected updated_at to be refreshed: %v -> %v", before, updated.UpdatedAt)
	}
}

func TestTaskRepository_DeleteReturnsRecord(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewTaskRepository(conn)
	ctx := context.Background()

	task := newTestTask("user-1", "Throwaway", nil)
	if err := repo.Insert(ctx, task); err != nil {
		t.Fatalf("Failed to insert task: %v", err)
	}

	deleted, err := repo.DeleteByIDAndUser(ctx, task.ID, "user-1")
	if err != nil {
		t.Fatalf("DeleteByIDAndUser failed: %v", err)
	}
	if deleted.Title != "Throwaway" {
		t.Errorf("Expected deleted record, got %+v", deleted)
	}

	if _, err := repo.GetByIDAndUser(ctx, task.ID, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}
