// Package tasks holds the task service: calendar reconciliation, date
// grouping, and collection statistics.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
)

// DefaultMaxEvents bounds a single import run.
const DefaultMaxEvents = 10

// placeholderTitle stands in for events without a summary.
const placeholderTitle = "(Untitled event)"

// CalendarGateway lists upcoming events for stored credentials.
type CalendarGateway interface {
	UpcomingEvents(ctx context.Context, creds *models.CalendarCredentials, maxResults int64) ([]models.CalendarEvent, error)
}

type Service struct {
	tasks       db.TaskStore
	credentials db.CredentialStore
	gateway     CalendarGateway
	maxEvents   int64
}

func NewService(tasks db.TaskStore, credentials db.CredentialStore, gateway CalendarGateway) *Service {
	return &Service{
		tasks:       tasks,
		credentials: credentials,
		gateway:     gateway,
		maxEvents:   DefaultMaxEvents,
	}
}

// ImportCalendarEvents merges the user's upcoming calendar events into the
// task store and returns the full task set plus whether an import ran.
// Missing credentials skip the import without error. Import is insert-only:
// an event already turned into a task is never inserted twice and never
// refreshed, even if the source event changed since.
func (s *Service) ImportCalendarEvents(ctx context.Context, userID string) ([]*models.Task, bool, error) {
	creds, err := s.credentials.GetByUser(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		tasks, err := s.listSorted(ctx, userID)
		return tasks, false, err
	}
	if err != nil {
		return nil, false, err
	}

	events, err := s.gateway.UpcomingEvents(ctx, creds, s.maxEvents)
	if err != nil {
		return nil, false, fmt.Errorf("calendar import for user %s: %w", userID, err)
	}
	log.Printf("Fetched %d calendar events for user %s", len(events), userID)

	for _, event := range events {
		_, err := s.tasks.GetByCalendarEvent(ctx, userID, event.ID)
		if err == nil {
			// already imported on a previous run
			continue
		}
		if !errors.Is(err, db.ErrNotFound) {
			return nil, false, err
		}

		title := event.Summary
		if title == "" {
			title = placeholderTitle
		}
		now := time.Now().UTC()
		task := &models.Task{
			UserID:          userID,
			Title:           title,
			Description:     event.Description,
			DueDate:         event.End,
			Priority:        models.TaskPriorityMedium,
			Source:          models.TaskSourceCalendar,
			CalendarEventID: event.ID,
			Status:          models.TaskStatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.tasks.Insert(ctx, task); err != nil {
			return nil, false, fmt.Errorf("inserting task for event %s: %w", event.ID, err)
		}
		log.Printf("Imported calendar event %s as task %s", event.ID, task.ID)
	}

	tasks, err := s.listSorted(ctx, userID)
	return tasks, true, err
}

// TasksWithStats produces the reconciled, statistic-bearing task view.
func (s *Service) TasksWithStats(ctx context.Context, userID string) (*models.TaskList, error) {
	tasks, imported, err := s.ImportCalendarEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.TaskList{
		Tasks:            tasks,
		CalendarImported: imported,
		TaskStatistics:   Statistics(tasks),
	}, nil
}

// GroupedTasks produces the reconciled view bucketed by due date.
func (s *Service) GroupedTasks(ctx context.Context, userID string) (*models.GroupedTasks, error) {
	tasks, imported, err := s.ImportCalendarEvents(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.GroupedTasks{
		Groups:           GroupByDate(tasks, time.Now()),
		CalendarImported: imported,
		TaskStatistics:   Statistics(tasks),
	}, nil
}

func (s *Service) listSorted(ctx context.Context, userID string) ([]*models.Task, error) {
	tasks, err := s.tasks.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	SortByDueDate(tasks)
	return tasks, nil
}

// SortByDueDate orders tasks ascending by due date, with undated tasks
// last. The sort is stable so equal dates keep store order.
func SortByDueDate(tasks []*models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
