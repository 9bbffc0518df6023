package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mzurek/taskpilot/models"
)

const taskColumns = `id, user_id, title, description, due_date, priority, source, calendar_event_id, status, created_at, updated_at`

type TaskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Insert(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	query := `INSERT INTO tasks (` + taskColumns + `)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.db.ExecContext(
		ctx, query, task.ID, task.UserID, task.Title, nullString(task.Description),
		nullTime(task.DueDate), task.Priority, task.Source,
		nullString(task.CalendarEventID), task.Status, task.CreatedAt, task.UpdatedAt)
	return err
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1
	 ORDER BY (due_date IS NULL), due_date`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) GetByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return r.getOne(ctx, query, id, userID)
}

func (r *TaskRepository) GetByCalendarEvent(ctx context.Context, userID, eventID string) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1 AND calendar_event_id = $2`
	return r.getOne(ctx, query, userID, eventID)
}

// UpdateByIDAndUser merges the patch into the stored task and refreshes
// updated_at. Fields not present in the patch keep their stored values.
func (r *TaskRepository) UpdateByIDAndUser(ctx context.Context, id, userID string, patch *models.TaskPatch) (*models.Task, error) {
	task, err := r.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	applyPatch(task, patch)
	task.UpdatedAt = time.Now().UTC()

	query := `UPDATE tasks SET title = $1, description = $2, due_date = $3, priority = $4,
	 status = $5, updated_at = $6 WHERE id = $7 AND user_id = $8`
	_, err = r.db.ExecContext(ctx, query, task.Title, nullString(task.Description),
		nullTime(task.DueDate), task.Priority, task.Status, task.UpdatedAt, id, userID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error) {
	task, err := r.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *TaskRepository) getOne(ctx context.Context, query string, args ...any) (*models.Task, error) {
	task, err := scanTask(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return task, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*models.Task, error) {
	task := &models.Task{}
	var description, eventID sql.NullString
	var dueDate sql.NullTime
	err := row.Scan(
		&task.ID, &task.UserID, &task.Title, &description, &dueDate,
		&task.Priority, &task.Source, &eventID, &task.Status,
		&task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Description = description.String
	task.CalendarEventID = eventID.String
	if dueDate.Valid {
		due := dueDate.Time
		task.DueDate = &due
	}
	return task, nil
}

func applyPatch(task *models.Task, patch *models.TaskPatch) {
	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
