package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/shared"
)

/*
handles routes:
- GET /tasks - reconciled task list with statistics (runs calendar import)
- POST /tasks - create a new task
*/
func (h *Handler) HandleTasks(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listTasks(w, r)
	case http.MethodPost:
		h.createTask(w, r)
	default:
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	view, err := h.TaskService.TasksWithStats(r.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to build task view for user %s: %v", user.ID, err)
		shared.SendError(w, "Calendar import failed", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}
	if len(view.Tasks) == 0 {
		shared.SendErrorData(w, "No tasks found", shared.CodeNoTasks, http.StatusNotFound,
			map[string]any{"calendar_imported": view.CalendarImported})
		return
	}
	shared.SendJSON(w, http.StatusOK, view)
}

// HandleGroupedTasks serves GET /tasks/grouped: the reconciled view
// bucketed by due date relative to today.
func (h *Handler) HandleGroupedTasks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	view, err := h.TaskService.GroupedTasks(r.Context(), user.ID)
	if err != nil {
		log.Printf("Failed to group tasks for user %s: %v", user.ID, err)
		shared.SendError(w, "Calendar import failed", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, view)
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var input struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    string  `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Invalid JSON body", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		shared.SendError(w, "title is required", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	priority := models.TaskPriority(input.Priority)
	if input.Priority == "" {
		priority = models.TaskPriorityMedium
	}
	if !models.ValidPriority(priority) {
		shared.SendError(w, "priority must be low, medium or high", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		shared.SendError(w, "due_date must be a valid timestamp", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}

	now := time.Now().UTC()
	task := &models.Task{
		UserID:      user.ID,
		Title:       title,
		Description: input.Description,
		DueDate:     dueDate,
		Priority:    priority,
		Source:      models.TaskSourceManual,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.Store.Tasks.Insert(r.Context(), task); err != nil {
		log.Printf("Failed to create task for user %s: %v", user.ID, err)
		shared.SendError(w, "Failed to create task", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Location", "/tasks/"+task.ID)
	shared.SendJSON(w, http.StatusCreated, task)
}

/*
routes:
- GET /tasks/{id}
- PUT/PATCH /tasks/{id}
- DELETE /tasks/{id}
*/
func (h *Handler) HandleTaskByID(w http.ResponseWriter, r *http.Request) {
	taskID := strings.TrimPrefix(r.URL.Path, "/tasks/")
	if taskID == "" || strings.Contains(taskID, "/") {
		shared.SendError(w, "task id is required", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getTaskByID(w, r, taskID)
	case http.MethodPut, http.MethodPatch:
		h.updateTaskByID(w, r, taskID)
	case http.MethodDelete:
		h.deleteTaskByID(w, r, taskID)
	default:
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
	}
}

func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request, taskID string) {
	user := userFromContext(r.Context())

	task, err := h.Store.Tasks.GetByIDAndUser(r.Context(), taskID, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Task not found", shared.CodeNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		shared.SendError(w, "Failed to load task", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, task)
}

func (h *Handler) updateTaskByID(w http.ResponseWriter, r *http.Request, taskID string) {
	user := userFromContext(r.Context())
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB

	var input struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		DueDate     *string `json:"due_date"`
		Priority    *string `json:"priority"`
		Status      *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Invalid JSON body", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	patch := &models.TaskPatch{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			shared.SendError(w, "title cannot be empty", shared.CodeValidation, http.StatusUnprocessableEntity)
			return
		}
		patch.Title = &title
	}
	if input.Description != nil {
		patch.Description = input.Description
	}
	if input.DueDate != nil {
		dueDate, err := parseDueDate(input.DueDate)
		if err != nil {
			shared.SendError(w, "due_date must be a valid timestamp", shared.CodeValidation, http.StatusUnprocessableEntity)
			return
		}
		patch.DueDate = dueDate
	}
	if input.Priority != nil {
		priority := models.TaskPriority(*input.Priority)
		if !models.ValidPriority(priority) {
			shared.SendError(w, "priority must be low, medium or high", shared.CodeValidation, http.StatusUnprocessableEntity)
			return
		}
		patch.Priority = &priority
	}
	if input.Status != nil {
		status := models.TaskStatus(*input.Status)
		if !models.ValidStatus(status) {
			shared.SendError(w, "status must be pending or completed", shared.CodeValidation, http.StatusUnprocessableEntity)
			return
		}
		patch.Status = &status
	}

	task, err := h.Store.Tasks.UpdateByIDAndUser(r.Context(), taskID, user.ID, patch)
	if errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Task not found", shared.CodeNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Failed to update task %s: %v", taskID, err)
		shared.SendError(w, "Failed to update task", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, task)
}

func (h *Handler) deleteTaskByID(w http.ResponseWriter, r *http.Request, taskID string) {
	user := userFromContext(r.Context())

	task, err := h.Store.Tasks.DeleteByIDAndUser(r.Context(), taskID, user.ID)
	if errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Task not found", shared.CodeNotFound, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Failed to delete task %s: %v", taskID, err)
		shared.SendError(w, "Failed to delete task", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, task)
}

// parseDueDate accepts RFC3339, a zone-less timestamp, or a bare date.
func parseDueDate(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, *raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("unrecognized timestamp format")
}
