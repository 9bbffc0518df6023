package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/gcal"
	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/shared"
	"github.com/mzurek/taskpilot/tasks"
)

// HandleCalendarAuth serves GET /calendar/auth: the Google authorization
// URL the client should open.
func (h *Handler) HandleCalendarAuth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]string{
		"authorization_url": h.Calendar.AuthURL("state-token"),
	})
}

// HandleCalendarCallback serves GET /calendar/callback: exchanges the
// authorization code and stores the token material for the user.
func (h *Handler) HandleCalendarCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	code := r.URL.Query().Get("code")
	if code == "" {
		shared.SendError(w, "code query parameter is required", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}

	token, err := h.Calendar.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("OAuth exchange failed for user %s: %v", user.ID, err)
		shared.SendError(w, "Authorization failed", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}

	creds := &models.CalendarCredentials{
		UserID:       user.ID,
		Token:        token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenExpiry:  token.Expiry,
		Scopes:       gcal.Scopes,
	}
	if err := h.Store.Credentials.Upsert(r.Context(), creds); err != nil {
		log.Printf("Failed to save calendar credentials for user %s: %v", user.ID, err)
		shared.SendError(w, "Failed to save credentials", shared.CodeInternal, http.StatusInternalServerError)
		return
	}

	log.Printf("Calendar authorized for user %s", user.ID)
	shared.SendJSON(w, http.StatusOK, map[string]string{"message": "Authorization complete"})
}

/*
handles routes:
- GET /calendar/events - upcoming events from the user's primary calendar
- POST /calendar/events - create an event
*/
func (h *Handler) HandleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.listCalendarEvents(w, r)
	case http.MethodPost:
		h.createCalendarEvent(w, r)
	default:
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
	}
}

func (h *Handler) listCalendarEvents(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())

	creds, ok := h.requireCredentials(w, r, user.ID)
	if !ok {
		return
	}
	events, err := h.Calendar.UpcomingEvents(r.Context(), creds, tasks.DefaultMaxEvents)
	if err != nil {
		log.Printf("Failed to list calendar events for user %s: %v", user.ID, err)
		shared.SendError(w, "Failed to fetch calendar events", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) createCalendarEvent(w http.ResponseWriter, r *http.Request) {
	user := userFromContext(r.Context())
	if !isJSONContentType(r) {
		shared.SendError(w, "Content-Type must be application/json", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}

	var input struct {
		Summary     string `json:"summary"`
		Description string `json:"description"`
		Start       string `json:"start"`
		End         string `json:"end"`
		Location    string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		shared.SendError(w, "Invalid JSON body", shared.CodeBadRequest, http.StatusBadRequest)
		return
	}
	if input.Summary == "" {
		shared.SendError(w, "summary is required", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	start, err := parseDueDate(&input.Start)
	if err != nil || start == nil {
		shared.SendError(w, "start must be a valid timestamp", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}
	end, err := parseDueDate(&input.End)
	if err != nil || end == nil {
		shared.SendError(w, "end must be a valid timestamp", shared.CodeValidation, http.StatusUnprocessableEntity)
		return
	}

	creds, ok := h.requireCredentials(w, r, user.ID)
	if !ok {
		return
	}
	created, err := h.Calendar.CreateEvent(r.Context(), creds, models.CalendarEvent{
		Summary:     input.Summary,
		Description: input.Description,
		Start:       start,
		End:         end,
		Location:    input.Location,
	})
	if err != nil {
		log.Printf("Failed to create calendar event for user %s: %v", user.ID, err)
		shared.SendError(w, "Failed to create calendar event", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusCreated, created)
}

// HandleCalendarEventByID serves POST /calendar/events/{id}/to-task:
// converts a calendar event into a task without waiting for the next
// import run. The (user, event) pair stays unique.
func (h *Handler) HandleCalendarEventByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/calendar/events/")
	eventID, action, found := strings.Cut(rest, "/")
	if !found || action != "to-task" || eventID == "" {
		shared.SendError(w, "Not found", shared.CodeNotFound, http.StatusNotFound)
		return
	}
	if r.Method != http.MethodPost {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

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
	if strings.TrimSpace(input.Title) == "" {
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

	if _, err := h.Store.Tasks.GetByCalendarEvent(r.Context(), user.ID, eventID); err == nil {
		shared.SendError(w, "Event already converted to a task", shared.CodeConflict, http.StatusConflict)
		return
	} else if !errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Failed to check existing tasks", shared.CodeInternal, http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	task := &models.Task{
		UserID:          user.ID,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		DueDate:         dueDate,
		Priority:        priority,
		Source:          models.TaskSourceCalendar,
		CalendarEventID: eventID,
		Status:          models.TaskStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := h.Store.Tasks.Insert(r.Context(), task); err != nil {
		log.Printf("Failed to convert event %s for user %s: %v", eventID, user.ID, err)
		shared.SendError(w, "Failed to create task", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusCreated, task)
}

// HandleCalendarEventsContext serves GET /calendar/events/context: a
// plain-text digest of upcoming events for the chat assistant.
func (h *Handler) HandleCalendarEventsContext(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	creds, ok := h.requireCredentials(w, r, user.ID)
	if !ok {
		return
	}
	events, err := h.Calendar.UpcomingEvents(r.Context(), creds, tasks.DefaultMaxEvents)
	if err != nil {
		log.Printf("Failed to list calendar events for user %s: %v", user.ID, err)
		shared.SendError(w, "Failed to fetch calendar events", shared.CodeCalendarError, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]string{"context": gcal.EventDigest(events)})
}

// HandleCalendarStatus serves GET /calendar/status: whether the user has
// authorized calendar access.
func (h *Handler) HandleCalendarStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		shared.SendError(w, "Method not allowed", shared.CodeBadRequest, http.StatusMethodNotAllowed)
		return
	}
	user := userFromContext(r.Context())

	_, err := h.Store.Credentials.GetByUser(r.Context(), user.ID)
	if err != nil && !errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Failed to load credentials", shared.CodeInternal, http.StatusInternalServerError)
		return
	}
	shared.SendJSON(w, http.StatusOK, map[string]bool{"is_authorized": err == nil})
}

func (h *Handler) requireCredentials(w http.ResponseWriter, r *http.Request, userID string) (*models.CalendarCredentials, bool) {
	creds, err := h.Store.Credentials.GetByUser(r.Context(), userID)
	if errors.Is(err, db.ErrNotFound) {
		shared.SendError(w, "Calendar not authorized", shared.CodeNotFound, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		shared.SendError(w, "Failed to load credentials", shared.CodeInternal, http.StatusInternalServerError)
		return nil, false
	}
	return creds, true
}
