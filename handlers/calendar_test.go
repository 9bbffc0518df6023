package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/shared"
)

func TestCalendarAuth_ReturnsAuthorizationURL(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodGet, "/calendar/auth", bearerFor(t, user.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["authorization_url"], "state=state-token") {
		t.Errorf("Unexpected authorization_url: %q", body["authorization_url"])
	}
}

func TestCalendarCallback_StoresCredentials(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")
	bearer := bearerFor(t, user.ID)

	rec := doJSON(t, mux, http.MethodGet, "/calendar/status", bearer, "")
	if !strings.Contains(rec.Body.String(), `"is_authorized":false`) {
		t.Fatalf("Expected is_authorized=false before callback, got %s", rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/calendar/callback?code=xyz", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/calendar/status", bearer, "")
	if !strings.Contains(rec.Body.String(), `"is_authorized":true`) {
		t.Errorf("Expected is_authorized=true after callback, got %s", rec.Body.String())
	}
}

func TestCalendarCallback_RequiresCode(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodGet, "/calendar/callback", bearerFor(t, user.ID), "")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 without code, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestCalendarEvents_WithoutCredentials(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodGet, "/calendar/events", bearerFor(t, user.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Calendar not authorized") {
		t.Errorf("Unexpected body: %s", rec.Body.String())
	}
}

func TestCalendarEvents_ListAndContext(t *testing.T) {
	mux, store, calendarClient, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")
	bearer := bearerFor(t, user.ID)

	start := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)
	end := start.Add(30 * time.Minute)
	calendarClient.events = []models.CalendarEvent{
		{ID: "e1", Summary: "Standup", Start: &start, End: &end, Location: "room 4"},
	}
	doJSON(t, mux, http.MethodGet, "/calendar/callback?code=xyz", bearer, "")

	rec := doJSON(t, mux, http.MethodGet, "/calendar/events", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Standup"`) {
		t.Errorf("Expected event list, got %s", rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/calendar/events/context", bearer, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["context"], "Standup") || !strings.Contains(body["context"], "room 4") {
		t.Errorf("Unexpected digest: %q", body["context"])
	}
}

func TestCreateCalendarEvent(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")
	bearer := bearerFor(t, user.ID)
	doJSON(t, mux, http.MethodGet, "/calendar/callback?code=xyz", bearer, "")

	rec := doJSON(t, mux, http.MethodPost, "/calendar/events", bearer,
		`{"summary": "Planning", "start": "2025-01-10T09:00:00", "end": "2025-01-10T10:00:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created models.CalendarEvent
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if created.ID == "" || created.Summary != "Planning" {
		t.Errorf("Unexpected created event: %+v", created)
	}

	rec = doJSON(t, mux, http.MethodPost, "/calendar/events", bearer, `{"start": "2025-01-10T09:00:00"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 without summary, got %d", rec.Code)
	}
}

func TestEventToTask(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")
	bearer := bearerFor(t, user.ID)

	rec := doJSON(t, mux, http.MethodPost, "/calendar/events/e1/to-task", bearer,
		`{"title": "Prepare standup notes", "due_date": "2025-01-10T10:00:00"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task models.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	if task.Source != models.TaskSourceCalendar || task.CalendarEventID != "e1" {
		t.Errorf("Unexpected task: %+v", task)
	}

	// Converting the same event twice must conflict.
	rec = doJSON(t, mux, http.MethodPost, "/calendar/events/e1/to-task", bearer,
		`{"title": "Prepare standup notes"}`)
	if rec.Code != http.StatusConflict {
		t.Errorf("Expected 409 on second conversion, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), shared.CodeConflict) {
		t.Errorf("Expected CONFLICT code, got %s", rec.Body.String())
	}
}

func TestEventToTask_UnknownAction(t *testing.T) {
	mux, store, _, _ := setupHTTP(t)
	user := createTestUser(t, store, "alice")

	rec := doJSON(t, mux, http.MethodPost, "/calendar/events/e1/archive", bearerFor(t, user.ID), "{}")
	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown action, got %d", rec.Code)
	}
}
