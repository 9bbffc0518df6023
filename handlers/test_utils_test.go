package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/mzurek/taskpilot/assistant"
	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/tasks"
)

type fakeCalendar struct {
	events []models.CalendarEvent
	err    error
	calls  int
}

func (f *fakeCalendar) AuthURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (f *fakeCalendar) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &oauth2.Token{
		AccessToken:  "access-" + code,
		RefreshToken: "refresh-" + code,
		Expiry:       time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeCalendar) UpcomingEvents(ctx context.Context, creds *models.CalendarCredentials, maxResults int64) ([]models.CalendarEvent, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(ctx context.Context, creds *models.CalendarCredentials, event models.CalendarEvent) (*models.CalendarEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	created := event
	created.ID = "created-1"
	return &created, nil
}

type fakeAssistant struct {
	reply string
	text  string
	err   error
}

func (f *fakeAssistant) Chat(ctx context.Context, messages []assistant.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAssistant) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func setupHTTP(t *testing.T) (*http.ServeMux, *db.Store, *fakeCalendar, *fakeAssistant) {
	t.Helper()

	_ = os.Setenv("JWT_SECRET", strings.Repeat("a", 32))

	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	store := db.NewSQLStore(conn)
	t.Cleanup(func() { store.Close() })

	calendarClient := &fakeCalendar{}
	assistantClient := &fakeAssistant{}
	h := &Handler{
		Store:       store,
		TaskService: tasks.NewService(store.Tasks, store.Credentials, calendarClient),
		Calendar:    calendarClient,
		Assistant:   assistantClient,
		RateLimiter: NewRateLimiter(100, time.Minute),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/register", h.Register)
	mux.HandleFunc("/auth/login", h.Login)
	mux.HandleFunc("/auth/refresh", h.Refresh)
	mux.HandleFunc("/auth/me", h.AuthMiddleware(h.Me))
	mux.HandleFunc("/tasks", h.AuthMiddleware(h.HandleTasks))
	mux.HandleFunc("/tasks/grouped", h.AuthMiddleware(h.HandleGroupedTasks))
	mux.HandleFunc("/tasks/", h.AuthMiddleware(h.HandleTaskByID))
	mux.HandleFunc("/calendar/auth", h.AuthMiddleware(h.HandleCalendarAuth))
	mux.HandleFunc("/calendar/callback", h.AuthMiddleware(h.HandleCalendarCallback))
	mux.HandleFunc("/calendar/events", h.AuthMiddleware(h.HandleCalendarEvents))
	mux.HandleFunc("/calendar/events/context", h.AuthMiddleware(h.HandleCalendarEventsContext))
	mux.HandleFunc("/calendar/events/", h.AuthMiddleware(h.HandleCalendarEventByID))
	mux.HandleFunc("/calendar/status", h.AuthMiddleware(h.HandleCalendarStatus))
	mux.HandleFunc("/chat", h.AuthMiddleware(h.HandleChat))
	mux.HandleFunc("/whisper/transcribe", h.AuthMiddleware(h.HandleTranscribe))

	return mux, store, calendarClient, assistantClient
}

func createTestUser(t *testing.T, store *db.Store, username string) *models.User {
	t.Helper()

	hash, _ := bcrypt.GenerateFromPassword([]byte("strongpass"), bcrypt.MinCost)
	now := time.Now().UTC()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Users.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func bearerFor(t *testing.T, userID string) string {
	t.Helper()
	token, err := generateAccessToken(userID)
	if err != nil {
		t.Fatalf("sign jwt: %v", err)
	}
	return "Bearer " + token
}
