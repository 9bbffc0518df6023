package handlers

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/mzurek/taskpilot/assistant"
	"github.com/mzurek/taskpilot/db"
	"github.com/mzurek/taskpilot/models"
	"github.com/mzurek/taskpilot/shared"
	"github.com/mzurek/taskpilot/tasks"
)

// CalendarClient is the calendar surface the handlers need; satisfied by
// gcal.Client and by test fakes.
type CalendarClient interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UpcomingEvents(ctx context.Context, creds *models.CalendarCredentials, maxResults int64) ([]models.CalendarEvent, error)
	CreateEvent(ctx context.Context, creds *models.CalendarCredentials, event models.CalendarEvent) (*models.CalendarEvent, error)
}

// AssistantClient is the chat/transcription surface; satisfied by
// assistant.Client and by test fakes.
type AssistantClient interface {
	Chat(ctx context.Context, messages []assistant.Message) (string, error)
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

type Handler struct {
	Store       *db.Store
	TaskService *tasks.Service
	Calendar    CalendarClient
	Assistant   AssistantClient
	RateLimiter *RateLimiter
}

type contextKey string

const userContextKey contextKey = "user"

func userFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

func isJSONContentType(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.HasPrefix(contentType, "application/json")
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// connection's remote address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx != -1 {
		host = host[:idx]
	}
	return host
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	shared.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type RateLimiter struct {
	attempts map[string]int
	limit    int
	mutex    sync.Mutex
	window   time.Duration
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rateLimiter := &RateLimiter{
		attempts: make(map[string]int),
		limit:    limit,
		window:   window,
	}
	go rateLimiter.cleanup()
	return rateLimiter
}

// reset the attempts map every window duration
func (rateLimiter *RateLimiter) cleanup() {
	for range time.Tick(rateLimiter.window) {
		rateLimiter.mutex.Lock()
		rateLimiter.attempts = make(map[string]int)
		rateLimiter.mutex.Unlock()
	}
}

func (rateLimiter *RateLimiter) Allow(ip string) bool {
	rateLimiter.mutex.Lock()
	defer rateLimiter.mutex.Unlock()

	count, exists := rateLimiter.attempts[ip]
	if !exists {
		rateLimiter.attempts[ip] = 1
		return true
	}
	if count >= rateLimiter.limit {
		return false
	}
	rateLimiter.attempts[ip]++
	return true
}
