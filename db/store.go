package db

import (
	"context"
	"errors"

	"github.com/mzurek/taskpilot/models"
)

// ErrNotFound is returned by every store when no record matches.
// Adapters map their driver-specific sentinel (sql.ErrNoRows,
// mongo.ErrNoDocuments) to it so callers never import a driver.
var ErrNotFound = errors.New("record not found")

// UserStore defines methods for user db operations.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// TaskStore defines methods for task db operations. Every query is scoped
// by the owning user's id.
type TaskStore interface {
	Insert(ctx context.Context, task *models.Task) error
	ListByUser(ctx context.Context, userID string) ([]*models.Task, error)
	GetByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error)
	GetByCalendarEvent(ctx context.Context, userID, eventID string) (*models.Task, error)
	UpdateByIDAndUser(ctx context.Context, id, userID string, patch *models.TaskPatch) (*models.Task, error)
	DeleteByIDAndUser(ctx context.Context, id, userID string) (*models.Task, error)
}

// CredentialStore defines methods for calendar credential db operations.
type CredentialStore interface {
	GetByUser(ctx context.Context, userID string) (*models.CalendarCredentials, error)
	Upsert(ctx context.Context, creds *models.CalendarCredentials) error
}

// Store bundles the per-entity stores behind one lifecycle: opened at
// process start, closed at shutdown.
type Store struct {
	Users       UserStore
	Tasks       TaskStore
	Credentials CredentialStore

	closer func() error
}

// NewStore assembles a Store from adapter-provided repositories. closer
// releases the adapter's underlying connection and may be nil.
func NewStore(users UserStore, tasks TaskStore, creds CredentialStore, closer func() error) *Store {
	return &Store{Users: users, Tasks: tasks, Credentials: creds, closer: closer}
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
