package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/mzurek/taskpilot/models"
)

type CredentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetByUser(ctx context.Context, userID string) (*models.CalendarCredentials, error) {
	query := `SELECT user_id, token, refresh_token, token_expiry, scopes, created_at, updated_at
	 FROM calendar_credentials WHERE user_id = $1`
	creds := &models.CalendarCredentials{}
	var scopes string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&creds.UserID, &creds.Token, &creds.RefreshToken, &creds.TokenExpiry,
		&scopes, &creds.CreatedAt, &creds.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if scopes != "" {
		creds.Scopes = strings.Split(scopes, " ")
	}
	return creds, nil
}

// Upsert stores the credentials, replacing any existing record for the user.
func (r *CredentialRepository) Upsert(ctx context.Context, creds *models.CalendarCredentials) error {
	now := time.Now().UTC()
	creds.UpdatedAt = now
	if creds.CreatedAt.IsZero() {
		creds.CreatedAt = now
	}
	scopes := strings.Join(creds.Scopes, " ")

	query := `INSERT INTO calendar_credentials (user_id, token, refresh_token, token_expiry, scopes, created_at, updated_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7)
	 ON CONFLICT (user_id) DO UPDATE SET
	 token = EXCLUDED.token, refresh_token = EXCLUDED.refresh_token,
	 token_expiry = EXCLUDED.token_expiry, scopes = EXCLUDED.scopes,
	 updated_at = EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, query, creds.UserID, creds.Token, creds.RefreshToken,
		creds.TokenExpiry, scopes, creds.CreatedAt, creds.UpdatedAt)
	return err
}
