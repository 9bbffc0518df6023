package db

import "database/sql"

// Schema is portable between postgres (production) and sqlite (tests).
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	username VARCHAR(255) NOT NULL UNIQUE,
	email VARCHAR(255) NOT NULL UNIQUE,
	password_hash VARCHAR(255) NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title VARCHAR(255) NOT NULL,
	description TEXT,
	due_date TIMESTAMP,
	priority VARCHAR(16) NOT NULL DEFAULT 'medium',
	source VARCHAR(16) NOT NULL DEFAULT 'manual',
	calendar_event_id TEXT,
	status VARCHAR(16) NOT NULL DEFAULT 'pending',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks (user_id);

CREATE TABLE IF NOT EXISTS calendar_credentials (
	user_id TEXT PRIMARY KEY,
	token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	token_expiry TIMESTAMP NOT NULL,
	scopes TEXT,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

func Migrate(conn *sql.DB) error {
	_, err := conn.Exec(Schema)
	return err
}
