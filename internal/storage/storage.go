// Package storage opens the sqlite database and applies the schema.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a sqlite database with foreign keys enabled. The driver is not
// safe for concurrent writers, so the pool is capped at one connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: enabling foreign keys: %w", err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email TEXT NOT NULL,
		username TEXT,
		password_hash TEXT NOT NULL,
		status INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		last_login_at TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_uq ON users (email)`,
	`CREATE TABLE IF NOT EXISTS users_metadata (
		user_id INTEGER PRIMARY KEY REFERENCES users (id) ON DELETE CASCADE,
		profile TEXT NOT NULL,
		preferences TEXT NOT NULL,
		data TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS roles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS roles_slug_uq ON roles (slug)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		role_id INTEGER NOT NULL REFERENCES roles (id) ON DELETE CASCADE,
		PRIMARY KEY (user_id, role_id)
	)`,
	`CREATE TABLE IF NOT EXISTS contact_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		form_slug TEXT NOT NULL,
		email TEXT,
		subject TEXT,
		payload TEXT NOT NULL,
		tags TEXT,
		is_read INTEGER NOT NULL DEFAULT 0,
		is_starred INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS contact_entries_form_slug_idx ON contact_entries (form_slug)`,
	`CREATE INDEX IF NOT EXISTS contact_entries_created_idx ON contact_entries (created_at)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		actor TEXT NOT NULL,
		summary TEXT NOT NULL,
		payload TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS events_occurred_idx ON events (occurred_at)`,
}

// Migrate applies the schema. Statements are idempotent, so running at every
// startup is safe.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("storage: applying schema: %w", err)
		}
	}
	return nil
}
