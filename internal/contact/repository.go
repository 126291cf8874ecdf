package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository persists contact entries in sqlite.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const selectEntry = `
SELECT id, form_slug, email, subject, payload, tags, is_read, is_starred, created_at
FROM contact_entries`

// Record stores a submission payload and returns the new entry id. The email
// and subject columns are denormalized for inbox listing.
func (r *Repository) Record(ctx context.Context, formSlug string, values map[string]any) (int64, error) {
	payload, err := json.Marshal(values)
	if err != nil {
		return 0, fmt.Errorf("contact: encoding payload: %w", err)
	}

	email, _ := values["email"].(string)
	subject, _ := values["subject"].(string)

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO contact_entries (form_slug, email, subject, payload, tags, is_read, is_starred, created_at)
		VALUES (?, ?, ?, ?, '[]', 0, 0, ?)`,
		formSlug, nullable(email), nullable(subject), string(payload),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("contact: recording entry: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]*Entry, error) {
	if limit < 1 {
		limit = 1
	}
	rows, err := r.db.QueryContext(ctx, selectEntry+` ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("contact: listing entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Find returns the entry or nil when it does not exist.
func (r *Repository) Find(ctx context.Context, id int64) (*Entry, error) {
	row := r.db.QueryRowContext(ctx, selectEntry+` WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return entry, err
}

func (r *Repository) SetRead(ctx context.Context, id int64, read bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contact_entries SET is_read = ? WHERE id = ?`, boolInt(read), id)
	return err
}

func (r *Repository) SetStarred(ctx context.Context, id int64, starred bool) error {
	_, err := r.db.ExecContext(ctx, `UPDATE contact_entries SET is_starred = ? WHERE id = ?`, boolInt(starred), id)
	return err
}

// SetTags replaces the entry's tags, dropping empty ones.
func (r *Repository) SetTags(ctx context.Context, id int64, tags []string) error {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag != "" {
			normalized = append(normalized, tag)
		}
	}
	encoded, err := json.Marshal(normalized)
	if err != nil {
		return fmt.Errorf("contact: encoding tags: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `UPDATE contact_entries SET tags = ? WHERE id = ?`, string(encoded), id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var (
		entry      Entry
		email      sql.NullString
		subject    sql.NullString
		payload    string
		tags       sql.NullString
		read       int
		starred    int
		createdRaw string
	)
	err := row.Scan(&entry.ID, &entry.FormSlug, &email, &subject, &payload, &tags, &read, &starred, &createdRaw)
	if err != nil {
		return nil, err
	}

	entry.Email = email.String
	entry.Subject = subject.String
	entry.Read = read != 0
	entry.Starred = starred != 0

	if err := json.Unmarshal([]byte(payload), &entry.Payload); err != nil {
		entry.Payload = map[string]any{}
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &entry.Tags); err != nil {
			entry.Tags = nil
		}
	}
	if ts, err := time.Parse(time.RFC3339, createdRaw); err == nil {
		entry.CreatedAt = ts
	}
	return &entry, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
