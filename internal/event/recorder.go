package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Recorder persists events into the audit trail.
type Recorder struct {
	db *sql.DB
}

func NewRecorder(db *sql.DB) *Recorder {
	return &Recorder{db: db}
}

// Record writes a single event row. Payload defaults to an empty object so
// readers never deal with NULL JSON.
func (r *Recorder) Record(ctx context.Context, e Event) error {
	payload := e.Payload
	if len(payload) == 0 {
		payload = json.RawMessage(`{}`)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, event_type, occurred_at, actor, summary, payload)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.Type, e.OccurredAt.UTC().Format(time.RFC3339Nano), e.Actor, e.Summary, string(payload))
	if err != nil {
		return fmt.Errorf("recording event %s: %w", e.Type, err)
	}
	return nil
}

// Recent returns the newest events, most recent first.
func (r *Recorder) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, occurred_at, actor, summary, payload
		FROM events
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e       Event
			at      string
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Type, &at, &e.Actor, &e.Summary, &payload); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339Nano, at)
		e.Payload = json.RawMessage(payload)
		out = append(out, e)
	}
	return out, rows.Err()
}
