package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"github.com/composehq/composeweb/internal/storage"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func TestRecordAndRecent(t *testing.T) {
	db := testDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	first := NewUserRegistered(UserRegisteredPayload{UserID: 1, Email: "a@example.com"})
	second := NewContactSubmitted(ContactSubmittedPayload{EntryID: 4, FormSlug: "default", Email: "b@example.com", Subject: "sales"})
	if err := rec.Record(ctx, first); err != nil {
		t.Fatalf("recording first: %v", err)
	}
	if err := rec.Record(ctx, second); err != nil {
		t.Fatalf("recording second: %v", err)
	}

	got, err := rec.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Type != TypeContactSubmitted {
		t.Errorf("newest event type = %q, want %q", got[0].Type, TypeContactSubmitted)
	}
	if got[0].Actor != "b@example.com" {
		t.Errorf("actor = %q, want b@example.com", got[0].Actor)
	}

	var payload ContactSubmittedPayload
	if err := json.Unmarshal(got[0].Payload, &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	if payload.EntryID != 4 || payload.FormSlug != "default" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	db := testDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := rec.Record(ctx, NewUserLoginFailed(UserLoginFailedPayload{Email: "x@example.com"})); err != nil {
			t.Fatalf("recording: %v", err)
		}
	}

	got, err := rec.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
}

func TestRecordDefaultsEmptyPayload(t *testing.T) {
	db := testDB(t)
	rec := NewRecorder(db)
	ctx := context.Background()

	evt := Event{ID: "fixed-id", Type: "custom", Actor: "anonymous", Summary: "bare event"}
	if err := rec.Record(ctx, evt); err != nil {
		t.Fatalf("recording: %v", err)
	}

	got, err := rec.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if string(got[0].Payload) != "{}" {
		t.Errorf("payload = %s, want {}", got[0].Payload)
	}
}

func TestConstructorsFillMetadata(t *testing.T) {
	evt := NewUserLoggedIn(UserLoggedInPayload{UserID: 9, Email: "c@example.com"})
	if evt.ID == "" {
		t.Error("missing id")
	}
	if evt.OccurredAt.IsZero() {
		t.Error("missing timestamp")
	}
	if evt.Actor != "c@example.com" {
		t.Errorf("actor = %q", evt.Actor)
	}

	anon := NewContactSubmitted(ContactSubmittedPayload{EntryID: 1, FormSlug: "default"})
	if anon.Actor != "anonymous" {
		t.Errorf("actor = %q, want anonymous", anon.Actor)
	}
}
