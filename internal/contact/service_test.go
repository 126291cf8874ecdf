package contact

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/composehq/composeweb/internal/email"
	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/storage"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(ctx, db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	return db
}

func submissionWith(t *testing.T, values map[string]any) *form.Submission {
	t.Helper()
	f := form.New("/contact", form.MethodPost)
	body := map[string]any{form.FormKey: f.ID()}
	for k, v := range values {
		body[k] = v
	}
	sub := f.ProcessRequest(&form.TestRequest{ReqMethod: "POST", Body: body})
	if !sub.IsValidSubmit() {
		t.Fatalf("submission not valid: %v", sub.Errors())
	}
	return sub
}

func TestHandleSubmissionRecordsAndSends(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testDB(t))

	var sent *email.Message
	emailer := email.NewEmailer(func(msg *email.Message) error {
		sent = msg
		return nil
	})

	svc := NewService(repo, emailer, EmailSettings{
		To:      "inbox@example.com",
		From:    "no-reply@example.com",
		Subject: "Website Contact",
		SubjectMap: map[string]string{
			"sales": "sales@example.com",
		},
	})

	sub := submissionWith(t, map[string]any{
		"name":     "Alice",
		"email":    "alice@example.com",
		"subject":  "sales",
		"message":  "I would like a quote.",
		"_private": "hidden",
	})

	id, err := svc.HandleSubmission(ctx, "default", sub)
	if err != nil {
		t.Fatalf("HandleSubmission: %v", err)
	}

	entry, err := repo.Find(ctx, id)
	if err != nil || entry == nil {
		t.Fatalf("Find = %+v, err %v", entry, err)
	}
	if entry.FormSlug != "default" || entry.Email != "alice@example.com" || entry.Subject != "sales" {
		t.Errorf("entry = %+v", entry)
	}
	if entry.Payload["message"] != "I would like a quote." {
		t.Errorf("payload = %v", entry.Payload)
	}

	if sent == nil {
		t.Fatal("no message sent")
	}
	if sent.Subject != "Website Contact: sales" {
		t.Errorf("subject = %q", sent.Subject)
	}
	if len(sent.To) != 1 || sent.To[0].Email != "sales@example.com" {
		t.Errorf("routed to %v, want sales@example.com", sent.To)
	}
	if sent.From.Email != "alice@example.com" || sent.From.Name != "Alice" {
		t.Errorf("from = %v", sent.From)
	}
	body := sent.Text()
	if !strings.Contains(body, "message: I would like a quote.") {
		t.Errorf("body missing message line:\n%s", body)
	}
	if strings.Contains(body, "_private") || strings.Contains(body, form.FormKey) {
		t.Errorf("body leaks infrastructure fields:\n%s", body)
	}
}

func TestHandleSubmissionDefaultRouting(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testDB(t))

	var sent *email.Message
	emailer := email.NewEmailer(func(msg *email.Message) error {
		sent = msg
		return nil
	})
	svc := NewService(repo, emailer, EmailSettings{To: "inbox@example.com"})

	sub := submissionWith(t, map[string]any{
		"email":   "bob@example.com",
		"subject": "unmapped-topic",
		"message": "hi",
	})
	if _, err := svc.HandleSubmission(ctx, "default", sub); err != nil {
		t.Fatalf("HandleSubmission: %v", err)
	}

	if sent.To[0].Email != "inbox@example.com" {
		t.Errorf("routed to %v, want default inbox", sent.To)
	}
	if sent.Subject != "Contact submission received: unmapped-topic" {
		t.Errorf("subject = %q", sent.Subject)
	}
}

func TestRepositoryInboxOperations(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(testDB(t))

	first, err := repo.Record(ctx, "default", map[string]any{"email": "a@example.com"})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	second, _ := repo.Record(ctx, "default", map[string]any{"email": "b@example.com"})

	entries, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 || entries[0].ID != second || entries[1].ID != first {
		t.Fatalf("entries = %+v", entries)
	}
	if entries[0].Read || entries[0].Starred {
		t.Error("new entries should be unread and unstarred")
	}

	if err := repo.SetRead(ctx, first, true); err != nil {
		t.Fatalf("SetRead: %v", err)
	}
	if err := repo.SetStarred(ctx, first, true); err != nil {
		t.Fatalf("SetStarred: %v", err)
	}
	if err := repo.SetTags(ctx, first, []string{"urgent", "", "sales"}); err != nil {
		t.Fatalf("SetTags: %v", err)
	}

	entry, _ := repo.Find(ctx, first)
	if !entry.Read || !entry.Starred {
		t.Errorf("flags = %+v", entry)
	}
	if len(entry.Tags) != 2 || entry.Tags[0] != "urgent" || entry.Tags[1] != "sales" {
		t.Errorf("tags = %v", entry.Tags)
	}

	missing, err := repo.Find(ctx, 9999)
	if err != nil || missing != nil {
		t.Errorf("Find missing = %+v, err %v", missing, err)
	}

	limited, _ := repo.Recent(ctx, 1)
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d entries", len(limited))
	}
}
