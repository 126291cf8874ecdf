// Package event defines the application's domain events and the audit-trail
// recorder consuming them.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event carries the canonical shape of every domain event.
type Event struct {
	ID         string
	Type       string
	OccurredAt time.Time
	// Actor is the acting identity's email, or "anonymous".
	Actor   string
	Summary string
	Payload json.RawMessage
}

const (
	TypeUserRegistered   = "user_registered"
	TypeUserLoggedIn     = "user_logged_in"
	TypeUserLoginFailed  = "user_login_failed"
	TypeContactSubmitted = "contact_submitted"
)

func newEvent(eventType, actor, summary string, payload any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Summary:    summary,
		Payload:    mustJSON(payload),
	}
}

func mustJSON(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// UserRegisteredPayload carries event-specific data for UserRegistered.
type UserRegisteredPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserRegistered(p UserRegisteredPayload) Event {
	return newEvent(TypeUserRegistered, p.Email,
		fmt.Sprintf("User %s registered", p.Email), p)
}

// UserLoggedInPayload carries event-specific data for UserLoggedIn.
type UserLoggedInPayload struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

func NewUserLoggedIn(p UserLoggedInPayload) Event {
	return newEvent(TypeUserLoggedIn, p.Email,
		fmt.Sprintf("User %s logged in", p.Email), p)
}

// UserLoginFailedPayload records an authentication failure. Only the
// attempted identifier is kept, never the secret.
type UserLoginFailedPayload struct {
	Email string `json:"email"`
}

func NewUserLoginFailed(p UserLoginFailedPayload) Event {
	return newEvent(TypeUserLoginFailed, "anonymous",
		fmt.Sprintf("Failed login for %s", p.Email), p)
}

// ContactSubmittedPayload carries event-specific data for ContactSubmitted.
type ContactSubmittedPayload struct {
	EntryID  int64  `json:"entry_id"`
	FormSlug string `json:"form_slug"`
	Email    string `json:"email"`
	Subject  string `json:"subject"`
}

func NewContactSubmitted(p ContactSubmittedPayload) Event {
	actor := p.Email
	if actor == "" {
		actor = "anonymous"
	}
	return newEvent(TypeContactSubmitted, actor,
		fmt.Sprintf("Contact submission #%d on form %s", p.EntryID, p.FormSlug), p)
}
