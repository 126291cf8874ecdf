// Package handler serves the HTML pages: public forms, authentication,
// account self-service, and the admin screens.
package handler

import (
	"context"
	"log"
	"net/http"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/event"
	"github.com/composehq/composeweb/internal/eventbus"
	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/security"
	"github.com/composehq/composeweb/internal/session"
	"github.com/composehq/composeweb/internal/user"
	"github.com/composehq/composeweb/internal/view"
)

const flashSessionKey = "__FLASH__"

// Deps are the long-lived services handlers share. Session-scoped services
// (CSRF provider, auth service) are constructed per request.
type Deps struct {
	Renderer *view.Renderer
	Users    *user.Service
	Hasher   auth.PasswordHasher
	Builder  *form.Builder
	Events   eventbus.Publisher
}

// publish emits a domain event when a bus is wired. Handlers stay usable
// without one in tests.
func (d *Deps) publish(ctx context.Context, evt event.Event) {
	if d.Events == nil {
		return
	}
	d.Events.Publish(ctx, evt)
}

// sessionOf returns the request's session. The session middleware runs on
// every route, so a missing session is a programming error worth a panic in
// development; we degrade to a throwaway store instead.
func sessionOf(r *http.Request) session.Store {
	if store, ok := session.FromContext(r.Context()); ok {
		return store
	}
	log.Printf("handler: no session on %s %s", r.Method, r.URL.Path)
	return session.NewMemoryStore()
}

func csrfProvider(store session.Store) form.CSRFTokenProvider {
	return security.NewSessionTokenProvider(store, security.DefaultFieldName)
}

// authService builds the per-request auth service backed by this session.
func (d *Deps) authService(store session.Store) *auth.Service {
	return auth.NewService(
		auth.NewSessionStorage(store),
		auth.NewPasswordAuthenticator(d.Users, d.Hasher),
	)
}

// render writes the page with the current identity and any pending flashes.
func (d *Deps) render(w http.ResponseWriter, r *http.Request, status int, page string, title string, data any) {
	store := sessionOf(r)
	p := view.Page{
		Title:    title,
		Identity: d.authService(store).CurrentIdentity(),
		Flashes:  popFlashes(store),
		Data:     data,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := d.Renderer.Render(w, page, p); err != nil {
		log.Printf("render %s: %v", page, err)
	}
}

func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// serverError logs the cause and shows a plain 500. Handlers never leak
// internals to the page.
func serverError(w http.ResponseWriter, err error) {
	log.Printf("internal error: %v", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// Home renders the landing page.
func (d *Deps) Home(w http.ResponseWriter, r *http.Request) {
	d.render(w, r, http.StatusOK, "home", "", nil)
}

func addFlash(store session.Store, kind, message string) {
	flashes, _ := store.Get(flashSessionKey, nil).([]view.Flash)
	store.Set(flashSessionKey, append(flashes, view.Flash{Kind: kind, Message: message}))
}

// popFlashes drains pending flashes so each shows exactly once.
func popFlashes(store session.Store) []view.Flash {
	flashes, _ := store.Get(flashSessionKey, nil).([]view.Flash)
	store.Unset(flashSessionKey)
	return flashes
}
