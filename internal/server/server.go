// Package server assembles the router, middleware, and handlers, and runs
// the HTTP server.
package server

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/config"
	"github.com/composehq/composeweb/internal/contact"
	"github.com/composehq/composeweb/internal/email"
	"github.com/composehq/composeweb/internal/event"
	"github.com/composehq/composeweb/internal/eventbus"
	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/handler"
	"github.com/composehq/composeweb/internal/session"
	"github.com/composehq/composeweb/internal/user"
	"github.com/composehq/composeweb/internal/validation"
	"github.com/composehq/composeweb/internal/view"
)

// Config carries the assembled application dependencies.
type Config struct {
	App    config.Config
	DB     *sql.DB
	Sender email.Sender
}

// NewRouter wires every route and middleware. Split from Run so tests can
// drive the full stack through httptest.
func NewRouter(cfg Config) (http.Handler, error) {
	renderer, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}

	sender := cfg.Sender
	if sender == nil {
		sender = email.LogSender(nil)
	}

	hasher := auth.NewBcryptHasher(0)
	users := user.NewService(user.NewRepository(cfg.DB), hasher)
	entries := contact.NewRepository(cfg.DB)
	contactSvc := contact.NewService(entries, email.NewEmailer(sender), cfg.App.Contact.Email)

	// The bus lives for the process; ctx cancellation drains it on its own.
	bus := eventbus.New(0)
	bus.Subscribe("log", eventbus.NewLogConsumer())
	bus.Subscribe("audit", eventbus.NewAuditConsumer(event.NewRecorder(cfg.DB)))
	bus.Start(context.Background())

	deps := &handler.Deps{
		Renderer: renderer,
		Users:    users,
		Hasher:   hasher,
		Builder:  form.NewBuilder(validation.DefaultRegistry(), nil),
		Events:   bus,
	}

	sessions := session.NewManager(cfg.App.Session.CookieName, cfg.App.Session.TTL)
	acl := auth.NewACL(cfg.App.ACL.SuperRoles...)

	authH := handler.NewAuthHandler(deps, cfg.App.Auth.LoginPath)
	contactH := handler.NewContactHandler(deps, contactSvc, cfg.App.Contact)
	accountH := handler.NewAccountHandler(deps)
	adminUsersH := handler.NewAdminUsersHandler(deps)
	adminContactH := handler.NewAdminContactHandler(deps, entries)

	r := chi.NewRouter()
	r.Use(handler.Recovery, handler.Logging, sessions.Middleware)
	r.Use(handler.ACLGuard(deps, acl, cfg.App.ACL.Rules, cfg.App.ACL.DenyMessage))

	r.Get("/", deps.Home)
	r.Get("/contact", contactH.Contact)
	r.Post("/contact", contactH.Contact)

	r.Get(cfg.App.Auth.LoginPath, authH.Login)
	r.Post(cfg.App.Auth.LoginPath, authH.Login)
	r.Get("/register", authH.Register)
	r.Post("/register", authH.Register)
	r.Post("/logout", authH.Logout)

	r.Group(func(r chi.Router) {
		r.Use(handler.AuthGuard(deps, cfg.App.Auth.LoginPath, cfg.App.Auth.Guarded))

		r.Get("/account", accountH.Dashboard)
		r.Get("/account/settings", accountH.Settings)
		r.Post("/account/settings/email", accountH.UpdateEmail)
		r.Post("/account/settings/password", accountH.UpdatePassword)

		r.Get("/admin/users", adminUsersH.List)
		r.Get("/admin/users/new", adminUsersH.New)
		r.Post("/admin/users/new", adminUsersH.New)
		r.Get("/admin/users/{id}", adminUsersH.Edit)
		r.Post("/admin/users/{id}", adminUsersH.Edit)

		r.Get("/admin/contact", adminContactH.Inbox)
		r.Get("/admin/contact/{id}", adminContactH.Entry)
		r.Post("/admin/contact/{id}/read", adminContactH.ToggleRead)
		r.Post("/admin/contact/{id}/star", adminContactH.ToggleStar)
		r.Post("/admin/contact/{id}/tags", adminContactH.SaveTags)
	})

	return r, nil
}

// Run starts the HTTP server and shuts it down when ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	router, err := NewRouter(cfg)
	if err != nil {
		return err
	}

	log.Printf("starting server on %s", cfg.App.Addr)
	server := &http.Server{
		Addr:    cfg.App.Addr,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
