package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/event"
	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/user"
)

// AuthHandler serves login, registration, and logout.
type AuthHandler struct {
	deps      *Deps
	loginPath string
}

func NewAuthHandler(deps *Deps, loginPath string) *AuthHandler {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &AuthHandler{deps: deps, loginPath: loginPath}
}

func loginFields() form.Definitions {
	return form.Definitions{
		{Name: "email", Label: "Email", Type: "email", Required: true,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "email"}}},
		{Name: "password", Label: "Password", Type: "password", Required: true},
	}
}

func registerFields() form.Definitions {
	return form.Definitions{
		{Name: "email", Label: "Email", Type: "email", Required: true,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "email"}}},
		{Name: "username", Label: "Username", Type: "text",
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "string_length", Args: []any{3, 32}}}},
		{Name: "password", Label: "Password", Type: "password", Required: true,
			Validators: form.Rules{{Name: "string_length", Args: []any{8, 128}}}},
		{Name: "password_confirm", Label: "Confirm password", Type: "password", Required: true,
			Validators: form.Rules{{Name: "match_field", Args: []any{"password"}}}},
	}
}

type authPage struct {
	Submission *form.Submission
}

func (h *AuthHandler) buildForm(r *http.Request, action string, defs form.Definitions) (*form.Form, error) {
	f, err := h.deps.Builder.Build(action, defs, form.MethodPost, nil)
	if err != nil {
		return nil, err
	}
	f.SetCSRFProvider(csrfProvider(sessionOf(r)))
	f.RestoreFrom(form.FromHTTP(r))
	return f, nil
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// The action keeps the redirect target so it survives the POST.
	action := h.loginPath
	if target := r.URL.Query().Get("redirect"); target != "" {
		action += "?redirect=" + url.QueryEscape(target)
	}
	f, err := h.buildForm(r, action, loginFields())
	if err != nil {
		serverError(w, err)
		return
	}
	sub := f.ProcessRequest(form.FromHTTP(r))

	if !sub.IsValidSubmit() {
		status := http.StatusOK
		if sub.IsSubmitted() {
			status = http.StatusUnprocessableEntity
		}
		h.deps.render(w, r, status, "login", "Log in", authPage{sub})
		return
	}

	store := sessionOf(r)
	identity, err := h.deps.authService(store).Authenticate(auth.Credential{
		Type:       auth.CredentialTypePassword,
		Identifier: sub.String("email"),
		Secret:     sub.String("password"),
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.deps.publish(r.Context(), event.NewUserLoginFailed(event.UserLoginFailedPayload{
				Email: sub.String("email"),
			}))
			sub = sub.WithSubmissionError("Invalid email or password.")
			h.deps.render(w, r, http.StatusUnprocessableEntity, "login", "Log in", authPage{sub})
			return
		}
		serverError(w, err)
		return
	}

	h.deps.publish(r.Context(), event.NewUserLoggedIn(event.UserLoggedInPayload{
		UserID: identity.ID,
		Email:  identity.Email,
	}))
	addFlash(store, "success", "Welcome back.")
	redirect(w, r, safeRedirect(r.FormValue("redirect"), "/account"))
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	f, err := h.buildForm(r, "/register", registerFields())
	if err != nil {
		serverError(w, err)
		return
	}
	sub := f.ProcessRequest(form.FromHTTP(r))

	if !sub.IsValidSubmit() {
		status := http.StatusOK
		if sub.IsSubmitted() {
			status = http.StatusUnprocessableEntity
		}
		h.deps.render(w, r, status, "register", "Register", authPage{sub})
		return
	}

	userID, err := h.deps.Users.Register(r.Context(), sub.String("email"), sub.String("username"), sub.String("password"))
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			sub = sub.WithSubmissionError("That email address is already registered.")
			h.deps.render(w, r, http.StatusUnprocessableEntity, "register", "Register", authPage{sub})
			return
		}
		serverError(w, err)
		return
	}

	h.deps.publish(r.Context(), event.NewUserRegistered(event.UserRegisteredPayload{
		UserID: userID,
		Email:  sub.String("email"),
	}))
	addFlash(sessionOf(r), "success", "Account created. You can log in now.")
	redirect(w, r, h.loginPath)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.deps.authService(sessionOf(r)).Logout()
	redirect(w, r, "/")
}

// safeRedirect only allows same-site relative targets.
func safeRedirect(target, fallback string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return fallback
	}
	return target
}

// currentIdentity is a convenience for handlers that already guarded the
// route and just need the identity payload.
func (d *Deps) currentIdentity(r *http.Request) *auth.Identity {
	return d.authService(sessionOf(r)).CurrentIdentity()
}
