package handler

import (
	"errors"
	"net/http"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/user"
)

// AccountHandler serves the signed-in user's dashboard and settings. Routes
// are behind the auth guard, so the identity is always present.
type AccountHandler struct {
	deps *Deps
}

func NewAccountHandler(deps *Deps) *AccountHandler {
	return &AccountHandler{deps: deps}
}

type accountPage struct {
	User *user.User
}

type settingsPage struct {
	EmailForm    *form.Submission
	PasswordForm *form.Submission
}

func emailFields(current string) form.Definitions {
	return form.Definitions{
		{Name: "email", Label: "New email", Type: "email", Required: true, Value: current,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "email"}}},
	}
}

func passwordFields() form.Definitions {
	return form.Definitions{
		{Name: "current_password", Label: "Current password", Type: "password", Required: true},
		{Name: "password", Label: "New password", Type: "password", Required: true,
			Validators: form.Rules{{Name: "string_length", Args: []any{8, 128}}}},
		{Name: "password_confirm", Label: "Confirm new password", Type: "password", Required: true,
			Validators: form.Rules{{Name: "match_field", Args: []any{"password"}}}},
	}
}

func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	identity := h.deps.currentIdentity(r)
	u, err := h.deps.Users.GetByID(r.Context(), identity.ID)
	if err != nil {
		serverError(w, err)
		return
	}
	if u == nil {
		// Account deleted while the session was still alive.
		h.deps.authService(sessionOf(r)).Logout()
		redirect(w, r, "/")
		return
	}
	h.deps.render(w, r, http.StatusOK, "account", "Your account", accountPage{User: u})
}

// settingsForms builds both settings forms. The two forms post to distinct
// actions so a submission only ever targets one of them.
func (h *AccountHandler) settingsForms(r *http.Request, currentEmail string) (*form.Form, *form.Form, error) {
	store := sessionOf(r)
	emailForm, err := h.deps.Builder.Build("/account/settings/email", emailFields(currentEmail), form.MethodPost, nil)
	if err != nil {
		return nil, nil, err
	}
	passwordForm, err := h.deps.Builder.Build("/account/settings/password", passwordFields(), form.MethodPost, nil)
	if err != nil {
		return nil, nil, err
	}
	emailForm.SetCSRFProvider(csrfProvider(store))
	passwordForm.SetCSRFProvider(csrfProvider(store))
	return emailForm, passwordForm, nil
}

func (h *AccountHandler) Settings(w http.ResponseWriter, r *http.Request) {
	identity := h.deps.currentIdentity(r)
	emailForm, passwordForm, err := h.settingsForms(r, identity.Email)
	if err != nil {
		serverError(w, err)
		return
	}

	h.deps.render(w, r, http.StatusOK, "account_settings", "Settings", settingsPage{
		EmailForm:    emailForm.ProcessRequest(nonSubmission()),
		PasswordForm: passwordForm.ProcessRequest(nonSubmission()),
	})
}

func (h *AccountHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	identity := h.deps.currentIdentity(r)
	emailForm, passwordForm, err := h.settingsForms(r, identity.Email)
	if err != nil {
		serverError(w, err)
		return
	}

	req := form.FromHTTP(r)
	sub := emailForm.RestoreFrom(req).ProcessRequest(req)
	if sub.IsValidSubmit() {
		err := h.deps.Users.UpdateEmail(r.Context(), identity.ID, sub.String("email"))
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			sub = sub.WithSubmissionError("That email address is already registered.")
		case err != nil:
			serverError(w, err)
			return
		default:
			h.refreshIdentity(r, identity.ID)
			addFlash(sessionOf(r), "success", "Email updated.")
			redirect(w, r, "/account/settings")
			return
		}
	}

	h.deps.render(w, r, http.StatusUnprocessableEntity, "account_settings", "Settings", settingsPage{
		EmailForm:    sub,
		PasswordForm: passwordForm.ProcessRequest(nonSubmission()),
	})
}

func (h *AccountHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	identity := h.deps.currentIdentity(r)
	emailForm, passwordForm, err := h.settingsForms(r, identity.Email)
	if err != nil {
		serverError(w, err)
		return
	}

	req := form.FromHTTP(r)
	sub := passwordForm.RestoreFrom(req).ProcessRequest(req)
	if sub.IsValidSubmit() {
		u, err := h.deps.Users.GetByID(r.Context(), identity.ID)
		if err != nil {
			serverError(w, err)
			return
		}
		if u == nil || !h.deps.Users.VerifyPassword(sub.String("current_password"), u.PasswordHash) {
			sub = sub.WithSubmissionError("Current password is incorrect.")
		} else {
			if err := h.deps.Users.UpdatePassword(r.Context(), identity.ID, sub.String("password")); err != nil {
				serverError(w, err)
				return
			}
			addFlash(sessionOf(r), "success", "Password updated.")
			redirect(w, r, "/account/settings")
			return
		}
	}

	h.deps.render(w, r, http.StatusUnprocessableEntity, "account_settings", "Settings", settingsPage{
		EmailForm:    emailForm.ProcessRequest(nonSubmission()),
		PasswordForm: sub,
	})
}

// refreshIdentity reloads the stored identity after a profile change so the
// session reflects the new email immediately.
func (h *AccountHandler) refreshIdentity(r *http.Request, userID int64) {
	u, err := h.deps.Users.GetByID(r.Context(), userID)
	if err != nil || u == nil {
		return
	}
	auth.NewSessionStorage(sessionOf(r)).Store(identityFromUser(u))
}

func identityFromUser(u *user.User) *auth.Identity {
	return &auth.Identity{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		Roles:       u.Roles,
		Profile:     u.Profile,
		Preferences: u.Preferences,
	}
}

// nonSubmission is a canned GET request, used to render a blank companion
// form on a page with more than one form.
func nonSubmission() form.Request {
	return &form.TestRequest{ReqMethod: form.MethodGet}
}
