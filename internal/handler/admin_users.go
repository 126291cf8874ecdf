package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/composehq/composeweb/internal/form"
	"github.com/composehq/composeweb/internal/user"
)

// AdminUsersHandler serves the user management screens. Routes sit behind
// the admin ACL rule.
type AdminUsersHandler struct {
	deps *Deps
}

func NewAdminUsersHandler(deps *Deps) *AdminUsersHandler {
	return &AdminUsersHandler{deps: deps}
}

type adminUsersPage struct {
	Users        []*user.User
	FilterEmail  string
	FilterStatus string
}

type adminUserEditPage struct {
	Title      string
	Submission *form.Submission
}

func statusOptions() []form.Option {
	return []form.Option{
		{Value: "1", Label: "Active"},
		{Value: "0", Label: "Disabled"},
	}
}

func adminUserFields(u *user.User) form.Definitions {
	var email, username, status, roles any
	status = "1"
	profile := "{}"
	preferences := "{}"
	passwordLabel := "Password"
	passwordHelp := "Leave blank to keep the current password."
	passwordRequired := false
	if u == nil {
		passwordHelp = ""
		passwordRequired = true
	} else {
		email = u.Email
		username = u.Username
		status = strconv.Itoa(u.Status)
		roles = strings.Join(u.Roles, ", ")
		profile = jsonValue(u.Profile)
		preferences = jsonValue(u.Preferences)
	}

	return form.Definitions{
		{Name: "email", Label: "Email", Type: "email", Required: true, Value: email,
			Filters:    form.Rules{{Name: "trim"}},
			Validators: form.Rules{{Name: "email"}}},
		{Name: "username", Label: "Username", Type: "text", Value: username,
			Filters: form.Rules{{Name: "trim"}}},
		{Name: "status", Label: "Status", Type: "select", Required: true, Value: status,
			Options: statusOptions()},
		{Name: "roles", Label: "Roles", Type: "text", Value: roles,
			Help:    "Comma-separated role slugs, e.g. admin, editor.",
			Filters: form.Rules{{Name: "trim"}}},
		{Name: "profile", Label: "Profile", Type: "textarea", Value: profile,
			Help: "JSON object."},
		{Name: "preferences", Label: "Preferences", Type: "textarea", Value: preferences,
			Help: "JSON object."},
		{Name: "password", Label: passwordLabel, Type: "password",
			Required: passwordRequired, Help: passwordHelp},
	}
}

func jsonValue(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

var errInvalidJSON = errors.New("invalid JSON object")

// decodeJSONObject accepts an empty textarea as an empty object.
func decodeJSONObject(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, errInvalidJSON
	}
	return out, nil
}

func (h *AdminUsersHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := user.ListFilter{Email: r.URL.Query().Get("email")}
	statusParam := r.URL.Query().Get("status")
	if statusParam != "" {
		if status, err := strconv.Atoi(statusParam); err == nil {
			filter.Status = &status
		}
	}

	users, err := h.deps.Users.List(r.Context(), filter)
	if err != nil {
		serverError(w, err)
		return
	}
	h.deps.render(w, r, http.StatusOK, "admin_users", "Users", adminUsersPage{
		Users:        users,
		FilterEmail:  filter.Email,
		FilterStatus: statusParam,
	})
}

func (h *AdminUsersHandler) New(w http.ResponseWriter, r *http.Request) {
	f, err := h.buildForm(r, "/admin/users/new", nil)
	if err != nil {
		serverError(w, err)
		return
	}

	req := form.FromHTTP(r)
	sub := f.ProcessRequest(req)

	if sub.IsValidSubmit() {
		id, err := h.deps.Users.Register(r.Context(), sub.String("email"), sub.String("username"), sub.String("password"))
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			sub = sub.WithSubmissionError("That email address is already registered.")
		case err != nil:
			serverError(w, err)
			return
		default:
			err := h.applyRolesAndStatus(r, id, sub, nil)
			switch {
			case errors.Is(err, errInvalidJSON):
				sub = sub.WithSubmissionError("Profile and preferences must be valid JSON objects.")
			case err != nil:
				serverError(w, err)
				return
			default:
				addFlash(sessionOf(r), "success", "User created.")
				redirect(w, r, "/admin/users")
				return
			}
		}
	}

	status := http.StatusOK
	if sub.IsSubmitted() {
		status = http.StatusUnprocessableEntity
	}
	h.deps.render(w, r, status, "admin_user_edit", "New user", adminUserEditPage{
		Title:      "New user",
		Submission: sub,
	})
}

func (h *AdminUsersHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	u, err := h.deps.Users.GetByID(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return
	}
	if u == nil {
		http.NotFound(w, r)
		return
	}

	f, err := h.buildForm(r, "/admin/users/"+chi.URLParam(r, "id"), u)
	if err != nil {
		serverError(w, err)
		return
	}

	req := form.FromHTTP(r)
	sub := f.ProcessRequest(req)

	if sub.IsValidSubmit() {
		err := h.applyEdit(r, u, sub)
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			sub = sub.WithSubmissionError("That email address is already registered.")
		case errors.Is(err, errInvalidJSON):
			sub = sub.WithSubmissionError("Profile and preferences must be valid JSON objects.")
		case err != nil:
			serverError(w, err)
			return
		default:
			addFlash(sessionOf(r), "success", "User updated.")
			redirect(w, r, "/admin/users")
			return
		}
	}

	status := http.StatusOK
	if sub.IsSubmitted() {
		status = http.StatusUnprocessableEntity
	}
	title := "Edit " + u.Email
	h.deps.render(w, r, status, "admin_user_edit", title, adminUserEditPage{
		Title:      title,
		Submission: sub,
	})
}

func (h *AdminUsersHandler) buildForm(r *http.Request, action string, u *user.User) (*form.Form, error) {
	f, err := h.deps.Builder.Build(action, adminUserFields(u), form.MethodPost, nil)
	if err != nil {
		return nil, err
	}
	f.SetCSRFProvider(csrfProvider(sessionOf(r)))
	f.RestoreFrom(form.FromHTTP(r))
	return f, nil
}

func (h *AdminUsersHandler) applyEdit(r *http.Request, u *user.User, sub *form.Submission) error {
	status := user.StatusActive
	if sub.String("status") == "0" {
		status = user.StatusDisabled
	}
	profile, err := decodeJSONObject(sub.String("profile"))
	if err != nil {
		return err
	}
	preferences, err := decodeJSONObject(sub.String("preferences"))
	if err != nil {
		return err
	}
	var newHash *string
	if plain := sub.String("password"); plain != "" {
		hash, err := h.deps.Hasher.Hash(plain)
		if err != nil {
			return err
		}
		newHash = &hash
	}
	err = h.deps.Users.AdminUpdate(r.Context(), u.ID,
		sub.String("email"), sub.String("username"), status,
		profile, preferences, newHash)
	if err != nil {
		return err
	}
	return h.deps.Users.ReplaceRoles(r.Context(), u.ID, splitCommaList(sub.String("roles")))
}

// applyRolesAndStatus finishes a create: the register path only sets email,
// username, and password.
func (h *AdminUsersHandler) applyRolesAndStatus(r *http.Request, id int64, sub *form.Submission, _ *user.User) error {
	u, err := h.deps.Users.GetByID(r.Context(), id)
	if err != nil || u == nil {
		return err
	}
	return h.applyEdit(r, u, sub)
}

func splitCommaList(raw string) []string {
	var roles []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}
