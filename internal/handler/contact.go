package handler

import (
	"net/http"

	"github.com/composehq/composeweb/internal/config"
	"github.com/composehq/composeweb/internal/contact"
	"github.com/composehq/composeweb/internal/event"
	"github.com/composehq/composeweb/internal/form"
)

// ContactHandler serves the public contact form.
type ContactHandler struct {
	deps    *Deps
	contact *contact.Service
	cfg     config.ContactConfig
}

func NewContactHandler(deps *Deps, svc *contact.Service, cfg config.ContactConfig) *ContactHandler {
	return &ContactHandler{deps: deps, contact: svc, cfg: cfg}
}

type contactPage struct {
	Title      string
	Submission *form.Submission
}

// Contact renders and processes the configured contact form. The form slug
// is fixed to "default" for the public page.
func (h *ContactHandler) Contact(w http.ResponseWriter, r *http.Request) {
	const slug = "default"
	formCfg, ok := h.cfg.Forms[slug]
	if !ok {
		http.NotFound(w, r)
		return
	}

	f, err := h.deps.Builder.Build("/contact", formCfg.Fields, form.MethodPost, nil)
	if err != nil {
		serverError(w, err)
		return
	}
	store := sessionOf(r)
	f.SetCSRFProvider(csrfProvider(store))

	req := form.FromHTTP(r)
	f.RestoreFrom(req)
	sub := f.ProcessRequest(req)

	if sub.IsValidSubmit() {
		entryID, err := h.contact.HandleSubmission(r.Context(), slug, sub)
		if err != nil {
			serverError(w, err)
			return
		}
		values := sub.Values()
		submittedEmail, _ := values["email"].(string)
		submittedSubject, _ := values["subject"].(string)
		h.deps.publish(r.Context(), event.NewContactSubmitted(event.ContactSubmittedPayload{
			EntryID:  entryID,
			FormSlug: slug,
			Email:    submittedEmail,
			Subject:  submittedSubject,
		}))
		addFlash(store, "success", h.cfg.Messages.Success)
		redirect(w, r, "/contact")
		return
	}

	status := http.StatusOK
	if sub.IsSubmitted() {
		status = http.StatusUnprocessableEntity
		addFlash(store, "danger", h.cfg.Messages.Error)
	}
	h.deps.render(w, r, status, "contact", formCfg.Title, contactPage{
		Title:      formCfg.Title,
		Submission: sub,
	})
}
