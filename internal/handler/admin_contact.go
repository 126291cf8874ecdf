package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/composehq/composeweb/internal/contact"
)

// AdminContactHandler serves the contact inbox behind the admin ACL rule.
type AdminContactHandler struct {
	deps    *Deps
	entries *contact.Repository
}

func NewAdminContactHandler(deps *Deps, entries *contact.Repository) *AdminContactHandler {
	return &AdminContactHandler{deps: deps, entries: entries}
}

type inboxPage struct {
	Entries []*contact.Entry
}

type inboxEntryPage struct {
	Entry     *contact.Entry
	TagsValue string
}

func (h *AdminContactHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	entries, err := h.entries.Recent(r.Context(), 100)
	if err != nil {
		serverError(w, err)
		return
	}
	h.deps.render(w, r, http.StatusOK, "admin_contact", "Contact inbox", inboxPage{Entries: entries})
}

func (h *AdminContactHandler) Entry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	h.deps.render(w, r, http.StatusOK, "admin_contact_entry", "Entry", inboxEntryPage{
		Entry:     entry,
		TagsValue: strings.Join(entry.Tags, ", "),
	})
}

// ToggleRead flips the read flag.
func (h *AdminContactHandler) ToggleRead(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	if err := h.entries.SetRead(r.Context(), entry.ID, !entry.Read); err != nil {
		serverError(w, err)
		return
	}
	redirect(w, r, entryPath(entry.ID))
}

// ToggleStar flips the starred flag.
func (h *AdminContactHandler) ToggleStar(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	if err := h.entries.SetStarred(r.Context(), entry.ID, !entry.Starred); err != nil {
		serverError(w, err)
		return
	}
	redirect(w, r, entryPath(entry.ID))
}

// SaveTags replaces the entry's tags from a comma-separated input.
func (h *AdminContactHandler) SaveTags(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	if err := h.entries.SetTags(r.Context(), entry.ID, splitCommaList(r.FormValue("tags"))); err != nil {
		serverError(w, err)
		return
	}
	addFlash(sessionOf(r), "success", "Tags saved.")
	redirect(w, r, entryPath(entry.ID))
}

func (h *AdminContactHandler) loadEntry(w http.ResponseWriter, r *http.Request) (*contact.Entry, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	entry, err := h.entries.Find(r.Context(), id)
	if err != nil {
		serverError(w, err)
		return nil, false
	}
	if entry == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return entry, true
}

func entryPath(id int64) string {
	return "/admin/contact/" + strconv.FormatInt(id, 10)
}
