package view

import (
	"strings"
	"testing"

	"github.com/composehq/composeweb/internal/auth"
	"github.com/composehq/composeweb/internal/form"
)

func TestNewRendererParsesAllPages(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	for _, page := range []string{
		"home", "contact", "login", "register", "account",
		"account_settings", "admin_users", "admin_user_edit",
		"admin_contact", "admin_contact_entry",
	} {
		if _, ok := r.pages[page]; !ok {
			t.Errorf("page %q not parsed", page)
		}
	}
}

func TestRenderContactPage(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	f := form.New("/contact", form.MethodPost)
	f.AddField(form.NewField(form.Definition{Name: "email", Label: "Email", Type: "email", Required: true}))
	sub := f.ProcessRequest(&form.TestRequest{ReqMethod: "GET"})

	var b strings.Builder
	err = r.Render(&b, "contact", Page{
		Title: "Contact",
		Data: struct {
			Title      string
			Submission *form.Submission
		}{"Contact", sub},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := b.String()
	for _, want := range []string{
		"<title>Contact - Compose</title>",
		`<form method="post" action="/contact"`,
		`name="` + form.FormKey + `"`,
		"Send message",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(out, "Log out") {
		t.Error("anonymous render should not show the logout control")
	}
}

func TestRenderShowsIdentityNav(t *testing.T) {
	r, _ := NewRenderer()

	var b strings.Builder
	err := r.Render(&b, "home", Page{
		Identity: &auth.Identity{Email: "admin@example.com", Roles: []string{"admin"}},
		Flashes:  []Flash{{Kind: "success", Message: "Saved."}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	out := b.String()
	for _, want := range []string{"admin@example.com", "/admin/users", "alert-success", "Saved."} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestRenderUnknownPage(t *testing.T) {
	r, _ := NewRenderer()
	if err := r.Render(&strings.Builder{}, "nope", Page{}); err == nil {
		t.Error("expected error for unknown page")
	}
}
