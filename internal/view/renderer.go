package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/composehq/composeweb/internal/auth"
)

//go:embed templates
var templateFS embed.FS

// Flash is a one-shot message shown on the next render.
type Flash struct {
	Kind    string
	Message string
}

// Page is the data every template receives. Data carries the page-specific
// payload.
type Page struct {
	Title    string
	Identity *auth.Identity
	Flashes  []Flash
	Data     any
}

// Renderer holds the parsed page templates. Each page is parsed together
// with the shared layout, so pages only define their content block.
type Renderer struct {
	pages map[string]*template.Template
}

var funcMap = template.FuncMap{
	"renderForm":  RenderForm,
	"renderField": RenderField,
}

// NewRenderer parses all embedded templates. Fails fast so a broken template
// is a startup error, not a request error.
func NewRenderer() (*Renderer, error) {
	entries, err := fs.ReadDir(templateFS, "templates/pages")
	if err != nil {
		return nil, fmt.Errorf("view: reading templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(entries))
	for _, entry := range entries {
		name := strings.TrimSuffix(entry.Name(), ".html")
		tmpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templateFS,
			"templates/layout.html", path.Join("templates/pages", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("view: parsing %s: %w", entry.Name(), err)
		}
		pages[name] = tmpl
	}
	return &Renderer{pages: pages}, nil
}

// Render executes the named page into w.
func (r *Renderer) Render(w io.Writer, page string, data Page) error {
	tmpl, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("view: unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
