package output

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/url"
	"slices"
	"strings"

	"github.com/namelens/adlens/internal/view"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Depths offered by the search form. The configured default and the depth
// of the last search are added when missing.
var Depths = []string{"quick", "deep"}

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"pathEscape":       url.PathEscape,
	"captchaMessage":   func() string { return view.CaptchaMessage },
	"noResultsMessage": func() string { return view.NoResultsMessage },
	"notAvailable":     func() string { return view.NotAvailable },
}).ParseFS(templateFS, "templates/*.html.tmpl"))

// Page renders the single web UI page.
type Page struct {
	Legacy bool
	// DefaultDepth is preselected when the view carries no depth.
	DefaultDepth string
}

// NewPage returns a page renderer; legacy shows the legacy filter controls.
func NewPage(legacy bool) *Page {
	return &Page{Legacy: legacy}
}

type pageData struct {
	View   *view.View
	Legacy bool
	Depths []string
	Depth  string
}

// Render writes the full HTML document for v.
func (p *Page) Render(w io.Writer, v *view.View) error {
	if v == nil {
		v = view.New()
	}
	selected := strings.TrimSpace(v.Input.Depth)
	if selected == "" {
		selected = strings.TrimSpace(p.DefaultDepth)
	}
	return pageTemplate.ExecuteTemplate(w, "page", pageData{
		View:   v,
		Legacy: p.Legacy,
		Depths: depthOptions(p.DefaultDepth, selected),
		Depth:  selected,
	})
}

func depthOptions(extra ...string) []string {
	options := append([]string(nil), Depths...)
	for _, depth := range extra {
		depth = strings.TrimSpace(depth)
		if depth == "" {
			continue
		}
		if !slices.Contains(options, depth) {
			options = append(options, depth)
		}
	}
	return options
}

// HTMLFormatter renders the view-model as a standalone HTML page.
type HTMLFormatter struct {
	Page *Page
}

// Format renders v as HTML.
func (f *HTMLFormatter) Format(v *view.View) (string, error) {
	page := f.Page
	if page == nil {
		page = NewPage(false)
	}
	var buf bytes.Buffer
	if err := page.Render(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// NewPageFormatter returns an HTML formatter; legacy shows the legacy filter controls.
func NewPageFormatter(legacy bool) *HTMLFormatter {
	return &HTMLFormatter{Page: NewPage(legacy)}
}
