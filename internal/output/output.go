// Package output renders a view.View for terminals, files and the web UI.
package output

import (
	"fmt"
	"strings"

	"github.com/namelens/adlens/internal/view"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formatter renders a view-model snapshot.
type Formatter interface {
	Format(v *view.View) (string, error)
}

// Options tune the renderers that support them.
type Options struct {
	// Color enables ANSI colour in table output.
	Color bool
	// Legacy shows the legacy filter controls in HTML output.
	Legacy bool
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatYAML), "yml":
		return FormatYAML, nil
	case string(FormatMarkdown), "md":
		return FormatMarkdown, nil
	case string(FormatHTML):
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format, opts Options) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	case FormatHTML:
		return &HTMLFormatter{Page: NewPage(opts.Legacy)}
	default:
		return &TableFormatter{Color: opts.Color}
	}
}

// stateMessage is the one-line text of the non-result states.
func stateMessage(v *view.View) string {
	switch v.State {
	case view.StateLoading:
		return "Searching..."
	case view.StateError:
		return "Error: " + v.ErrorMessage
	case view.StateCaptchaWarning:
		return view.CaptchaMessage
	case view.StateNoResults:
		return view.NoResultsMessage
	default:
		return ""
	}
}

func dropshippingLabel(flag bool) string {
	if flag {
		return "dropshipping"
	}
	return ""
}
