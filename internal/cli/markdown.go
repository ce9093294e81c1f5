package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// renderMarkdown renders an issue description for the terminal. Styled
// output is used on a terminal only; otherwise the plain "notty" style keeps
// piped output readable. Rendering errors fall back to the raw text.
func renderMarkdown(md string, width int, styled bool) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "notty"
	if styled {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
