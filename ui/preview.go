package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
)

// glamourStyle resolves "auto" against the active theme. Anything else is
// a standard style name or a JSON style path.
func glamourStyle(style string, theme Theme) string {
	if style == "" || style == glamourstyles.AutoStyle {
		if theme == ThemeDark {
			return glamourstyles.DarkStyle
		}
		return glamourstyles.LightStyle
	}
	return style
}

// renderPreview renders the markdown source of the loaded document.
func renderPreview(source, style string, theme Theme, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(glamourStyle(style, theme)),
		glamour.WithWordWrap(max(0, width)),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}
	out, err := r.Render(source)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

func renderPreviewCmd(source, style string, theme Theme, width int) tea.Cmd {
	return func() tea.Msg {
		out, err := renderPreview(source, style, theme, width)
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return statusMsg{text: "Preview unavailable", isErr: true}
		}
		return previewRenderedMsg(out)
	}
}
