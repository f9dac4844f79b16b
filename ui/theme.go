package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme is the color scheme of the TUI.
type Theme int

const (
	ThemeLight Theme = iota
	ThemeDark
)

func (t Theme) String() string {
	if t == ThemeDark {
		return "dark"
	}
	return "light"
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// detectTheme resolves a theme setting. "auto" asks the terminal for its
// background color.
func detectTheme(setting string) Theme {
	switch strings.ToLower(setting) {
	case "light":
		return ThemeLight
	case "dark":
		return ThemeDark
	default:
		if termenv.HasDarkBackground() {
			return ThemeDark
		}
		return ThemeLight
	}
}

type palette struct {
	fg, subtle, faint lipgloss.Color
	accent, accentFg  lipgloss.Color
	border, focus     lipgloss.Color
	errFg, errBg      lipgloss.Color
	speaking, pending lipgloss.Color
	barBg             lipgloss.Color
}

var palettes = map[Theme]palette{
	ThemeLight: {
		fg:       lipgloss.Color("#1A1A1A"),
		subtle:   lipgloss.Color("#656565"),
		faint:    lipgloss.Color("#949494"),
		accent:   lipgloss.Color("#5A56E0"),
		accentFg: lipgloss.Color("#FFFDF5"),
		border:   lipgloss.Color("#DCDCDC"),
		focus:    lipgloss.Color("#5A56E0"),
		errFg:    lipgloss.Color("#9B1C1C"),
		errBg:    lipgloss.Color("#FDE8E8"),
		speaking: lipgloss.Color("#1C8760"),
		pending:  lipgloss.Color("#2563EB"),
		barBg:    lipgloss.Color("#E6E6E6"),
	},
	ThemeDark: {
		fg:       lipgloss.Color("#DDDDDD"),
		subtle:   lipgloss.Color("#7D7D7D"),
		faint:    lipgloss.Color("#5A5A5A"),
		accent:   lipgloss.Color("#7571F9"),
		accentFg: lipgloss.Color("#FFFDF5"),
		border:   lipgloss.Color("#323232"),
		focus:    lipgloss.Color("#7571F9"),
		errFg:    lipgloss.Color("#FCA5A5"),
		errBg:    lipgloss.Color("#3B1212"),
		speaking: lipgloss.Color("#89F0CB"),
		pending:  lipgloss.Color("#60A5FA"),
		barBg:    lipgloss.Color("#242424"),
	},
}

type styles struct {
	palette palette

	title     lipgloss.Style
	subtitle  lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	subtle    lipgloss.Style
	selected  lipgloss.Style
	errorBox  lipgloss.Style
	speaking  lipgloss.Style
	panel     lipgloss.Style
	focused   lipgloss.Style
	statusBar lipgloss.Style
	message   lipgloss.Style
	barFilled lipgloss.Style
	barEmpty  lipgloss.Style
}

func newStyles(t Theme) styles {
	p := palettes[t]
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.border).
		Padding(0, 1)

	return styles{
		palette:   p,
		title:     lipgloss.NewStyle().Bold(true).Foreground(p.accentFg).Background(p.accent).Padding(0, 1),
		subtitle:  lipgloss.NewStyle().Foreground(p.subtle),
		label:     lipgloss.NewStyle().Foreground(p.subtle).Width(8),
		value:     lipgloss.NewStyle().Foreground(p.fg),
		subtle:    lipgloss.NewStyle().Foreground(p.faint),
		selected:  lipgloss.NewStyle().Foreground(p.accent).Bold(true),
		errorBox:  lipgloss.NewStyle().Foreground(p.errFg).Background(p.errBg).Padding(0, 1),
		speaking:  lipgloss.NewStyle().Foreground(p.speaking),
		panel:     panel,
		focused:   panel.BorderForeground(p.focus),
		statusBar: lipgloss.NewStyle().Foreground(p.subtle).Background(p.barBg),
		message:   lipgloss.NewStyle().Foreground(p.speaking).Background(p.barBg),
		barFilled: lipgloss.NewStyle().Foreground(p.accent),
		barEmpty:  lipgloss.NewStyle().Foreground(p.border),
	}
}
