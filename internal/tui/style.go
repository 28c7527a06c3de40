package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Tiliavir/plaid/internal/model"
	"github.com/Tiliavir/plaid/internal/prefs"
)

type styles struct {
	theme    prefs.Theme
	header   lipgloss.Style
	dayHead  lipgloss.Style
	today    lipgloss.Style
	gutter   lipgloss.Style
	grid     lipgloss.Style
	working  lipgloss.Style
	gap      lipgloss.Style
	marker   lipgloss.Style
	selected lipgloss.Style
	draft    lipgloss.Style
	status   lipgloss.Style
	errText  lipgloss.Style
}

func newStyles(theme prefs.Theme) styles {
	fg := adaptive(theme, "#1f2328", "#e6edf3")
	muted := adaptive(theme, "#8c959f", "#6e7681")
	line := adaptive(theme, "#d0d7de", "#30363d")
	work := adaptive(theme, "#f6f8fa", "#161b22")
	return styles{
		theme:    theme,
		header:   lipgloss.NewStyle().Bold(true).Foreground(fg),
		dayHead:  lipgloss.NewStyle().Foreground(fg),
		today:    lipgloss.NewStyle().Bold(true).Underline(true).Foreground(fg),
		gutter:   lipgloss.NewStyle().Foreground(muted),
		grid:     lipgloss.NewStyle().Foreground(line),
		working:  lipgloss.NewStyle().Background(work).Foreground(line),
		gap:      lipgloss.NewStyle().Foreground(muted).Faint(true),
		marker:   lipgloss.NewStyle().Foreground(lipgloss.Color("#e5534b")).Bold(true),
		selected: lipgloss.NewStyle().Reverse(true),
		draft:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#0969da")),
		status:   lipgloss.NewStyle().Foreground(muted),
		errText:  lipgloss.NewStyle().Foreground(lipgloss.Color("#e5534b")),
	}
}

// adaptive picks a colour for the theme; the system theme follows the
// terminal background.
func adaptive(theme prefs.Theme, light, dark string) lipgloss.TerminalColor {
	switch theme {
	case prefs.ThemeLight:
		return lipgloss.Color(light)
	case prefs.ThemeDark:
		return lipgloss.Color(dark)
	}
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

// issueStyle colours a work-log block by its issue's hue.
func (s styles) issueStyle(issue *model.Issue) lipgloss.Style {
	h := float64(issue.Hue())
	bgLight := colorful.Hsl(h, 0.55, 0.85).Hex()
	bgDark := colorful.Hsl(h, 0.45, 0.30).Hex()
	fgLight := colorful.Hsl(h, 0.60, 0.20).Hex()
	fgDark := colorful.Hsl(h, 0.50, 0.90).Hex()
	return lipgloss.NewStyle().
		Background(adaptive(s.theme, bgLight, bgDark)).
		Foreground(adaptive(s.theme, fgLight, fgDark))
}
