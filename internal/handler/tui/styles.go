// Package tui is the terminal client: a bubbletea program that renders the
// navigator's session one screen at a time.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"TrackBets/internal/domain/models"
)

var (
	// Dark mode
	DarkForeground = lipgloss.Color("#f2f2f2")
	DarkPrimary    = lipgloss.Color("#5ac53b") // brand green
	DarkMuted      = lipgloss.Color("#6b7280")
	DarkBorder     = lipgloss.Color("#2c2c2e")
	DarkCard       = lipgloss.Color("#1c1c1e")

	// Light mode
	LightForeground = lipgloss.Color("#101f38")
	LightPrimary    = lipgloss.Color("#2e7d32")
	LightMuted      = lipgloss.Color("#8a94a6")
	LightBorder     = lipgloss.Color("#dce0e5")
	LightCard       = lipgloss.Color("#ffffff")

	Up      = lipgloss.Color("#5ac53b")
	Down    = lipgloss.Color("#ff5000")
	Warning = lipgloss.Color("#ffc107")
	Info    = lipgloss.Color("#2196f3")
)

// Theme holds the current color scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// ThemeFor maps the ui.theme setting to a theme. Anything but "light" is dark.
func ThemeFor(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds all the styled components.
type Styles struct {
	Theme Theme

	App    lipgloss.Style
	Header lipgloss.Style
	Footer lipgloss.Style
	Card   lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Selected   lipgloss.Style
	Unselected lipgloss.Style
	Label      lipgloss.Style

	Up      lipgloss.Style
	Down    lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Verdict lipgloss.Style
	Banner  lipgloss.Style
	Spinner lipgloss.Style
}

func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		App: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Padding(1, 2),

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			MarginTop(1),

		Card: lipgloss.NewStyle().
			Background(theme.Card).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Title: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true).
			MarginBottom(1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Selected: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Unselected: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Label: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Bold(true),

		Up: lipgloss.NewStyle().
			Foreground(Up).
			Bold(true),

		Down: lipgloss.NewStyle().
			Foreground(Down).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Down).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		Verdict: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1),

		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(Warning).
			Bold(true).
			Padding(0, 1),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Primary),
	}
}

// DefaultStyles returns the dark styles.
func DefaultStyles() Styles {
	return NewStyles(DarkTheme())
}

// VerdictStyle colors a verdict signal: buys green, sells red, the rest amber.
func (s Styles) VerdictStyle(signal string) lipgloss.Style {
	switch signal {
	case models.SignalBuy, models.SignalStrongBuy:
		return s.Verdict.Foreground(lipgloss.Color("#000000")).Background(Up)
	case models.SignalSell, models.SignalStrongSell:
		return s.Verdict.Foreground(lipgloss.Color("#ffffff")).Background(Down)
	}
	return s.Verdict.Foreground(lipgloss.Color("#000000")).Background(Warning)
}

// Change renders a signed percentage in the up or down color.
func (s Styles) Change(pct float64, text string) string {
	if pct < 0 {
		return s.Down.Render(text)
	}
	return s.Up.Render(text)
}
