// Package ui provides the visual styling for the Nihara terminal app.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Nihara palette: deep night blues with a rose accent; the pro unlock
// swaps the accent to gold.
var (
	// Light mode colors
	LightBackground = lipgloss.Color("#f7f5fa")
	LightForeground = lipgloss.Color("#241b35")
	LightPrimary    = lipgloss.Color("#6d4aa3")
	LightAccent     = lipgloss.Color("#e0558f")
	LightMuted      = lipgloss.Color("#8a8399")
	LightBorder     = lipgloss.Color("#d9d3e3")

	// Dark mode colors
	DarkBackground = lipgloss.Color("#161022")
	DarkForeground = lipgloss.Color("#ece8f4")
	DarkPrimary    = lipgloss.Color("#b392e8")
	DarkAccent     = lipgloss.Color("#f273a8")
	DarkMuted      = lipgloss.Color("#6f6785")
	DarkBorder     = lipgloss.Color("#3a3152")

	// Semantic colors (same in both modes)
	ProGold     = lipgloss.Color("#e8b63a")
	Destructive = lipgloss.Color("#e05555")
	Success     = lipgloss.Color("#6fc67d")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// ThemeFor maps a configured theme name to a Theme. Anything but "light"
// is dark; NIHARA_LIGHT_MODE=1 forces light for terminals that need it.
func ThemeFor(name string) Theme {
	if name == "light" || os.Getenv("NIHARA_LIGHT_MODE") == "1" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds all styled components for the chat interface.
type Styles struct {
	Theme Theme

	// Layout
	Header lipgloss.Style
	Footer lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style

	// Interactive
	Prompt      lipgloss.Style
	UserInput   lipgloss.Style
	UserLabel   lipgloss.Style
	NiharaLabel lipgloss.Style
	ModeTab     lipgloss.Style
	ActiveTab   lipgloss.Style

	// Status
	Success  lipgloss.Style
	Error    lipgloss.Style
	ProBadge lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles creates a Styles instance with the given theme. The pro flag
// swaps the accent for the gold pro treatment.
func NewStyles(theme Theme, pro bool) Styles {
	accent := theme.Accent
	if pro {
		accent = ProGold
	}

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Prompt: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		UserLabel: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		NiharaLabel: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		ModeTab: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		ActiveTab: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Padding(0, 1).
			Underline(true),

		Success: lipgloss.NewStyle().
			Foreground(Success),

		Error: lipgloss.NewStyle().
			Foreground(Destructive),

		ProBadge: lipgloss.NewStyle().
			Foreground(ProGold).
			Bold(true),

		Spinner: lipgloss.NewStyle().
			Foreground(accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}
