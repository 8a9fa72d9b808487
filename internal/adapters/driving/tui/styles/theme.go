// Package styles holds the palette and lipgloss styles shared by the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the palette. Each colour adapts to light and dark terminals.
type Theme struct {
	Accent    lipgloss.AdaptiveColor
	User      lipgloss.AdaptiveColor
	Text      lipgloss.AdaptiveColor
	Faint     lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Good      lipgloss.AdaptiveColor
	Caution   lipgloss.AdaptiveColor
	Bad       lipgloss.AdaptiveColor
	Frame     lipgloss.AdaptiveColor
	Bar       lipgloss.AdaptiveColor
}

// DefaultTheme returns the canvasrag palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:    lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#A78BFA"},
		User:      lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#22D3EE"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E5E7EB"},
		Faint:     lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"},
		Highlight: lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#4C1D95"},
		Good:      lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#86EFAC"},
		Caution:   lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#FCD34D"},
		Bad:       lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#FCA5A5"},
		Frame:     lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"},
		Bar:       lipgloss.AdaptiveColor{Light: "#F3F4F6", Dark: "#111827"},
	}
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Help     lipgloss.Style
	Selected lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style

	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Border     lipgloss.Style

	// UserLabel and AssistantLabel prefix transcript turns.
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
}

// NewStyles derives styles from theme, or from DefaultTheme when nil.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}

	return &Styles{
		theme: theme,

		Title:    fg(theme.Accent).Bold(true),
		Subtitle: fg(theme.User),
		Normal:   fg(theme.Text),
		Muted:    fg(theme.Faint),
		Help:     fg(theme.Faint).Italic(true),
		Selected: fg(theme.Text).Background(theme.Highlight).Bold(true),

		Error:   fg(theme.Bad),
		Success: fg(theme.Good),
		Warning: fg(theme.Caution),

		InputField: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),
		StatusBar: fg(theme.Faint).Background(theme.Bar).Padding(0, 1),
		Border: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(theme.Frame),

		UserLabel:      fg(theme.User).Bold(true),
		AssistantLabel: fg(theme.Accent).Bold(true),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}

// Score picks a style for a similarity in [0, 1]: strong matches render
// as Success, weak ones as Warning.
func (s *Styles) Score(similarity float64) lipgloss.Style {
	switch {
	case similarity >= 0.75:
		return s.Success
	case similarity >= 0.5:
		return s.Normal
	default:
		return s.Warning
	}
}
