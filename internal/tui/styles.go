// Package tui contains the interactive console, the script picker, and the
// run history browser. Rendering follows the level color scheme used across
// the application: dim debug text, green success, orange warnings, red
// errors, and blue system messages.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/autobear/autobear/internal/logline"
)

// Level colors shared by both themes.
const (
	colorSuccess = "#4CAF50"
	colorWarning = "#FF9800"
	colorError   = "#f44336"
	colorSystem  = "#2196F3"

	colorDebugDark  = "#999999"
	colorDebugLight = "#666666"
	colorInfoDark   = "#e0e0e0"
	colorInfoLight  = "#333333"
)

// Styles bundles every lipgloss style the views use, resolved for one theme.
type Styles struct {
	Debug     lipgloss.Style
	Info      lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	System    lipgloss.Style
	Timestamp lipgloss.Style

	Title     lipgloss.Style
	Header    lipgloss.Style
	Label     lipgloss.Style
	Value     lipgloss.Style
	Subtle    lipgloss.Style
	Help      lipgloss.Style
	StatusBar lipgloss.Style
	Box       lipgloss.Style

	TableHeader   lipgloss.Style
	TableSelected lipgloss.Style
}

// NewStyles resolves the style set for a theme. Anything other than "light"
// is treated as the default dark theme.
func NewStyles(theme string) Styles {
	debugColor := colorDebugDark
	infoColor := colorInfoDark
	if theme == "light" {
		debugColor = colorDebugLight
		infoColor = colorInfoLight
	}

	return Styles{
		Debug:     lipgloss.NewStyle().Foreground(lipgloss.Color(debugColor)),
		Info:      lipgloss.NewStyle().Foreground(lipgloss.Color(infoColor)),
		Success:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorSuccess)),
		Warning:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorWarning)),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorError)),
		System:    lipgloss.NewStyle().Foreground(lipgloss.Color(colorSystem)),
		Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color(debugColor)),

		Title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorSystem)),
		Header: lipgloss.NewStyle().Bold(true),
		Label:  lipgloss.NewStyle().Foreground(lipgloss.Color(debugColor)),
		Value:  lipgloss.NewStyle().Bold(true),
		Subtle: lipgloss.NewStyle().Faint(true),
		Help:   lipgloss.NewStyle().Faint(true),
		StatusBar: lipgloss.NewStyle().
			Foreground(lipgloss.Color(infoColor)).
			Background(lipgloss.Color("#144870")).
			Padding(0, 1),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#1f6aa5")).
			Padding(0, 1),

		TableHeader: lipgloss.NewStyle().
			Bold(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#1f6aa5")),
		TableSelected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#1f6aa5")),
	}
}

// ForLevel returns the style used for a message level.
func (s Styles) ForLevel(level logline.Level) lipgloss.Style {
	switch level {
	case logline.LevelDebug:
		return s.Debug
	case logline.LevelSuccess:
		return s.Success
	case logline.LevelWarning:
		return s.Warning
	case logline.LevelError:
		return s.Error
	case logline.LevelSystem:
		return s.System
	default:
		return s.Info
	}
}
