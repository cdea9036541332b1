// Package tui provides the terminal user interface components for violet.
package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/carolin-violet/violet-reminder/internal/model"
)

// Color palette.
var (
	ColorPrimary   = lipgloss.Color("#7C3AED") // Purple
	ColorSecondary = lipgloss.Color("#10B981") // Green
	ColorMuted     = lipgloss.Color("#6B7280") // Gray
	ColorWarning   = lipgloss.Color("#F59E0B") // Yellow
	ColorError     = lipgloss.Color("#EF4444") // Red
	ColorSuccess   = lipgloss.Color("#10B981") // Green
	ColorBorder    = lipgloss.Color("#4B5563") // Dark gray
)

// Base styles.
var (
	// StyleTitle is used for section titles.
	StyleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	// StyleSubtitle is used for secondary information.
	StyleSubtitle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleActive = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	StyleInactive = lipgloss.NewStyle().
			Foreground(ColorMuted)

	StyleWarning = lipgloss.NewStyle().
			Foreground(ColorWarning)

	StyleError = lipgloss.NewStyle().
			Foreground(ColorError)

	// StyleHelp is used for help text at the bottom.
	StyleHelp = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginTop(1)

	// StyleHelpKey is used for keyboard shortcut keys.
	StyleHelpKey = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	// StyleHelpDesc is used for keyboard shortcut descriptions.
	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// StyleButton and StyleButtonFocused render dialog buttons.
	StyleButton = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(0, 2)
	StyleButtonFocused = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(ColorPrimary).
				Padding(0, 2)
)

// Box styles.
var (
	// StyleBox is used for dashboard sections.
	StyleBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2).
			MarginBottom(1)

	// StyleActiveBox is used while geofencing is on.
	StyleActiveBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSuccess).
			Padding(1, 2).
			MarginBottom(1)

	// StyleDialog frames the confirm prompt.
	StyleDialog = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)
)

// DueStyle returns the style for a todo's due status.
func DueStyle(s model.DueStatus) lipgloss.Style {
	switch s {
	case model.DueOverdue:
		return StyleError
	case model.DueWarning:
		return StyleWarning
	default:
		return StyleSubtitle
	}
}
