package tui

import "github.com/charmbracelet/lipgloss"

// Color Palette
// This is the single source of truth for all TUI colors.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // primary accent
	coralPink   = lipgloss.Color("#FFCCCB") // secondary accent
	mintGreen   = lipgloss.Color("#A8E6CF") // success/enabled states
	mutedGray   = lipgloss.Color("#6B7280") // secondary text and disabled controls
	brightWhite = lipgloss.Color("#F9FAFB") // primary text
)

// Common Styles
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	tipsStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	paneTitleStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Bold(true)

	itemStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	futureStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	enabledStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	disabledStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Strikethrough(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)

	activePaneStyle = paneStyle.
			BorderForeground(salmonPink)

	overlayStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	// OverlayTitleStyle is used for main overlay titles
	OverlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(salmonPink)

	// OverlayHelpStyle is used for help text and hints
	OverlayHelpStyle = lipgloss.NewStyle().
				Foreground(mutedGray).
				Italic(true)
)
