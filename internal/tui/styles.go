package tui

import "github.com/charmbracelet/lipgloss"

// Exported constants.
const (
	// KeyCtrlC is the key binding for cancellation
	KeyCtrlC = "ctrl+c"
	// TickIntervalMs is the interval for elapsed-time refreshes in milliseconds
	TickIntervalMs = 250
)

func spinnerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColorCode))
}

func labelStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(highlightColorCode)).Bold(true)
}

func dimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(dimColorCode))
}

func successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(successColorCode)).Bold(true)
}

func errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(errorColorCode)).Bold(true)
}

// unexported constants.
const (
	dimColorCode       = "240" // Dark gray
	errorColorCode     = "196" // Red
	highlightColorCode = "86"  // Cyan
	primaryColorCode   = "205" // Pink/purple
	successColorCode   = "42"  // Green
)
