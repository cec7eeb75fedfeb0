package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorOK      = lipgloss.Color("#95E1A3")
	colorWarning = lipgloss.Color("#FFB347")
	colorError   = lipgloss.Color("#FF6B6B")
	colorNav     = lipgloss.Color("#4ECDC4")
	colorMuted   = lipgloss.Color("#888888")
)

var (
	okStyle      = lipgloss.NewStyle().Foreground(colorOK)
	warningStyle = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	navStyle     = lipgloss.NewStyle().Foreground(colorNav)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
)
