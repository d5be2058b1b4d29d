package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor = "#7C3AED"
	okColor      = "#10B981"
	warningColor = "#F59E0B"
	dangerColor  = "#EF4444"
	dimColor     = "#6B7280"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)

	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(dimColor))
	timerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(okColor)).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(warningColor)).Bold(true)
	dangerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(dangerColor)).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(dangerColor))
	aiStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor))
	userStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(okColor))
	selectStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(primaryColor)).Bold(true)
)
