package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleLabel   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleFocused = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleButton  = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("25"))
	styleHint    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	styleHelp    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleSpinner = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stylePage    = lipgloss.NewStyle().Padding(1, 2)
)
