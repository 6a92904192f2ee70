package ui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	agentStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	promptStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("228"))
	stepStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
	finalStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("118"))
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("63"))
	liveURLStyle   = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
)
