// Package styles defines the shared lipgloss styles for shell output.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	ERROR   = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Render
	NOTICE  = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Render
	MUTED   = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render
	HEADING = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true).Render

	ToolName     = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Render
	ResourceName = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Render

	PromptPrefix = lipgloss.NewStyle().Foreground(lipgloss.Color("114")).Bold(true)

	MenuItem     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	MenuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("235")).Background(lipgloss.Color("114"))
	MenuDesc     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)
