package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Faint(true)

	cellStyle = lipgloss.NewStyle().
			Width(12).
			Padding(0, 1)

	bannerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("124")).
			Padding(0, 1)

	userLabelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	timestampStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	errorTurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderLeft(true).
			BorderForeground(lipgloss.Color("196")).
			PaddingLeft(1)

	statusStyles = map[string]lipgloss.Style{
		"loading":  lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		"ready":    lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		"degraded": lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
)
