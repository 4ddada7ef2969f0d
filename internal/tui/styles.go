package tui

import "github.com/charmbracelet/lipgloss"

var (
	panelBorder   = lipgloss.Color("#2D6A80")
	accentPrimary = lipgloss.Color("#50E3C2")
	accentWarm    = lipgloss.Color("#F6AE2D")
	mutedText     = lipgloss.Color("#8CA1AE")
	successText   = lipgloss.Color("#7BD88F")
	warningText   = lipgloss.Color("#FF6B6B")
)

var (
	headerStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Bold(true).
			Foreground(accentPrimary)

	badgeStyle = lipgloss.NewStyle().
			Foreground(accentWarm)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(panelBorder).
			Padding(0, 1)

	focusedPanelStyle = panelStyle.
				BorderForeground(accentPrimary)

	panelTitleStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(accentPrimary).
			Bold(true).
			Underline(true)

	tabStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	selectedStyle = lipgloss.NewStyle().
			Foreground(accentWarm).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedText)

	successStyle = lipgloss.NewStyle().
			Foreground(successText)

	errorStyle = lipgloss.NewStyle().
			Foreground(warningText).
			Bold(true)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(accentPrimary).
			Padding(1, 2)

	progressFill  = lipgloss.NewStyle().Foreground(accentPrimary)
	progressEmpty = lipgloss.NewStyle().Foreground(mutedText)
)
