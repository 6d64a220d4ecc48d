package tui

import "github.com/charmbracelet/lipgloss"

// Colours of the NixOS snowflake.
var (
	nixBlue      = lipgloss.AdaptiveColor{Light: "#415E9A", Dark: "#5277C3"}
	nixLightBlue = lipgloss.AdaptiveColor{Light: "#5277C3", Dark: "#7EBAE4"}
	muted        = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(nixLightBlue)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(nixBlue)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7EC699"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E06C75"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E5C07B"))

	dimStyle = lipgloss.NewStyle().
			Foreground(muted)

	versionStyle = dimStyle.Italic(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F4FA")).
			Background(nixBlue).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(nixLightBlue).
			Bold(true)
)
