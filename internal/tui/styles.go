package tui

import "github.com/charmbracelet/lipgloss"

// The palette mirrors the product theme: slate background, blue primary.
var (
	colorPrimary   = lipgloss.Color("#3b82f6")
	colorBorder    = lipgloss.Color("#334155")
	colorText      = lipgloss.Color("#ffffff")
	colorSecondary = lipgloss.Color("#64748b")
)

var (
	userBubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Foreground(colorText).
			Padding(0, 1)

	coachBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorBorder).
				Foreground(colorText).
				Padding(0, 1)

	selectedBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.ThickBorder()).
				BorderForeground(colorPrimary).
				Padding(0, 1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorPrimary).
			Width(MenuWidth).
			Padding(0, 1)

	recordingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true)

	quickActionStyle = lipgloss.NewStyle().
				Foreground(colorSecondary).
				Border(lipgloss.NormalBorder()).
				BorderForeground(colorBorder).
				Padding(0, 1)
)
