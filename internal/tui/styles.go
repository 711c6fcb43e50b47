package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/faraz/taskctl/pkg/task"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("62")  // Purple
	secondaryColor = lipgloss.Color("241") // Gray

	// Status colors
	notStartedColor = lipgloss.Color("196") // Red
	inProgressColor = lipgloss.Color("214") // Orange
	completedColor  = lipgloss.Color("42")  // Green
	overdueColor    = lipgloss.Color("196") // Red
	dueTodayColor   = lipgloss.Color("39")  // Cyan

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")). // Yellow
			Background(lipgloss.Color("57"))   // Purple

	normalStyle = lipgloss.NewStyle()

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(secondaryColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	overdueStyle = lipgloss.NewStyle().
			Foreground(overdueColor)

	dueTodayStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(dueTodayColor)

	completedStyle = lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(secondaryColor)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusNotStarted: lipgloss.NewStyle().Foreground(notStartedColor),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(inProgressColor),
		task.StatusCompleted:  lipgloss.NewStyle().Foreground(completedColor),
	}
)

// StatusStyle returns the style for a given status
func StatusStyle(status task.Status) lipgloss.Style {
	if style, ok := statusStyles[status]; ok {
		return style
	}
	return normalStyle
}
