package ui

import "github.com/charmbracelet/lipgloss"

// Color palette shared by every CLI surface.
var (
	salmonPink  = lipgloss.Color("#FFB3BA") // failures
	mintGreen   = lipgloss.Color("#A8E6CF") // success
	mutedGray   = lipgloss.Color("#6B7280") // secondary text
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	failureStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	valueStyle = lipgloss.NewStyle().
			Foreground(brightWhite).
			Underline(true)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(salmonPink)
)

// Success renders a check-marked line.
func Success(msg string) string {
	return successStyle.Render("✓") + " " + msg
}

// Failure renders a cross-marked line.
func Failure(msg string) string {
	return failureStyle.Render("✗") + " " + msg
}

// Muted renders secondary text.
func Muted(msg string) string {
	return mutedStyle.Render(msg)
}

// KeyValue renders "key: value" with the value emphasised.
func KeyValue(key, value string) string {
	return mutedStyle.Render(key+":") + " " + valueStyle.Render(value)
}
