package main

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")) // Pink

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // Cyan
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")) // Red

	changedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")). // Orange
			MarginLeft(2)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("46")). // Green
		MarginLeft(2)
)

// report prints the outcome of a helper for one host.
func report(c interface{ Println(...any) }, changed bool, msg string) {
	if changed {
		c.Println(changedStyle.Render("changed: " + msg))

		return
	}

	c.Println(okStyle.Render("ok: " + msg))
}
