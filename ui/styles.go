package ui

import "github.com/charmbracelet/lipgloss"

// Styles used by the wallet view
type Styles struct {
	Header   lipgloss.Style
	Title    lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Link     lipgloss.Style
	Footer   lipgloss.Style
}

// DefaultStyles returns the standard palette
func DefaultStyles() Styles {
	primary := lipgloss.Color("#7D56F4")
	muted := lipgloss.Color("#777777")

	return Styles{
		Header: lipgloss.NewStyle().
			Background(primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),
		Title: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Muted: lipgloss.NewStyle().
			Foreground(muted),
		Selected: lipgloss.NewStyle().
			Foreground(primary).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")),
		Success: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")),
		Link: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#5FAFFF")).
			Underline(true),
		Footer: lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1),
	}
}
