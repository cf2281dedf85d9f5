package main

import "github.com/charmbracelet/lipgloss"

// Styles for status lines written around yt-dlp's own output
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Subtle  lipgloss.Style
	Summary lipgloss.Style
}

var styles = NewStyles()

// NewStyles returns the CLI palette
func NewStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Width(12),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Subtle:  lipgloss.NewStyle().Foreground(lipgloss.Color("243")),
		Summary: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func field(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, styles.Label.Render(label), value)
}
