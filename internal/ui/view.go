package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha subset.
const (
	colorMauve   lipgloss.Color = "#cba6f7"
	colorGreen   lipgloss.Color = "#a6e3a1"
	colorRed     lipgloss.Color = "#f38ba8"
	colorText    lipgloss.Color = "#cdd6f4"
	colorOverlay lipgloss.Color = "#6c7086"
	colorSurface lipgloss.Color = "#313244"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve)

	counterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGreen).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorOverlay)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorText)
)

// View renders the counter.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("statebus counter"))
	b.WriteString("\n\n")

	if !m.ready {
		b.WriteString(statusStyle.Render("connecting to backend..."))
		b.WriteString("\n")
	} else {
		b.WriteString(counterStyle.Render(fmt.Sprintf("%d", m.value)))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("+/i/space increment · r reset · q quit"))
	b.WriteString("\n")

	return b.String()
}
