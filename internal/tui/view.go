package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	activityStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// View implements tea.Model.
func (a *ChatApp) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	for _, msg := range a.messages {
		switch msg.role {
		case roleUser:
			b.WriteString(userStyle.Render("you: ") + msg.text)
		case roleAssistant:
			b.WriteString(assistantStyle.Render(msg.text))
		case roleSystem:
			b.WriteString(systemStyle.Render(msg.text))
		}
		b.WriteString("\n\n")
	}

	if a.pending {
		b.WriteString(activityStyle.Render(a.spin.View() + " " + a.activity))
		b.WriteString("\n\n")
	}

	b.WriteString(inputBoxStyle.Width(a.width - 2).Render(a.input.View()))
	b.WriteString("\n")
	b.WriteString(systemStyle.Render("enter to send · /chat <msg> for the advisors · esc to quit"))
	return b.String()
}
