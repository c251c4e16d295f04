package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/tui/components"
)

// viewKeys lists the shortcuts each view handles itself.
var viewKeys = map[components.Tab][][2]string{
	components.TabDashboard: {
		{"e", "export all items as JSON"},
		{"i / a / u", "open Items, Analytics, Upload"},
		{"r", "refresh"},
	},
	components.TabItems: {
		{"/", "search item or supplier"},
		{"n / →", "next page"},
		{"p / ←", "previous page"},
		{"↑ / ↓", "select row"},
		{"r", "reload"},
	},
	components.TabAnalytics: {
		{"r", "reload"},
	},
	components.TabAnomalies: {
		{"a / h / m / l", "all, high, medium, low"},
		{"↑ / ↓", "select anomaly"},
		{"r", "reload"},
	},
	components.TabUpload: {
		{"f", "type or paste a CSV path"},
		{"o", "browse for a file"},
		{"ctrl+u", "upload"},
		{"ctrl+p", "process"},
		{"ctrl+t", "download template"},
	},
}

// View renders the shell.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	body := m.active.View()
	if m.showHelp {
		body = m.renderHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.nav.View(),
		body,
		m.renderStatusBar(),
	)
}

// renderHelp renders the help overlay for the active view.
func (m Model) renderHelp() string {
	var b strings.Builder
	b.WriteString(m.theme.Title.Render(m.activeTab.String() + " shortcuts"))
	b.WriteString("\n\n")

	keyStyle := m.theme.Bold.Width(16)
	for _, entry := range viewKeys[m.activeTab] {
		b.WriteString(keyStyle.Render(entry[0]))
		b.WriteString(m.theme.Normal.Render(entry[1]))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keymap))
	b.WriteString("\n\n")
	b.WriteString(m.theme.Faint.Render("? or esc to close"))

	return m.theme.RoundedBox.Render(b.String())
}

// renderStatusBar renders the bottom bar.
func (m Model) renderStatusBar() string {
	left := m.theme.StatusInfo.Render(m.activeTab.String())
	right := m.help.ShortHelpView(m.keymap.ShortHelp())

	spacing := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if spacing < 1 {
		spacing = 1
	}
	return left + strings.Repeat(" ", spacing) + right
}
