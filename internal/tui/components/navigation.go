package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/tui/themes"
)

// Tab identifies one view of the dashboard.
type Tab int

// Tabs in display order.
const (
	TabDashboard Tab = iota
	TabItems
	TabAnalytics
	TabAnomalies
	TabUpload
)

// Tabs lists every tab in display order.
var Tabs = []Tab{TabDashboard, TabItems, TabAnalytics, TabAnomalies, TabUpload}

func (t Tab) String() string {
	switch t {
	case TabDashboard:
		return "Dashboard"
	case TabItems:
		return "Items"
	case TabAnalytics:
		return "Analytics"
	case TabAnomalies:
		return "Anomalies"
	case TabUpload:
		return "Upload"
	default:
		return fmt.Sprintf("Tab(%d)", int(t))
	}
}

// Next returns the tab after t, wrapping around.
func (t Tab) Next() Tab {
	return Tabs[(int(t)+1)%len(Tabs)]
}

// Prev returns the tab before t, wrapping around.
func (t Tab) Prev() Tab {
	return Tabs[(int(t)+len(Tabs)-1)%len(Tabs)]
}

// TabForKey maps "1".."5" to a tab.
func TabForKey(key string) (Tab, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '0'+byte(len(Tabs)) {
		return 0, false
	}
	return Tabs[key[0]-'1'], true
}

// Navigation renders the tab bar.
type Navigation struct {
	theme  themes.Theme
	title  string
	active Tab
	width  int
}

// NewNavigation creates a tab bar with the given title.
func NewNavigation(title string, theme themes.Theme) Navigation {
	return Navigation{title: title, theme: theme}
}

// SetActive highlights tab.
func (n *Navigation) SetActive(tab Tab) {
	n.active = tab
}

// SetWidth sets the render width.
func (n *Navigation) SetWidth(width int) {
	n.width = width
}

// View renders the tab bar.
func (n Navigation) View() string {
	tabs := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		label := fmt.Sprintf("%d %s", i+1, tab)
		if tab == n.active {
			tabs = append(tabs, n.theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, n.theme.TabInactive.Render(label))
		}
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(n.theme.Primary).Render(n.title)
	bar := lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
	rule := ""
	if n.width > 0 {
		rule = lipgloss.NewStyle().Foreground(n.theme.Border).Render(strings.Repeat("─", n.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, bar, rule)
}
