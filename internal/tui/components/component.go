// Package components implements the dashboard views as bubbletea models.
package components

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
)

// Client is the subset of the API client the views use.
type Client interface {
	DashboardStats(ctx context.Context) (*model.DashboardStats, error)
	Items(ctx context.Context, q api.ItemsQuery) (*model.ItemPage, error)
	PriceTrends(ctx context.Context) ([]model.PriceTrend, error)
	Suppliers(ctx context.Context) ([]model.SupplierStat, error)
	Anomalies(ctx context.Context) ([]model.Anomaly, error)
	Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error)
	Process(ctx context.Context) (*model.ProcessResult, error)
	DownloadTemplate(ctx context.Context) ([]byte, error)
	ExportItems(ctx context.Context, w io.Writer, pageSize int) (int, error)
}

// Component is a mountable tab view.
type Component interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Component, tea.Cmd)
	View() string
	// Capturing reports whether the view is consuming raw keystrokes,
	// in which case the shell must not treat them as shortcuts.
	Capturing() bool
	// Unmount cancels in-flight requests.
	Unmount()
}

// Deps are shared by every component.
type Deps struct {
	Client      Client
	DownloadDir string
}

// SwitchTabMsg asks the shell to show another tab.
type SwitchTabMsg struct {
	Tab Tab
}

func switchTo(tab Tab) tea.Cmd {
	return func() tea.Msg { return SwitchTabMsg{Tab: tab} }
}

// New mounts the component for tab.
func New(tab Tab, deps Deps, theme themes.Theme) Component {
	switch tab {
	case TabItems:
		return NewItemsTable(deps, theme)
	case TabAnalytics:
		return NewAnalytics(deps, theme)
	case TabAnomalies:
		return NewAnomalies(deps, theme)
	case TabUpload:
		return NewUpload(deps, theme)
	default:
		return NewDashboard(deps, theme)
	}
}
