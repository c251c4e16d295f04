package components

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

type statsLoadedMsg struct {
	err   error
	stats *model.DashboardStats
	token viewmodel.FetchToken
}

type exportDoneMsg struct {
	err   error
	path  string
	owner int64
	count int
}

// Dashboard shows the aggregate metric cards and quick actions.
type Dashboard struct {
	fetch     *viewmodel.Fetcher
	stats     *model.DashboardStats
	now       func() time.Time
	deps      Deps
	theme     themes.Theme
	spinner   spinner.Model
	err       string
	alert     string
	status    string
	width     int
	loading   bool
	exporting bool
}

// NewDashboard creates the dashboard view.
func NewDashboard(deps Deps, theme themes.Theme) *Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return &Dashboard{
		deps:    deps,
		theme:   theme,
		fetch:   viewmodel.NewFetcher(),
		spinner: s,
		now:     time.Now,
	}
}

// Init issues the stats fetch.
func (d *Dashboard) Init() tea.Cmd {
	return tea.Batch(d.load(), d.spinner.Tick)
}

func (d *Dashboard) load() tea.Cmd {
	d.loading = true
	d.err = ""
	ctx, token := d.fetch.Next(context.Background())
	client := d.deps.Client
	return func() tea.Msg {
		stats, err := client.DashboardStats(ctx)
		return statsLoadedMsg{token: token, stats: stats, err: err}
	}
}

func (d *Dashboard) export() tea.Cmd {
	d.exporting = true
	d.status = ""
	client := d.deps.Client
	path := filepath.Join(d.deps.DownloadDir, api.ExportFileName(d.now()))
	owner := d.fetch.Current().Owner
	return func() tea.Msg {
		count, err := exportTo(client, path)
		return exportDoneMsg{owner: owner, path: path, count: count, err: err}
	}
}

func exportTo(client Client, path string) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	count, err := client.ExportItems(context.Background(), f, api.ExportPageSize)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	return count, nil
}

// Update handles messages.
func (d *Dashboard) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case statsLoadedMsg:
		if !d.fetch.Accept(msg.token) {
			return d, nil
		}
		d.loading = false
		if msg.err != nil {
			d.err = api.Message(msg.err)
			return d, nil
		}
		d.stats = msg.stats

	case exportDoneMsg:
		if msg.owner != d.fetch.Current().Owner {
			return d, nil
		}
		d.exporting = false
		if msg.err != nil {
			d.alert = "Export failed: " + api.Message(msg.err)
			return d, nil
		}
		d.status = fmt.Sprintf("Exported %d items to %s", msg.count, msg.path)

	case spinner.TickMsg:
		if !d.loading && !d.exporting {
			return d, nil
		}
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		return d, cmd

	case tea.WindowSizeMsg:
		d.width = msg.Width

	case tea.KeyMsg:
		return d, d.handleKey(msg)
	}
	return d, nil
}

func (d *Dashboard) handleKey(msg tea.KeyMsg) tea.Cmd {
	if d.alert != "" {
		if msg.String() == "enter" || msg.String() == "esc" {
			d.alert = ""
		}
		return nil
	}

	switch msg.String() {
	case "e":
		if d.exporting {
			return nil
		}
		return tea.Batch(d.export(), d.spinner.Tick)
	case "i":
		return switchTo(TabItems)
	case "a":
		return switchTo(TabAnalytics)
	case "u":
		return switchTo(TabUpload)
	case "r":
		if d.loading {
			return nil
		}
		return tea.Batch(d.load(), d.spinner.Tick)
	case "esc":
		d.err = ""
	}
	return nil
}

// Capturing is true while the alert is open.
func (d *Dashboard) Capturing() bool {
	return d.alert != ""
}

// Unmount cancels the stats fetch.
func (d *Dashboard) Unmount() {
	d.fetch.Stop()
}

// View renders the dashboard.
func (d *Dashboard) View() string {
	title := d.theme.Title.Render("Dashboard Overview")

	var cells []string
	if d.loading {
		for range viewmodel.SkeletonCards {
			cells = append(cells, renderSkeleton(d.theme))
		}
	} else {
		for _, card := range viewmodel.DashboardCards(d.stats) {
			cells = append(cells, renderCard(d.theme, card))
		}
	}

	actions := renderHelpLine(d.theme,
		"e", "export all items",
		"i", "browse items",
		"a", "analytics",
		"u", "upload data",
		"r", "refresh",
	)

	sections := []string{title, grid(cells, cardsPerRow), "", d.theme.Subtitle.Render("Quick Actions"), actions}
	switch {
	case d.exporting:
		sections = append(sections, "", d.spinner.View()+" Exporting items…")
	case d.status != "":
		sections = append(sections, "", d.theme.StatusSuccess.Render("✓ "+d.status))
	}
	if d.err != "" {
		sections = append(sections, "", renderError(d.theme, d.err, "esc"))
	}

	body := lipgloss.JoinVertical(lipgloss.Left, sections...)
	if d.alert == "" {
		return body
	}

	modal := d.theme.Alert.Render(lipgloss.JoinVertical(lipgloss.Left,
		d.theme.StatusError.Render(d.alert),
		"",
		d.theme.Faint.Render("Press enter to dismiss"),
	))
	return lipgloss.JoinVertical(lipgloss.Left, body, "", modal)
}
