package components

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

const (
	chartWidth = 30
	labelWidth = 24
)

type analyticsLoadedMsg struct {
	err       error
	trends    []model.PriceTrend
	suppliers []model.SupplierStat
	token     viewmodel.FetchToken
}

// Analytics shows price trends and supplier distribution.
type Analytics struct {
	fetch     *viewmodel.Fetcher
	deps      Deps
	theme     themes.Theme
	trends    []model.PriceTrend
	suppliers []model.SupplierStat
	err       string
	spinner   spinner.Model
	width     int
	loading   bool
}

// NewAnalytics creates the analytics view.
func NewAnalytics(deps Deps, theme themes.Theme) *Analytics {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return &Analytics{deps: deps, theme: theme, fetch: viewmodel.NewFetcher(), spinner: sp}
}

// Init fetches trends and suppliers concurrently.
func (a *Analytics) Init() tea.Cmd {
	return tea.Batch(a.load(), a.spinner.Tick)
}

func (a *Analytics) load() tea.Cmd {
	a.loading = true
	ctx, token := a.fetch.Next(context.Background())
	client := a.deps.Client
	return func() tea.Msg {
		var trends []model.PriceTrend
		var suppliers []model.SupplierStat

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			trends, err = client.PriceTrends(gctx)
			return err
		})
		g.Go(func() error {
			var err error
			suppliers, err = client.Suppliers(gctx)
			return err
		})
		err := g.Wait()
		return analyticsLoadedMsg{token: token, trends: trends, suppliers: suppliers, err: err}
	}
}

// Update handles messages.
func (a *Analytics) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case analyticsLoadedMsg:
		if !a.fetch.Accept(msg.token) {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.err = api.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.trends = msg.trends
		a.suppliers = msg.suppliers

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return a, tea.Batch(a.load(), a.spinner.Tick)
		case "esc":
			a.err = ""
		}
	}
	return a, nil
}

// Capturing is always false.
func (a *Analytics) Capturing() bool { return false }

// Unmount cancels the in-flight fetches.
func (a *Analytics) Unmount() { a.fetch.Stop() }

// View renders the charts and trend cards.
func (a *Analytics) View() string {
	title := a.theme.Title.Render("Price Analytics")
	if a.loading {
		return lipgloss.JoinVertical(lipgloss.Left, title, a.spinner.View()+" Loading analytics…")
	}
	if a.err != "" {
		return lipgloss.JoinVertical(lipgloss.Left, title, renderError(a.theme, a.err, "esc"), a.theme.Faint.Render("r to retry"))
	}

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		a.renderPriceChart(),
		"    ",
		a.renderSupplierChart(),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		charts,
		"",
		a.theme.Subtitle.Render("Price Trends"),
		a.renderTrendCards(),
	)
}

func (a *Analytics) renderPriceChart() string {
	lines := []string{a.theme.Bold.Render("Average Price by Item")}
	bars := viewmodel.PriceBars(a.trends, chartWidth)
	if len(bars) == 0 {
		lines = append(lines, a.theme.Faint.Render("No price data"))
	}
	barStyle := lipgloss.NewStyle().Foreground(a.theme.Primary)
	for _, b := range bars {
		label := padRight(viewmodel.TruncateString(b.Label, labelWidth), labelWidth)
		lines = append(lines, label+" "+barStyle.Render(strings.Repeat("█", b.Fill))+" "+a.theme.Faint.Render(b.Value))
	}
	return strings.Join(lines, "\n")
}

func (a *Analytics) renderSupplierChart() string {
	lines := []string{a.theme.Bold.Render("Supplier Distribution")}
	shares := viewmodel.SupplierShares(a.suppliers, chartWidth/2)
	if len(shares) == 0 {
		lines = append(lines, a.theme.Faint.Render("No supplier data"))
	}
	colors := []lipgloss.Color{a.theme.Primary, a.theme.Info, a.theme.Success, a.theme.Warning, a.theme.Error, a.theme.Secondary}
	for i, s := range shares {
		style := lipgloss.NewStyle().Foreground(colors[i%len(colors)])
		label := padRight(viewmodel.TruncateString(s.Supplier, labelWidth-6), labelWidth-6)
		lines = append(lines, style.Render("●")+" "+label+" "+style.Render(strings.Repeat("▇", s.Fill))+" "+a.theme.Faint.Render(s.Percent))
	}
	return strings.Join(lines, "\n")
}

func (a *Analytics) renderTrendCards() string {
	cards := viewmodel.TrendCards(a.trends)
	if len(cards) == 0 {
		return a.theme.Faint.Render("No trends yet. Upload and process data first.")
	}
	cells := make([]string, 0, len(cards))
	for _, c := range cards {
		body := lipgloss.JoinVertical(lipgloss.Left,
			a.theme.Bold.Render(viewmodel.TruncateString(c.Name, 22)),
			a.theme.Tone(c.Tone).Render(c.Icon+" "+c.Label),
			a.theme.Normal.Render("Avg "+c.Average),
			a.theme.Faint.Render(c.Range),
		)
		cells = append(cells, a.theme.Card.Render(body))
	}
	return grid(cells, cardsPerRow)
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
