package components

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

type anomaliesLoadedMsg struct {
	err       error
	anomalies []model.Anomaly
	token     viewmodel.FetchToken
}

// Anomalies lists detected price anomalies with a severity filter.
type Anomalies struct {
	fetch     *viewmodel.Fetcher
	deps      Deps
	theme     themes.Theme
	anomalies []model.Anomaly
	filter    viewmodel.SeverityFilter
	err       string
	spinner   spinner.Model
	cursor    int
	offset    int
	height    int
	loading   bool
}

// NewAnomalies creates the anomalies view.
func NewAnomalies(deps Deps, theme themes.Theme) *Anomalies {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)
	return &Anomalies{deps: deps, theme: theme, fetch: viewmodel.NewFetcher(), spinner: sp, filter: viewmodel.FilterAll}
}

// Init fetches every anomaly once.
func (a *Anomalies) Init() tea.Cmd {
	return tea.Batch(a.load(), a.spinner.Tick)
}

func (a *Anomalies) load() tea.Cmd {
	a.loading = true
	ctx, token := a.fetch.Next(context.Background())
	client := a.deps.Client
	return func() tea.Msg {
		list, err := client.Anomalies(ctx)
		return anomaliesLoadedMsg{token: token, anomalies: list, err: err}
	}
}

// Update handles messages.
func (a *Anomalies) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case anomaliesLoadedMsg:
		if !a.fetch.Accept(msg.token) {
			return a, nil
		}
		a.loading = false
		if msg.err != nil {
			a.err = api.Message(msg.err)
			return a, nil
		}
		a.err = ""
		a.anomalies = msg.anomalies
		a.cursor, a.offset = 0, 0

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.WindowSizeMsg:
		a.height = msg.Height
		a.scroll()

	case tea.KeyMsg:
		cmd := a.handleKey(msg)
		a.scroll()
		return a, cmd
	}
	return a, nil
}

func (a *Anomalies) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "a":
		a.setFilter(viewmodel.FilterAll)
	case "h":
		a.setFilter(viewmodel.FilterHigh)
	case "m":
		a.setFilter(viewmodel.FilterMedium)
	case "l":
		a.setFilter(viewmodel.FilterLow)
	case "down", "j":
		if a.cursor < len(a.Visible())-1 {
			a.cursor++
		}
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "r":
		return tea.Batch(a.load(), a.spinner.Tick)
	case "esc":
		a.err = ""
	}
	return nil
}

func (a *Anomalies) setFilter(f viewmodel.SeverityFilter) {
	a.filter = f
	a.cursor, a.offset = 0, 0
}

// listHeight is the number of lines left for anomaly cards, or 0 when the
// view has not been sized.
func (a *Anomalies) listHeight() int {
	if a.height <= 0 {
		return 0
	}
	header := lipgloss.Height(a.theme.Title.Render("Price Anomalies")) + lipgloss.Height(a.renderFilters()) + 1
	return max(a.height-header-1, 1)
}

// scroll moves the window the least distance that keeps the cursor's card on screen.
func (a *Anomalies) scroll() {
	lines := a.listHeight()
	visible := a.Visible()
	if lines == 0 || a.cursor >= len(visible) {
		return
	}
	a.offset = min(a.offset, a.cursor)
	for a.offset < a.cursor && a.cardsHeight(visible[a.offset:a.cursor+1]) > lines {
		a.offset++
	}
}

func (a *Anomalies) cardsHeight(list []model.Anomaly) int {
	h := 0
	for _, anomaly := range list {
		h += lipgloss.Height(a.renderAnomaly(anomaly, false))
	}
	return h
}

// Filter returns the active severity filter.
func (a *Anomalies) Filter() viewmodel.SeverityFilter {
	return a.filter
}

// Visible returns the anomalies that pass the active filter.
func (a *Anomalies) Visible() []model.Anomaly {
	return viewmodel.FilterAnomalies(a.anomalies, a.filter)
}

// Capturing is always false.
func (a *Anomalies) Capturing() bool { return false }

// Unmount cancels the in-flight fetch.
func (a *Anomalies) Unmount() { a.fetch.Stop() }

// View renders the filter bar and anomaly cards.
func (a *Anomalies) View() string {
	title := a.theme.Title.Render("Price Anomalies")
	if a.loading {
		return lipgloss.JoinVertical(lipgloss.Left, title, a.spinner.View()+" Loading anomalies…")
	}

	sections := []string{title, a.renderFilters(), ""}
	if a.err != "" {
		sections = append(sections, renderError(a.theme, a.err, "esc"), a.theme.Faint.Render("r to retry"))
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	visible := a.Visible()
	if len(visible) == 0 {
		sections = append(sections,
			a.theme.StatusSuccess.Render("✓ No anomalies detected"),
			a.theme.Faint.Render("All prices are within expected ranges"),
		)
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	lines := a.listHeight()
	if lines == 0 {
		for i, anomaly := range visible {
			sections = append(sections, a.renderAnomaly(anomaly, i == a.cursor))
		}
		return lipgloss.JoinVertical(lipgloss.Left, sections...)
	}

	start := min(a.offset, len(visible)-1)
	end, used := start, 0
	for end < len(visible) {
		card := a.renderAnomaly(visible[end], end == a.cursor)
		h := lipgloss.Height(card)
		if end > start && used+h > lines {
			break
		}
		sections = append(sections, card)
		used += h
		end++
	}
	position := fmt.Sprintf("%d-%d of %d · j/k to scroll", start+1, end, len(visible))
	sections = append(sections, a.theme.Faint.Render(position))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *Anomalies) renderFilters() string {
	keys := map[viewmodel.SeverityFilter]string{
		viewmodel.FilterAll: "a", viewmodel.FilterHigh: "h", viewmodel.FilterMedium: "m", viewmodel.FilterLow: "l",
	}
	counts := viewmodel.CountBySeverity(a.anomalies)

	parts := make([]string, 0, len(viewmodel.Filters))
	for _, f := range viewmodel.Filters {
		n := len(a.anomalies)
		if f != viewmodel.FilterAll {
			n = counts[model.Severity(f)]
		}
		label := fmt.Sprintf("%s %s (%d)", keys[f], f.Label(), n)
		if f == a.filter {
			parts = append(parts, a.theme.TabActive.Render(label))
		} else {
			parts = append(parts, a.theme.TabInactive.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (a *Anomalies) renderAnomaly(anomaly model.Anomaly, selected bool) string {
	severity := anomaly.ResolvedSeverity()
	tone := viewmodel.SeverityTone(severity)
	color := a.theme.ToneColor(tone)

	header := a.theme.Bold.Render(anomaly.CanonicalItemName) + "  " +
		lipgloss.NewStyle().Foreground(color).Bold(true).Render(viewmodel.SeverityLabel(severity))
	prices := fmt.Sprintf("Price %s · Expected %s – %s · Deviation %s",
		viewmodel.FormatCurrency(anomaly.UnitPrice),
		viewmodel.FormatCurrency(anomaly.ExpectedMin),
		viewmodel.FormatCurrency(anomaly.ExpectedMax),
		viewmodel.FormatDeviation(anomaly.DeviationPercentage),
	)
	lines := []string{header, a.theme.Faint.Render(anomaly.SupplierName), a.theme.Normal.Render(prices)}
	if anomaly.Description != "" {
		lines = append(lines, a.theme.Subtitle.Render(anomaly.Description))
	}

	border := lipgloss.HiddenBorder()
	if selected {
		border = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Border(border, false, false, false, true).
		BorderForeground(color).
		PaddingLeft(1).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
