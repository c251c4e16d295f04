package components

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

// SearchDebounce is the quiet period after the last search keystroke before fetching.
const SearchDebounce = 300 * time.Millisecond

const (
	confidenceBarWidth = 10
	// itemsChrome counts the lines around the table: title, search, spacers,
	// pager controls, the selection detail and the error banner.
	itemsChrome    = 11
	tableHeader    = 2
	minTableHeight = tableHeader + 3
)

type itemsLoadedMsg struct {
	err   error
	page  *model.ItemPage
	token viewmodel.FetchToken
}

type searchDebounceMsg struct {
	owner int64
	seq   int
}

// ItemsTable is the paginated, searchable item listing.
type ItemsTable struct {
	fetch     *viewmodel.Fetcher
	deps      Deps
	theme     themes.Theme
	items     []model.Item
	err       string
	search    textinput.Model
	table     table.Model
	spinner   spinner.Model
	pager     viewmodel.Pagination
	shown     viewmodel.Pagination
	debounce  time.Duration
	typed     int
	total     int
	loading   bool
	searching bool
}

// NewItemsTable creates the items view.
func NewItemsTable(deps Deps, theme themes.Theme) *ItemsTable {
	columns := []table.Column{
		{Title: "Item Code", Width: 14},
		{Title: "Item Name", Width: 28},
		{Title: "Supplier", Width: 18},
		{Title: "Category", Width: 14},
		{Title: "Unit Price", Width: 14},
		{Title: "Confidence", Width: confidenceBarWidth + 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(viewmodel.ItemsPageSize+tableHeader),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	search := textinput.New()
	search.Placeholder = "Search items or suppliers..."
	search.Prompt = "/ "
	search.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Primary)

	return &ItemsTable{
		deps:     deps,
		theme:    theme,
		fetch:    viewmodel.NewFetcher(),
		table:    t,
		search:   search,
		spinner:  sp,
		pager:    viewmodel.NewPagination(),
		shown:    viewmodel.NewPagination(),
		debounce: SearchDebounce,
	}
}

// Init fetches the first page.
func (m *ItemsTable) Init() tea.Cmd {
	return tea.Batch(m.load(), m.spinner.Tick)
}

func (m *ItemsTable) load() tea.Cmd {
	m.loading = true
	ctx, token := m.fetch.Next(context.Background())
	client := m.deps.Client
	q := api.ItemsQuery{Page: m.pager.Page, PerPage: viewmodel.ItemsPageSize, Search: m.pager.Search}
	return func() tea.Msg {
		page, err := client.Items(ctx, q)
		return itemsLoadedMsg{token: token, page: page, err: err}
	}
}

func (m *ItemsTable) scheduleSearch() tea.Cmd {
	m.typed++
	msg := searchDebounceMsg{owner: m.fetch.Current().Owner, seq: m.typed}
	return tea.Tick(m.debounce, func(time.Time) tea.Msg { return msg })
}

// Update handles messages.
func (m *ItemsTable) Update(msg tea.Msg) (Component, tea.Cmd) {
	switch msg := msg.(type) {
	case itemsLoadedMsg:
		return m, m.applyPage(msg)

	case searchDebounceMsg:
		if msg.owner != m.fetch.Current().Owner || msg.seq != m.typed {
			return m, nil
		}
		if m.pager.SetSearch(m.search.Value()) {
			return m, m.load()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.search.Width = min(max(msg.Width-4, 20), 60)
		m.table.SetHeight(min(max(msg.Height-itemsChrome, minTableHeight), viewmodel.ItemsPageSize+tableHeader))

	case tea.KeyMsg:
		if m.searching {
			return m, m.handleSearchKey(msg)
		}
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *ItemsTable) applyPage(msg itemsLoadedMsg) tea.Cmd {
	if !m.fetch.Accept(msg.token) {
		return nil
	}
	m.loading = false
	if msg.err != nil {
		m.err = api.Message(msg.err)
		m.pager = m.shown
		return nil
	}
	m.err = ""

	requested := m.pager.Page
	m.pager.SetPages(msg.page.Pages)
	if m.pager.Page != requested {
		return m.load()
	}

	m.items = msg.page.Items
	m.total = msg.page.Total
	rows := make([]table.Row, 0, len(m.items))
	for i, r := range viewmodel.ItemRows(m.items) {
		rows = append(rows, table.Row{
			r.ItemCode,
			r.Name,
			r.Supplier,
			r.Category,
			r.Price,
			viewmodel.ConfidenceBar(m.items[i].StandardizationConfidence, confidenceBarWidth) + " " + r.Confidence,
		})
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.shown = m.pager
	return nil
}

func (m *ItemsTable) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.search.Blur()
		return nil
	case "enter":
		m.searching = false
		m.search.Blur()
		m.typed++
		if m.pager.SetSearch(m.search.Value()) {
			return m.load()
		}
		return nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() == before {
		return cmd
	}
	return tea.Batch(cmd, m.scheduleSearch())
}

func (m *ItemsTable) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "/":
		m.searching = true
		return m.search.Focus()
	case "n", "right":
		if m.loading || !m.pager.Next() {
			return nil
		}
		return m.load()
	case "p", "left":
		if m.loading || !m.pager.Prev() {
			return nil
		}
		return m.load()
	case "r":
		return m.load()
	case "esc":
		m.err = ""
		return nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return cmd
}

// Capturing is true while the search box has focus.
func (m *ItemsTable) Capturing() bool {
	return m.searching
}

// Unmount cancels the in-flight page fetch and pending searches.
func (m *ItemsTable) Unmount() {
	m.fetch.Stop()
	m.typed++
}

// Page returns the page being shown, or requested while a fetch is in flight.
func (m *ItemsTable) Page() int {
	return m.pager.Page
}

// Search returns the search term of the last fetch.
func (m *ItemsTable) Search() string {
	return m.pager.Search
}

// View renders the table.
func (m *ItemsTable) View() string {
	title := m.theme.Title.Render("Standardized Items")

	status := m.pager.Label() + fmt.Sprintf(" · %d items", m.total)
	if m.loading {
		status = m.spinner.View() + " Loading items…"
	}

	prev := m.control("← p previous", m.pager.CanPrev())
	next := m.control("n → next", m.pager.CanNext())

	sections := []string{
		title,
		m.search.View(),
		"",
		m.table.View(),
		"",
		lipgloss.JoinHorizontal(lipgloss.Top, prev, "   ", m.theme.Normal.Render(status), "   ", next),
	}
	if detail := m.selectedDetail(); detail != "" {
		sections = append(sections, "", detail)
	}
	if m.err != "" {
		sections = append(sections, "", renderError(m.theme, m.err, "esc"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *ItemsTable) control(label string, enabled bool) string {
	if !enabled {
		return m.theme.Faint.Render(label)
	}
	return lipgloss.NewStyle().Foreground(m.theme.Primary).Render(label)
}

func (m *ItemsTable) selectedDetail() string {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.items) {
		return ""
	}
	item := m.items[cursor]
	tone := viewmodel.ConfidenceTone(item.StandardizationConfidence)
	bar := m.theme.Tone(tone).Render(viewmodel.ConfidenceBar(item.StandardizationConfidence, confidenceBarWidth*2))
	return lipgloss.JoinVertical(lipgloss.Left,
		m.theme.Bold.Render(item.CanonicalItemName)+m.theme.Faint.Render("  "+item.SupplierName+" · "+item.Category),
		"Confidence "+bar+" "+viewmodel.FormatConfidence(item.StandardizationConfidence),
	)
}
