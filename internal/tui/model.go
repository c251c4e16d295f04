// Package tui hosts the dashboard application shell: the active tab, the
// tab bar and the single mounted view.
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/costdb/internal/tui/components"
	"github.com/Veraticus/costdb/internal/tui/themes"
)

// Rows taken by the header and status bar.
const chromeHeight = 5

// ErrNoClient is returned when the shell is built without an API client.
var ErrNoClient = errors.New("tui: api client is required")

// Model holds the shell state.
type Model struct {
	theme     themes.Theme
	active    components.Component
	deps      components.Deps
	help      help.Model
	nav       components.Navigation
	keymap    KeyMap
	config    Config
	activeTab components.Tab
	width     int
	height    int
	showHelp  bool
	quitting  bool
}

// NewModel builds the shell with the initial tab mounted.
func NewModel(opts ...Option) (Model, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Client == nil {
		return Model{}, ErrNoClient
	}

	m := Model{
		theme:     cfg.Theme,
		config:    cfg,
		keymap:    DefaultKeyMap(),
		help:      help.New(),
		nav:       components.NewNavigation(cfg.Title, cfg.Theme),
		deps:      components.Deps{Client: cfg.Client, DownloadDir: cfg.DownloadDir},
		activeTab: cfg.InitialTab,
		width:     cfg.Width,
		height:    cfg.Height,
	}
	m.nav.SetActive(m.activeTab)
	m.nav.SetWidth(m.width)
	m.active = components.New(m.activeTab, m.deps, m.theme)
	_ = m.resizeActive()
	return m, nil
}

// ActiveTab reports the tab currently shown.
func (m Model) ActiveTab() components.Tab {
	return m.activeTab
}

// Init issues the mount fetch of the initial view.
func (m Model) Init() tea.Cmd {
	return m.active.Init()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.nav.SetWidth(m.width)
		m.help.Width = m.width
		return m, m.resizeActive()

	case components.SwitchTabMsg:
		return m, m.switchTab(msg.Tab)
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		return m.quit()
	}
	// A capturing view (text input, blocking alert) owns every other key.
	if m.active.Capturing() {
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m.quit()
	case key.Matches(msg, m.keymap.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil
	case key.Matches(msg, m.keymap.NextTab):
		return m, m.switchTab(m.activeTab.Next())
	case key.Matches(msg, m.keymap.PrevTab):
		return m, m.switchTab(m.activeTab.Prev())
	case key.Matches(msg, m.keymap.JumpTab):
		if tab, ok := components.TabForKey(msg.String()); ok {
			return m, m.switchTab(tab)
		}
	}

	if m.showHelp && msg.String() == "esc" {
		m.showHelp = false
		m.help.ShowAll = false
		return m, nil
	}
	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.active, cmd = m.active.Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.active.Unmount()
	return m, tea.Quit
}

// switchTab unmounts the current view and mounts tab. Selecting the active
// tab again is a no-op.
func (m *Model) switchTab(tab components.Tab) tea.Cmd {
	if tab == m.activeTab {
		return nil
	}
	m.active.Unmount()
	m.activeTab = tab
	m.nav.SetActive(tab)
	m.active = components.New(tab, m.deps, m.theme)
	return tea.Batch(m.active.Init(), m.resizeActive())
}

// resizeActive sends the content area size to the mounted view.
func (m *Model) resizeActive() tea.Cmd {
	if m.width <= 0 || m.height <= 0 {
		return nil
	}
	var cmd tea.Cmd
	m.active, cmd = m.active.Update(tea.WindowSizeMsg{
		Width:  m.width,
		Height: max(m.height-chromeHeight, 1),
	})
	return cmd
}
