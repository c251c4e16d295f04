package tui

import (
	"github.com/Veraticus/costdb/internal/tui/components"
	"github.com/Veraticus/costdb/internal/tui/themes"
)

// DefaultTitle is shown above the tab bar.
const DefaultTitle = "Intelligent Cost Database"

// Config holds TUI configuration.
type Config struct {
	Theme       themes.Theme
	Client      components.Client
	Title       string
	DownloadDir string
	InitialTab  components.Tab
	Width       int
	Height      int
	AltScreen   bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

func defaultConfig() Config {
	return Config{
		Theme:       themes.Default,
		Title:       DefaultTitle,
		DownloadDir: ".",
		InitialTab:  components.TabDashboard,
		Width:       80,
		Height:      24,
		AltScreen:   true,
	}
}

// WithClient sets the API client every view fetches through.
func WithClient(client components.Client) Option {
	return func(c *Config) {
		c.Client = client
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithTitle sets the header title.
func WithTitle(title string) Option {
	return func(c *Config) {
		c.Title = title
	}
}

// WithDownloadDir sets where exports and templates are written.
func WithDownloadDir(dir string) Option {
	return func(c *Config) {
		c.DownloadDir = dir
	}
}

// WithInitialTab selects the tab shown on start.
func WithInitialTab(tab components.Tab) Option {
	return func(c *Config) {
		c.InitialTab = tab
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithAltScreen toggles the alternate screen buffer.
func WithAltScreen(enabled bool) Option {
	return func(c *Config) {
		c.AltScreen = enabled
	}
}
