// Package themes defines the lipgloss styles of the dashboard.
package themes

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

// Theme defines the visual style for the TUI.
type Theme struct {
	Title         lipgloss.Style
	Subtitle      lipgloss.Style
	Normal        lipgloss.Style
	Bold          lipgloss.Style
	Faint         lipgloss.Style
	Selected      lipgloss.Style
	Card          lipgloss.Style
	Skeleton      lipgloss.Style
	TabActive     lipgloss.Style
	TabInactive   lipgloss.Style
	Alert         lipgloss.Style
	ErrorBanner   lipgloss.Style
	RoundedBox    lipgloss.Style
	BorderedBox   lipgloss.Style
	StatusError   lipgloss.Style
	StatusWarning lipgloss.Style
	StatusSuccess lipgloss.Style
	StatusInfo    lipgloss.Style
	Primary       lipgloss.Color
	Secondary     lipgloss.Color
	Muted         lipgloss.Color
	Border        lipgloss.Color
	Foreground    lipgloss.Color
	Info          lipgloss.Color
	Error         lipgloss.Color
	Warning       lipgloss.Color
	Success       lipgloss.Color
}

type palette struct {
	primary, secondary, success, warning, errorC, info lipgloss.Color
	foreground, subtle, border, muted, surface         lipgloss.Color
}

func build(p palette) Theme {
	return Theme{
		Primary:    p.primary,
		Secondary:  p.secondary,
		Success:    p.success,
		Warning:    p.warning,
		Error:      p.errorC,
		Info:       p.info,
		Foreground: p.foreground,
		Border:     p.border,
		Muted:      p.muted,

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			MarginBottom(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.subtle),
		Normal: lipgloss.NewStyle().
			Foreground(p.foreground),
		Bold: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground),
		Faint: lipgloss.NewStyle().
			Foreground(p.muted),
		Selected: lipgloss.NewStyle().
			Background(p.primary).
			Foreground(p.foreground).
			Bold(true),

		Card: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(0, 1).
			Width(24),
		Skeleton: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Foreground(p.surface).
			Padding(0, 1).
			Width(24),
		TabActive: lipgloss.NewStyle().
			Bold(true).
			Foreground(p.foreground).
			Background(p.primary).
			Padding(0, 2),
		TabInactive: lipgloss.NewStyle().
			Foreground(p.muted).
			Padding(0, 2),
		Alert: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(p.errorC).
			Padding(1, 3),
		ErrorBanner: lipgloss.NewStyle().
			Foreground(p.errorC).
			Bold(true),
		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(p.border).
			Padding(1, 2),
		RoundedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.border).
			Padding(1, 2),

		StatusSuccess: lipgloss.NewStyle().
			Foreground(p.success).
			Bold(true),
		StatusWarning: lipgloss.NewStyle().
			Foreground(p.warning).
			Bold(true),
		StatusError: lipgloss.NewStyle().
			Foreground(p.errorC).
			Bold(true),
		StatusInfo: lipgloss.NewStyle().
			Foreground(p.info).
			Bold(true),
	}
}

// Default is the default theme.
var Default = build(palette{
	primary:    lipgloss.Color("#7c3aed"),
	secondary:  lipgloss.Color("#a78bfa"),
	success:    lipgloss.Color("#10b981"),
	warning:    lipgloss.Color("#f59e0b"),
	errorC:     lipgloss.Color("#ef4444"),
	info:       lipgloss.Color("#3b82f6"),
	foreground: lipgloss.Color("#fafafa"),
	subtle:     lipgloss.Color("#a3a3a3"),
	border:     lipgloss.Color("#404040"),
	muted:      lipgloss.Color("#737373"),
	surface:    lipgloss.Color("#262626"),
})

// CatppuccinMocha is the Catppuccin Mocha theme.
var CatppuccinMocha = build(palette{
	primary:    lipgloss.Color("#cba6f7"),
	secondary:  lipgloss.Color("#f5c2e7"),
	success:    lipgloss.Color("#a6e3a1"),
	warning:    lipgloss.Color("#f9e2af"),
	errorC:     lipgloss.Color("#f38ba8"),
	info:       lipgloss.Color("#89dceb"),
	foreground: lipgloss.Color("#cdd6f4"),
	subtle:     lipgloss.Color("#a6adc8"),
	border:     lipgloss.Color("#45475a"),
	muted:      lipgloss.Color("#6c7086"),
	surface:    lipgloss.Color("#313244"),
})

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin-mocha":
		return CatppuccinMocha
	default:
		return Default
	}
}

// Tone returns the style for a semantic tone.
func (t Theme) Tone(tone viewmodel.Tone) lipgloss.Style {
	switch tone {
	case viewmodel.ToneSuccess:
		return t.StatusSuccess
	case viewmodel.ToneWarning:
		return t.StatusWarning
	case viewmodel.ToneError:
		return t.StatusError
	case viewmodel.ToneInfo:
		return t.StatusInfo
	default:
		return t.Bold
	}
}

// ToneColor returns the color of a semantic tone.
func (t Theme) ToneColor(tone viewmodel.Tone) lipgloss.Color {
	switch tone {
	case viewmodel.ToneSuccess:
		return t.Success
	case viewmodel.ToneWarning:
		return t.Warning
	case viewmodel.ToneError:
		return t.Error
	case viewmodel.ToneInfo:
		return t.Info
	default:
		return t.Foreground
	}
}
