package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

const (
	cardsPerRow = 3
	gaugeWidth  = 16
)

func renderCard(theme themes.Theme, card viewmodel.Card) string {
	title := theme.Faint.Render(card.Icon + " " + card.Title)
	value := theme.Tone(card.Tone).Render(card.Value)
	if card.Gauge < 0 {
		return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, title, value))
	}

	gauge := progress.New(
		progress.WithSolidFill(string(theme.ToneColor(card.Tone))),
		progress.WithoutPercentage(),
		progress.WithWidth(gaugeWidth),
	)
	gauge.Empty = '─'
	return theme.Card.Render(lipgloss.JoinVertical(lipgloss.Left, title, value, gauge.ViewAs(card.Gauge)))
}

func renderSkeleton(theme themes.Theme) string {
	return theme.Skeleton.Render(strings.Repeat("░", 12) + "\n" + strings.Repeat("░", 6))
}

func grid(cells []string, perRow int) string {
	var rows []string
	for i := 0; i < len(cells); i += perRow {
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells[i:min(i+perRow, len(cells))]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderError(theme themes.Theme, message, dismiss string) string {
	if message == "" {
		return ""
	}
	return theme.ErrorBanner.Render("✗ "+message) + theme.Faint.Render("  ("+dismiss+" to dismiss)")
}

func renderHelpLine(theme themes.Theme, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.Primary).Render(pairs[i])+" "+theme.Faint.Render(pairs[i+1]))
	}
	return strings.Join(parts, "  ")
}
