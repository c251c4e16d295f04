package viewmodel

import (
	"math"

	"github.com/Veraticus/costdb/internal/model"
)

// Display limits of the analytics view.
const (
	MaxSupplierSlices = 8
	MaxTrendCards     = 6
)

// Bar is one row of a horizontal bar chart.
type Bar struct {
	Label string
	Value string
	Fill  int
}

// PriceBars scales every trend's average price to width cells.
func PriceBars(trends []model.PriceTrend, width int) []Bar {
	peak := 0.0
	for _, t := range trends {
		peak = math.Max(peak, t.AvgPrice)
	}

	bars := make([]Bar, 0, len(trends))
	for _, t := range trends {
		bars = append(bars, Bar{
			Label: t.ItemName,
			Value: FormatCurrency(t.AvgPrice),
			Fill:  scale(t.AvgPrice, peak, width),
		})
	}
	return bars
}

// Share is one supplier's slice of the item count.
type Share struct {
	Supplier string
	Percent  string
	Count    int
	Fill     int
}

// SupplierShares returns the first MaxSupplierSlices suppliers with their share
// of the displayed item count.
func SupplierShares(suppliers []model.SupplierStat, width int) []Share {
	shown := suppliers[:min(len(suppliers), MaxSupplierSlices)]

	total := 0
	for _, s := range shown {
		total += s.ItemCount
	}

	shares := make([]Share, 0, len(shown))
	for _, s := range shown {
		ratio := 0.0
		if total > 0 {
			ratio = float64(s.ItemCount) / float64(total)
		}
		shares = append(shares, Share{
			Supplier: s.Supplier,
			Count:    s.ItemCount,
			Percent:  FormatPercent(ratio),
			Fill:     scale(float64(s.ItemCount), float64(total), width),
		})
	}
	return shares
}

// TrendCard summarizes one item's price trend.
type TrendCard struct {
	Name    string
	Icon    string
	Label   string
	Average string
	Range   string
	Tone    Tone
}

// TrendCards returns cards for the first MaxTrendCards trends.
func TrendCards(trends []model.PriceTrend) []TrendCard {
	shown := trends[:min(len(trends), MaxTrendCards)]
	cards := make([]TrendCard, 0, len(shown))
	for _, t := range shown {
		cards = append(cards, TrendCard{
			Name:    t.ItemName,
			Icon:    TrendIcon(t.TrendDirection),
			Label:   TrendLabel(t.TrendDirection),
			Average: FormatCurrency(t.AvgPrice),
			Range:   FormatCurrency(t.MinPrice) + " – " + FormatCurrency(t.MaxPrice),
			Tone:    TrendTone(t.TrendDirection),
		})
	}
	return cards
}

// TrendTone colors a trend: rising prices red, falling prices green.
func TrendTone(direction model.TrendDirection) Tone {
	switch direction {
	case model.TrendUp:
		return ToneError
	case model.TrendDown:
		return ToneSuccess
	default:
		return ToneNeutral
	}
}

func scale(value, peak float64, width int) int {
	if peak <= 0 || width <= 0 || value <= 0 {
		return 0
	}
	return max(1, int(math.Round(value/peak*float64(width))))
}
