package viewmodel

import (
	"strconv"

	"github.com/Veraticus/costdb/internal/model"
)

// SkeletonCards is the number of placeholder cards shown while stats load.
const SkeletonCards = 6

// NoGauge marks a card without a gauge bar.
const NoGauge = -1.0

// Card is one metric card on the dashboard. Gauge, when non-negative, is a
// 0..1 ratio drawn as a bar under the value.
type Card struct {
	Title string
	Value string
	Icon  string
	Tone  Tone
	Gauge float64
}

// DashboardCards derives the six metric cards. A nil snapshot renders zeros.
func DashboardCards(stats *model.DashboardStats) []Card {
	var s model.DashboardStats
	if stats != nil {
		s = *stats
	}
	return []Card{
		{Title: "Total Items", Value: strconv.Itoa(s.TotalItems), Icon: "▤", Tone: ToneInfo, Gauge: NoGauge},
		{Title: "Suppliers", Value: strconv.Itoa(s.TotalSuppliers), Icon: "◆", Tone: ToneSuccess, Gauge: NoGauge},
		{Title: "Avg Unit Price", Value: FormatCurrency(s.AvgUnitPrice), Icon: "₹", Tone: ToneNeutral, Gauge: NoGauge},
		{
			Title: "Avg Confidence",
			Value: FormatPercent(s.AvgConfidence),
			Icon:  "✓",
			Tone:  ConfidenceTone(&s.AvgConfidence),
			Gauge: min(max(s.AvgConfidence, 0), 1),
		},
		{Title: "Anomalies", Value: strconv.Itoa(s.ItemsWithAnomalies), Icon: "!", Tone: anomalyTone(s.ItemsWithAnomalies), Gauge: NoGauge},
		{Title: "Categories", Value: strconv.Itoa(s.TotalCategories), Icon: "▦", Tone: ToneInfo, Gauge: NoGauge},
	}
}

func anomalyTone(n int) Tone {
	if n > 0 {
		return ToneError
	}
	return ToneSuccess
}
