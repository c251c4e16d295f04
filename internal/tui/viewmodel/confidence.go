package viewmodel

import (
	"strings"

	"github.com/Veraticus/costdb/internal/model"
)

// ConfidenceTone colors a standardization confidence: above 0.8 green,
// above 0.6 yellow, otherwise red. A missing score counts as 0.
func ConfidenceTone(confidence *float64) Tone {
	v := 0.0
	if confidence != nil {
		v = *confidence
	}
	switch {
	case v > 0.8:
		return ToneSuccess
	case v > 0.6:
		return ToneWarning
	default:
		return ToneError
	}
}

// FormatConfidence renders a confidence score as a percentage.
func FormatConfidence(confidence *float64) string {
	if confidence == nil {
		return Placeholder
	}
	return FormatPercent(*confidence)
}

// ConfidenceBar renders a fixed-width bar filled in proportion to confidence.
func ConfidenceBar(confidence *float64, width int) string {
	if width <= 0 {
		return ""
	}
	v := 0.0
	if confidence != nil {
		v = min(max(*confidence, 0), 1)
	}
	filled := int(v*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// ItemRow is one rendered row of the items table.
type ItemRow struct {
	ItemCode   string
	Name       string
	Supplier   string
	Category   string
	Price      string
	Confidence string
	Tone       Tone
}

// ItemRows converts items into table rows.
func ItemRows(items []model.Item) []ItemRow {
	rows := make([]ItemRow, 0, len(items))
	for _, item := range items {
		rows = append(rows, ItemRow{
			ItemCode:   item.ItemCode,
			Name:       item.CanonicalItemName,
			Supplier:   item.SupplierName,
			Category:   item.Category,
			Price:      FormatCurrency(item.UnitPrice),
			Confidence: FormatConfidence(item.StandardizationConfidence),
			Tone:       ConfidenceTone(item.StandardizationConfidence),
		})
	}
	return rows
}
