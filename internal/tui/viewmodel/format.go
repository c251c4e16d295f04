package viewmodel

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/costdb/internal/model"
)

// Placeholder renders a value the server did not report.
const Placeholder = "—"

// FormatCurrency renders an amount in rupees with two decimals and grouped thousands.
func FormatCurrency(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	return sign + "₹" + groupThousands(whole) + "." + frac
}

// FormatPercent renders a 0..1 ratio as a whole percentage, e.g. 0.756 → "76%".
func FormatPercent(ratio float64) string {
	return decimal.NewFromFloat(ratio).Shift(2).StringFixed(0) + "%"
}

// FormatDeviation renders a signed deviation percentage with one decimal.
func FormatDeviation(deviation *float64) string {
	if deviation == nil {
		return Placeholder
	}
	d := decimal.NewFromFloat(*deviation)
	s := d.StringFixed(1) + "%"
	if d.IsPositive() {
		s = "+" + s
	}
	return s
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// TruncateString truncates s to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// TrendIcon maps a trend direction to its arrow.
func TrendIcon(direction model.TrendDirection) string {
	switch direction {
	case model.TrendUp:
		return "↑"
	case model.TrendDown:
		return "↓"
	default:
		return "→"
	}
}

// TrendLabel maps a trend direction to its display label.
func TrendLabel(direction model.TrendDirection) string {
	switch direction {
	case model.TrendUp:
		return "Increasing"
	case model.TrendDown:
		return "Decreasing"
	default:
		return "Stable"
	}
}
