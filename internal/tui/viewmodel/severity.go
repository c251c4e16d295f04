package viewmodel

import (
	"github.com/Veraticus/costdb/internal/model"
)

// SeverityFilter selects which anomalies are listed.
type SeverityFilter string

// Filters.
const (
	FilterAll    SeverityFilter = "all"
	FilterHigh   SeverityFilter = "high"
	FilterMedium SeverityFilter = "medium"
	FilterLow    SeverityFilter = "low"
)

// Filters lists every filter in display order.
var Filters = []SeverityFilter{FilterAll, FilterHigh, FilterMedium, FilterLow}

// Label is the display name of the filter.
func (f SeverityFilter) Label() string {
	switch f {
	case FilterHigh:
		return "High"
	case FilterMedium:
		return "Medium"
	case FilterLow:
		return "Low"
	default:
		return "All"
	}
}

// FilterAnomalies returns the anomalies matching filter, preserving order.
func FilterAnomalies(anomalies []model.Anomaly, filter SeverityFilter) []model.Anomaly {
	if filter == FilterAll || filter == "" {
		return anomalies
	}
	want := model.Severity(filter)
	out := make([]model.Anomaly, 0, len(anomalies))
	for _, a := range anomalies {
		if a.ResolvedSeverity() == want {
			out = append(out, a)
		}
	}
	return out
}

// CountBySeverity counts anomalies per resolved severity.
func CountBySeverity(anomalies []model.Anomaly) map[model.Severity]int {
	counts := make(map[model.Severity]int, len(model.Severities)+1)
	for _, a := range anomalies {
		counts[a.ResolvedSeverity()]++
	}
	return counts
}

// SeverityTone colors a severity: high red, medium yellow, low blue.
// Unknown severity is shown as a neutral positive green.
func SeverityTone(severity model.Severity) Tone {
	switch severity {
	case model.SeverityHigh:
		return ToneError
	case model.SeverityMedium:
		return ToneWarning
	case model.SeverityLow:
		return ToneInfo
	default:
		return ToneSuccess
	}
}

// SeverityLabel is the display name of a severity.
func SeverityLabel(severity model.Severity) string {
	switch severity {
	case model.SeverityHigh:
		return "HIGH"
	case model.SeverityMedium:
		return "MEDIUM"
	case model.SeverityLow:
		return "LOW"
	default:
		return "N/A"
	}
}
