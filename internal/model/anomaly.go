package model

import "strings"

// Severity classifies how far an anomaly strays from the expected price.
type Severity string

// Severity levels.
const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityUnknown Severity = "unknown"
)

// Severities lists the known levels from most to least severe.
var Severities = []Severity{SeverityHigh, SeverityMedium, SeverityLow}

// ParseSeverity maps s case-insensitively onto a known level.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "critical":
		return SeverityHigh
	case "medium":
		return SeverityMedium
	case "low":
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// SeverityFromReason derives a level from free text such as "HIGH: price 40% above".
func SeverityFromReason(reason string) Severity {
	upper := strings.ToUpper(reason)
	switch {
	case strings.Contains(upper, "CRITICAL"), strings.Contains(upper, "HIGH"):
		return SeverityHigh
	case strings.Contains(upper, "MEDIUM"):
		return SeverityMedium
	case strings.Contains(upper, "LOW"):
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// Anomaly is a purchase whose price falls outside the expected range.
type Anomaly struct {
	DeviationPercentage *float64 `json:"deviation_percentage,omitempty"`
	POID                string   `json:"po_id,omitempty"`
	ItemCode            string   `json:"item_code,omitempty"`
	CanonicalItemName   string   `json:"canonical_item_name"`
	SupplierName        string   `json:"supplier_name"`
	AnomalySeverity     string   `json:"anomaly_severity,omitempty"`
	// Severity is the legacy field name. Deprecated: read ResolvedSeverity.
	Severity    string  `json:"severity,omitempty"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	ExpectedMin float64 `json:"expected_min"`
	ExpectedMax float64 `json:"expected_max"`
}

// ResolvedSeverity prefers anomaly_severity over the legacy severity field.
func (a Anomaly) ResolvedSeverity() Severity {
	if a.AnomalySeverity != "" {
		return ParseSeverity(a.AnomalySeverity)
	}
	return ParseSeverity(a.Severity)
}

// Deviation returns the deviation percentage, or 0 when absent.
func (a Anomaly) Deviation() float64 {
	if a.DeviationPercentage == nil {
		return 0
	}
	return *a.DeviationPercentage
}
