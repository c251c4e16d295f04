package model

import (
	"encoding/json"
	"strings"
)

// TrendDirection is the price movement of an item over time.
type TrendDirection string

// Trend directions.
const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// ParseTrendDirection maps s case-insensitively onto a TrendDirection.
// Unknown or empty values are stable.
func ParseTrendDirection(s string) TrendDirection {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "increasing":
		return TrendUp
	case "down", "decreasing":
		return TrendDown
	default:
		return TrendStable
	}
}

// UnmarshalJSON accepts any casing and treats null or unknown values as stable.
func (d *TrendDirection) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil {
		*d = TrendStable
		return nil
	}
	*d = ParseTrendDirection(*s)
	return nil
}

// PriceTrend summarizes the price history of one standardized item.
type PriceTrend struct {
	ItemName       string         `json:"item_name"`
	TrendDirection TrendDirection `json:"trend_direction"`
	AvgPrice       float64        `json:"avg_price"`
	MinPrice       float64        `json:"min_price"`
	MaxPrice       float64        `json:"max_price"`
	PriceVariance  float64        `json:"price_variance"`
}

// SupplierStat aggregates the items bought from one supplier.
type SupplierStat struct {
	Supplier      string  `json:"supplier"`
	ItemCount     int     `json:"item_count"`
	AvgPrice      float64 `json:"avg_price"`
	MinPrice      float64 `json:"min_price,omitempty"`
	MaxPrice      float64 `json:"max_price,omitempty"`
	AvgConfidence float64 `json:"avg_confidence,omitempty"`
}

// AnalyticsRecord is one row of the cost analytics output.
type AnalyticsRecord struct {
	ItemCode          string  `json:"item_code"`
	CanonicalItemName string  `json:"canonical_item_name"`
	Region            string  `json:"region"`
	Supplier          string  `json:"supplier"`
	TrendDirection    string  `json:"trend_direction"`
	AvgPrice          float64 `json:"avg_price"`
	MedianPrice       float64 `json:"median_price"`
	MinPrice          float64 `json:"min_price"`
	MaxPrice          float64 `json:"max_price"`
	PriceStd          float64 `json:"price_std"`
}
