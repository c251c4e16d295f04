package model

// Item is one standardized purchase order line.
type Item struct {
	// StandardizationConfidence is nil when the pipeline reported no score.
	StandardizationConfidence *float64 `json:"standardization_confidence,omitempty"`
	ItemCode                  string   `json:"item_code"`
	CanonicalItemName         string   `json:"canonical_item_name"`
	SupplierName              string   `json:"supplier_name"`
	Category                  string   `json:"category"`
	POID                      string   `json:"po_id"`
	Region                    string   `json:"region,omitempty"`
	Unit                      string   `json:"unit,omitempty"`
	PODate                    string   `json:"po_date,omitempty"`
	UnitPrice                 float64  `json:"unit_price"`
	Quantity                  float64  `json:"quantity,omitempty"`
}

// Confidence returns the confidence score, or 0 when absent.
func (i Item) Confidence() float64 {
	if i.StandardizationConfidence == nil {
		return 0
	}
	return *i.StandardizationConfidence
}

// ItemPage is one page of the item listing.
type ItemPage struct {
	Items   []Item `json:"items"`
	Total   int    `json:"total"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Pages   int    `json:"pages"`
}

// StandardizedItem is one row of the standardization output.
type StandardizedItem struct {
	ConfidenceScore   *float64
	POID              string
	ItemCode          string
	CanonicalItemName string
	Category          string
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
