package model

// DashboardStats is the aggregate snapshot shown on the dashboard.
// Missing or null fields decode to zero.
type DashboardStats struct {
	TotalItems         int     `json:"total_items"`
	TotalSuppliers     int     `json:"total_suppliers"`
	AvgUnitPrice       float64 `json:"avg_unit_price"`
	AvgConfidence      float64 `json:"avg_confidence"`
	ItemsWithAnomalies int     `json:"items_with_anomalies"`
	TotalCategories    int     `json:"total_categories"`
}
