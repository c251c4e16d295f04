package model

import "time"

// UploadColumns are the columns every purchase order upload must carry.
var UploadColumns = []string{
	"po_id", "item_description", "unit_price", "quantity", "unit",
	"po_date", "region", "department", "supplier",
}

// PurchaseOrder is one raw row of an uploaded purchase order file.
type PurchaseOrder struct {
	POID            string  `json:"po_id"`
	ItemDescription string  `json:"item_description"`
	Unit            string  `json:"unit"`
	PODate          string  `json:"po_date"`
	Region          string  `json:"region"`
	Department      string  `json:"department"`
	Supplier        string  `json:"supplier"`
	UnitPrice       float64 `json:"unit_price"`
	Quantity        float64 `json:"quantity"`
}

// UploadResult describes an accepted upload.
type UploadResult struct {
	Message  string   `json:"message,omitempty"`
	Filename string   `json:"filename"`
	Columns  []string `json:"columns"`
	Rows     int      `json:"rows"`
}

// ProcessResult reports the outcome of a processing run.
type ProcessResult struct {
	Message           string `json:"message,omitempty"`
	RunID             string `json:"run_id,omitempty"`
	Output            string `json:"output,omitempty"`
	StandardizedItems int    `json:"standardized_items"`
	AnalyticsRecords  int    `json:"analytics_records"`
	AnomaliesFound    int    `json:"anomalies_found"`
}

// RunStatus is the lifecycle state of a processing run.
type RunStatus string

// Run states.
const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// ProcessRun is the recorded history of one processing run.
type ProcessRun struct {
	StartedAt         time.Time  `json:"started_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	ID                string     `json:"id"`
	Status            RunStatus  `json:"status"`
	Error             string     `json:"error,omitempty"`
	StandardizedItems int        `json:"standardized_items"`
	AnalyticsRecords  int        `json:"analytics_records"`
	AnomaliesFound    int        `json:"anomalies_found"`
}

// APIError is the body of every failed API response.
type APIError struct {
	Error           string        `json:"error"`
	Output          string        `json:"output,omitempty"`
	ErrorDetails    string        `json:"error_details,omitempty"`
	RequiredColumns []string      `json:"required_columns,omitempty"`
	Details         []ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail describes one invalid request parameter.
type ErrorDetail struct {
	Path string `json:"path"`
	Info string `json:"info"`
}

// ProcessedData is the full output of one pipeline run.
type ProcessedData struct {
	Items     []StandardizedItem
	Analytics []AnalyticsRecord
	Anomalies []Anomaly
}
