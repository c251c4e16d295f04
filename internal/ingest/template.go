package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/costdb/internal/model"
)

// TemplateFileName is the download name of the upload template.
const TemplateFileName = "purchase_orders_template.csv"

var templateRows = [][]string{
	{"PO001", "Carbon Steel Pipe 100mm", "1200.0", "10", "pcs", "2024-01-01", "North", "Maintenance", "ABC Metals"},
	{"PO002", "Stainless Steel Valve 2 inch", "5000.0", "5", "pcs", "2024-01-02", "South", "Production", "ValveWorld"},
	{"PO003", "Gate Valve CS 50mm", "4500.0", "3", "pcs", "2024-01-03", "East", "Maintenance", "FlowTech"},
}

// WriteTemplate writes the upload header and three sample rows as CSV.
func WriteTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.UploadColumns); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}
	if err := cw.WriteAll(templateRows); err != nil {
		return fmt.Errorf("failed to write template rows: %w", err)
	}
	return nil
}
