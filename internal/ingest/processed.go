package ingest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Veraticus/costdb/internal/model"
)

// Pipeline output file names.
const (
	StandardizedFile = "standardized_items.csv"
	AnalyticsFile    = "cost_analytics.csv"
	AnomaliesFile    = "anomalies.csv"
)

// LoadProcessed reads every pipeline output in dir. The standardized and
// analytics files are required; a missing anomalies file loads as none.
func LoadProcessed(dir string) (model.ProcessedData, error) {
	var data model.ProcessedData

	items, err := readFile(filepath.Join(dir, StandardizedFile), ParseStandardized)
	if err != nil {
		return data, err
	}
	analytics, err := readFile(filepath.Join(dir, AnalyticsFile), ParseAnalytics)
	if err != nil {
		return data, err
	}
	anomalies, err := readFile(filepath.Join(dir, AnomaliesFile), ParseAnomalies)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("No anomalies file found, loading zero anomalies", "dir", dir)
		anomalies, err = nil, nil
	}
	if err != nil {
		return data, err
	}

	data.Items = items
	data.Analytics = analytics
	data.Anomalies = anomalies
	return data, nil
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return out, nil
}

// readOptionalTable treats an empty input as a table without rows.
func readOptionalTable(r io.Reader) (*table, error) {
	t, err := readTable(r)
	if errors.Is(err, ErrNoColumns) {
		return &table{index: map[string]int{}}, nil
	}
	return t, err
}

// ParseStandardized reads the standardization output.
func ParseStandardized(r io.Reader) ([]model.StandardizedItem, error) {
	t, err := readOptionalTable(r)
	if err != nil {
		return nil, err
	}

	items := make([]model.StandardizedItem, 0, len(t.rows))
	for i, row := range t.rows {
		item := model.StandardizedItem{
			POID:              t.str(row, "po_id"),
			ItemCode:          t.str(row, "item_code"),
			CanonicalItemName: t.first(row, "canonical_item_name", "item_name"),
			Category:          t.str(row, "category"),
		}
		score, ok, err := t.float(row, "confidence_score")
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if ok {
			item.ConfidenceScore = model.Float(score)
		}
		items = append(items, item)
	}
	return items, nil
}

// ParseAnalytics reads the cost analytics output.
func ParseAnalytics(r io.Reader) ([]model.AnalyticsRecord, error) {
	t, err := readOptionalTable(r)
	if err != nil {
		return nil, err
	}

	records := make([]model.AnalyticsRecord, 0, len(t.rows))
	for i, row := range t.rows {
		rec := model.AnalyticsRecord{
			ItemCode:          t.str(row, "item_code"),
			CanonicalItemName: t.first(row, "canonical_item_name", "item_name"),
			Region:            t.str(row, "region"),
			Supplier:          t.first(row, "supplier", "supplier_name"),
			TrendDirection:    t.str(row, "trend_direction"),
		}
		for _, f := range []struct {
			dst *float64
			col string
		}{
			{&rec.AvgPrice, "avg_price"},
			{&rec.MedianPrice, "median_price"},
			{&rec.MinPrice, "min_price"},
			{&rec.MaxPrice, "max_price"},
			{&rec.PriceStd, "price_std"},
		} {
			if *f.dst, _, err = t.float(row, f.col); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseAnomalies reads the anomaly detection output. Files written before the
// severity column existed carry the level inside the reason text.
func ParseAnomalies(r io.Reader) ([]model.Anomaly, error) {
	t, err := readOptionalTable(r)
	if err != nil {
		return nil, err
	}

	anomalies := make([]model.Anomaly, 0, len(t.rows))
	for i, row := range t.rows {
		a, err := parseAnomaly(t, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func parseAnomaly(t *table, row []string) (model.Anomaly, error) {
	a := model.Anomaly{
		POID:              t.str(row, "po_id"),
		ItemCode:          t.str(row, "item_code"),
		CanonicalItemName: t.first(row, "canonical_item_name", "item_name"),
		SupplierName:      t.first(row, "supplier", "supplier_name"),
		Description:       t.first(row, "description", "anomaly_reason"),
	}

	var err error
	if a.UnitPrice, _, err = t.float(row, "unit_price"); err != nil {
		return a, err
	}
	if a.ExpectedMin, _, err = t.float(row, "expected_min"); err != nil {
		return a, err
	}
	if a.ExpectedMax, _, err = t.float(row, "expected_max"); err != nil {
		return a, err
	}
	expected, hasExpected, err := t.float(row, "expected_price")
	if err != nil {
		return a, err
	}
	if hasExpected && !t.has("expected_min") && !t.has("expected_max") {
		a.ExpectedMin, a.ExpectedMax = expected, expected
	}
	if !hasExpected && (a.ExpectedMin != 0 || a.ExpectedMax != 0) {
		expected, hasExpected = (a.ExpectedMin+a.ExpectedMax)/2, true
	}

	deviation, ok, err := t.float(row, "deviation_percentage")
	if err != nil {
		return a, err
	}
	switch {
	case ok:
		a.DeviationPercentage = model.Float(deviation)
	case hasExpected && expected != 0:
		a.DeviationPercentage = model.Float((a.UnitPrice - expected) / expected * 100)
	}

	var severity model.Severity
	if t.has("anomaly_severity") || t.has("severity") {
		severity = model.ParseSeverity(t.first(row, "anomaly_severity", "severity"))
	} else {
		severity = model.SeverityFromReason(t.str(row, "anomaly_reason") + " " + a.Description)
	}
	if severity != model.SeverityUnknown {
		a.AnomalySeverity = string(severity)
	}
	return a, nil
}
