package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Veraticus/costdb/internal/model"
)

// GetAnomalies returns every detected anomaly in load order.
func (s *SQLiteStorage) GetAnomalies(ctx context.Context) ([]model.Anomaly, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT po_id, item_code, canonical_item_name, supplier, unit_price,
			expected_min, expected_max, deviation_percentage, anomaly_severity, description
		FROM anomalies
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query anomalies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	anomalies := []model.Anomaly{}
	for rows.Next() {
		var a model.Anomaly
		var deviation sql.NullFloat64
		if err := rows.Scan(
			&a.POID, &a.ItemCode, &a.CanonicalItemName, &a.SupplierName, &a.UnitPrice,
			&a.ExpectedMin, &a.ExpectedMax, &deviation, &a.AnomalySeverity, &a.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan anomaly: %w", err)
		}
		a.DeviationPercentage = floatPtr(deviation)
		anomalies = append(anomalies, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating anomalies: %w", err)
	}
	return anomalies, nil
}
