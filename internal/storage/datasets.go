package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/costdb/internal/model"
)

// ReplacePurchaseOrders swaps the raw purchase order table for orders in one transaction.
func (s *SQLiteStorage) ReplacePurchaseOrders(ctx context.Context, orders []model.PurchaseOrder) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validatePurchaseOrders(orders); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM purchase_orders`); err != nil {
			return fmt.Errorf("failed to clear purchase orders: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO purchase_orders (
				po_id, item_description, unit_price, quantity, unit,
				po_date, region, department, supplier
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, po := range orders {
			if _, err := stmt.ExecContext(ctx,
				po.POID, po.ItemDescription, po.UnitPrice, po.Quantity, po.Unit,
				po.PODate, po.Region, po.Department, po.Supplier,
			); err != nil {
				return fmt.Errorf("failed to insert purchase order %s: %w", po.POID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	slog.Info("Replaced purchase orders", "rows", len(orders))
	return nil
}

// ReplaceProcessedData swaps every pipeline output table in one transaction.
func (s *SQLiteStorage) ReplaceProcessedData(ctx context.Context, data model.ProcessedData) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStandardizedItems(data.Items); err != nil {
		return err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"standardized_items", "cost_analytics", "anomalies"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		if err := insertStandardizedItems(ctx, tx, data.Items); err != nil {
			return err
		}
		if err := insertAnalytics(ctx, tx, data.Analytics); err != nil {
			return err
		}
		return insertAnomalies(ctx, tx, data.Anomalies)
	})
	if err != nil {
		return err
	}

	slog.Info("Replaced processed data",
		"standardized_items", len(data.Items),
		"analytics_records", len(data.Analytics),
		"anomalies", len(data.Anomalies))
	return nil
}

func insertStandardizedItems(ctx context.Context, tx *sql.Tx, items []model.StandardizedItem) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO standardized_items (po_id, item_code, canonical_item_name, confidence_score, category)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, item := range items {
		if _, err := stmt.ExecContext(ctx,
			item.POID, item.ItemCode, item.CanonicalItemName, nullFloat(item.ConfidenceScore), item.Category,
		); err != nil {
			return fmt.Errorf("failed to insert standardized item %s: %w", item.POID, err)
		}
	}
	return nil
}

func insertAnalytics(ctx context.Context, tx *sql.Tx, records []model.AnalyticsRecord) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cost_analytics (
			item_code, canonical_item_name, region, supplier, avg_price,
			median_price, min_price, max_price, price_std, trend_direction
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			r.ItemCode, r.CanonicalItemName, r.Region, r.Supplier, r.AvgPrice,
			r.MedianPrice, r.MinPrice, r.MaxPrice, r.PriceStd, r.TrendDirection,
		); err != nil {
			return fmt.Errorf("failed to insert analytics record %s: %w", r.CanonicalItemName, err)
		}
	}
	return nil
}

func insertAnomalies(ctx context.Context, tx *sql.Tx, anomalies []model.Anomaly) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO anomalies (
			po_id, item_code, canonical_item_name, supplier, unit_price,
			expected_min, expected_max, deviation_percentage, anomaly_severity, description
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range anomalies {
		// Only the canonical severity field is persisted.
		severity := string(a.ResolvedSeverity())
		if severity == string(model.SeverityUnknown) {
			severity = ""
		}
		if _, err := stmt.ExecContext(ctx,
			a.POID, a.ItemCode, a.CanonicalItemName, a.SupplierName, a.UnitPrice,
			a.ExpectedMin, a.ExpectedMax, nullFloat(a.DeviationPercentage), severity, a.Description,
		); err != nil {
			return fmt.Errorf("failed to insert anomaly %s: %w", a.POID, err)
		}
	}
	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
