// Package testutil provides test database helpers and fixture datasets for costdb tests.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/storage"
)

// TestDB represents a migrated in-memory test database.
type TestDB struct {
	Storage *storage.SQLiteStorage
	t       *testing.T
}

// SetupTestDB creates a new in-memory test database.
// It automatically handles migrations and cleanup.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return &TestDB{
		Storage: store,
		t:       t,
	}
}

// SetupTestDBWithData creates a test database seeded with SampleOrders and SampleProcessedData.
//
// Example:
//
//	db := testutil.SetupTestDBWithData(t)
//	page, err := db.Storage.ListItems(ctx, service.ItemFilter{})
func SetupTestDBWithData(t *testing.T) *TestDB {
	t.Helper()

	db := SetupTestDB(t)
	db.Seed(SampleOrders(), SampleProcessedData())
	return db
}

// Seed replaces the database contents or fails the test.
func (db *TestDB) Seed(orders []model.PurchaseOrder, data model.ProcessedData) {
	db.t.Helper()
	ctx := context.Background()

	if err := db.Storage.ReplacePurchaseOrders(ctx, orders); err != nil {
		db.t.Fatalf("failed to seed purchase orders: %v", err)
	}
	if err := db.Storage.ReplaceProcessedData(ctx, data); err != nil {
		db.t.Fatalf("failed to seed processed data: %v", err)
	}
}

// SampleOrders returns the three purchase orders of the upload template.
func SampleOrders() []model.PurchaseOrder {
	return []model.PurchaseOrder{
		{POID: "PO001", ItemDescription: "Carbon Steel Pipe 100mm", UnitPrice: 1200, Quantity: 10, Unit: "pcs", PODate: "2024-01-01", Region: "North", Department: "Maintenance", Supplier: "ABC Metals"},
		{POID: "PO002", ItemDescription: "Stainless Steel Valve 2 inch", UnitPrice: 5000, Quantity: 5, Unit: "pcs", PODate: "2024-01-02", Region: "South", Department: "Production", Supplier: "ValveWorld"},
		{POID: "PO003", ItemDescription: "Gate Valve CS 50mm", UnitPrice: 4500, Quantity: 3, Unit: "pcs", PODate: "2024-01-03", Region: "East", Department: "Maintenance", Supplier: "FlowTech"},
	}
}

// SampleProcessedData returns pipeline output matching SampleOrders.
func SampleProcessedData() model.ProcessedData {
	return model.ProcessedData{
		Items: []model.StandardizedItem{
			{POID: "PO001", ItemCode: "PIPE-CS-100", CanonicalItemName: "Carbon Steel Pipe 100mm", ConfidenceScore: model.Float(0.95), Category: "Piping"},
			{POID: "PO002", ItemCode: "VALVE-SS-2", CanonicalItemName: "Stainless Steel Valve 2in", ConfidenceScore: model.Float(0.75), Category: "Valves"},
			{POID: "PO003", ItemCode: "VALVE-GATE-50", CanonicalItemName: "Gate Valve 50mm", ConfidenceScore: model.Float(0.55), Category: "Valves"},
		},
		Analytics: []model.AnalyticsRecord{
			{ItemCode: "PIPE-CS-100", CanonicalItemName: "Carbon Steel Pipe 100mm", Region: "North", Supplier: "ABC Metals", AvgPrice: 1200, MedianPrice: 1200, MinPrice: 1200, MaxPrice: 1200, TrendDirection: "UP"},
			{ItemCode: "VALVE-SS-2", CanonicalItemName: "Stainless Steel Valve 2in", Region: "South", Supplier: "ValveWorld", AvgPrice: 5000, MedianPrice: 5000, MinPrice: 5000, MaxPrice: 5000, TrendDirection: "DOWN"},
			{ItemCode: "VALVE-GATE-50", CanonicalItemName: "Gate Valve 50mm", Region: "East", Supplier: "FlowTech", AvgPrice: 4500, MedianPrice: 4500, MinPrice: 4500, MaxPrice: 4500, TrendDirection: "stable"},
		},
		Anomalies: []model.Anomaly{
			{POID: "PO002", ItemCode: "VALVE-SS-2", CanonicalItemName: "Stainless Steel Valve 2in", SupplierName: "ValveWorld", UnitPrice: 5000, ExpectedMin: 2500, ExpectedMax: 3400, DeviationPercentage: model.Float(45.2), AnomalySeverity: "high", Description: "HIGH: price 45% above expected"},
		},
	}
}
