package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/costdb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateTrends(t *testing.T) {
	records := []model.AnalyticsRecord{
		{CanonicalItemName: "Pipe", AvgPrice: 100, MinPrice: 90, MaxPrice: 110, PriceStd: 4, TrendDirection: "UP"},
		{CanonicalItemName: "Valve", AvgPrice: 50, MinPrice: 50, MaxPrice: 50, TrendDirection: "DOWN"},
		{CanonicalItemName: "Pipe", AvgPrice: 200, MinPrice: 80, MaxPrice: 250, PriceStd: 8, TrendDirection: "up"},
		{CanonicalItemName: "Flange", TrendDirection: "UP"},
		{CanonicalItemName: "Flange", TrendDirection: "DOWN"},
		{CanonicalItemName: "", AvgPrice: 1, MinPrice: 1, MaxPrice: 1},
	}

	trends := AggregateTrends(records, 0)
	require.Len(t, trends, 4)

	assert.Equal(t, model.PriceTrend{
		ItemName: "Pipe", TrendDirection: model.TrendUp,
		AvgPrice: 150, MinPrice: 80, MaxPrice: 250, PriceVariance: 6,
	}, trends[0])
	assert.Equal(t, model.TrendDown, trends[1].TrendDirection)
	assert.Equal(t, "Flange", trends[2].ItemName)
	assert.Equal(t, model.TrendStable, trends[2].TrendDirection, "tie resolves to stable")
	assert.Equal(t, "Unknown", trends[3].ItemName)

	limited := AggregateTrends(records, 2)
	require.Len(t, limited, 2)
	assert.Equal(t, "Valve", limited[1].ItemName)
}

func TestGetPriceTrends(t *testing.T) {
	store := createTestStorage(t)
	seedDataset(t, store)

	trends, err := store.GetPriceTrends(context.Background(), DefaultTrendLimit)
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, "Carbon Steel Pipe 100mm", trends[0].ItemName)
	assert.Equal(t, model.TrendUp, trends[0].TrendDirection)
	assert.InDelta(t, 50, trends[0].PriceVariance, 1e-9)
}

func TestGetSupplierStats(t *testing.T) {
	store := createTestStorage(t)
	seedDataset(t, store)
	ctx := context.Background()

	stats, err := store.GetSupplierStats(ctx, DefaultSupplierLimit)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	assert.Equal(t, "ABC Metals", stats[0].Supplier)
	assert.Equal(t, 2, stats[0].ItemCount)
	assert.InDelta(t, 1250, stats[0].AvgPrice, 1e-9)
	assert.InDelta(t, 1200, stats[0].MinPrice, 1e-9)
	assert.InDelta(t, 1300, stats[0].MaxPrice, 1e-9)
	assert.InDelta(t, 0.7, stats[0].AvgConfidence, 1e-9)
	// Ties on count order by name.
	assert.Equal(t, "FlowTech", stats[1].Supplier)
	assert.Equal(t, "ValveWorld", stats[2].Supplier)

	top, err := store.GetSupplierStats(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestGetCategoryCounts(t *testing.T) {
	store := createTestStorage(t)
	seedDataset(t, store)

	counts, err := store.GetCategoryCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Piping": 2, "Valves": 2}, counts)
}

func TestGetAnalytics_Empty(t *testing.T) {
	store := createTestStorage(t)

	records, err := store.GetAnalytics(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestGetAnomalies(t *testing.T) {
	store := createTestStorage(t)
	seedDataset(t, store)
	ctx := context.Background()

	anomalies, err := store.GetAnomalies(ctx)
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "low", anomalies[0].AnomalySeverity)
	assert.Equal(t, model.SeverityLow, anomalies[0].ResolvedSeverity())
	assert.InDelta(t, 4, anomalies[0].Deviation(), 1e-9)
	assert.Empty(t, anomalies[0].Severity)

	// Legacy severity is folded into the canonical column.
	require.NoError(t, store.ReplaceProcessedData(ctx, model.ProcessedData{
		Anomalies: []model.Anomaly{{POID: "PO9", Severity: "HIGH"}, {POID: "PO10"}},
	}))
	anomalies, err = store.GetAnomalies(ctx)
	require.NoError(t, err)
	require.Len(t, anomalies, 2)
	assert.Equal(t, "high", anomalies[0].AnomalySeverity)
	assert.Empty(t, anomalies[1].AnomalySeverity)
	assert.Nil(t, anomalies[1].DeviationPercentage)
}
