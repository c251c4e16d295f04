package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/costdb/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStandardized(t *testing.T) {
	data := `po_id,item_code,canonical_item_name,confidence_score,category
PO001,PIPE-CS-100,Carbon Steel Pipe 100mm,0.93,Piping
PO002,VALVE-SS-2,Stainless Steel Valve 2in,,Valves
`
	items, err := ParseStandardized(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NotNil(t, items[0].ConfidenceScore)
	assert.InDelta(t, 0.93, *items[0].ConfidenceScore, 1e-9)
	assert.Nil(t, items[1].ConfidenceScore)
	assert.Equal(t, "Valves", items[1].Category)
}

func TestParseStandardized_MissingCategoryColumn(t *testing.T) {
	items, err := ParseStandardized(strings.NewReader("po_id,canonical_item_name\nPO1,Pipe\n"))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].Category)
	assert.Nil(t, items[0].ConfidenceScore)
}

func TestParseAnalytics(t *testing.T) {
	data := `item_code,canonical_item_name,region,supplier,avg_price,median_price,min_price,max_price,price_std,trend_direction
PIPE-CS-100,Carbon Steel Pipe 100mm,North,ABC Metals,1250,1250,1200,1300,70.71,UP
`
	records, err := ParseAnalytics(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, model.AnalyticsRecord{
		ItemCode: "PIPE-CS-100", CanonicalItemName: "Carbon Steel Pipe 100mm", Region: "North",
		Supplier: "ABC Metals", AvgPrice: 1250, MedianPrice: 1250, MinPrice: 1200, MaxPrice: 1300,
		PriceStd: 70.71, TrendDirection: "UP",
	}, records[0])
}

func TestParseAnalytics_BadNumber(t *testing.T) {
	_, err := ParseAnalytics(strings.NewReader("canonical_item_name,avg_price\nPipe,cheap\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `row 2: avg_price "cheap" is not a number`)
}

func TestParseAnomalies(t *testing.T) {
	tests := []struct {
		name          string
		data          string
		wantSeverity  string
		wantDeviation *float64
		wantMin       float64
		wantMax       float64
	}{
		{
			name: "canonical columns",
			data: "po_id,canonical_item_name,supplier,unit_price,expected_min,expected_max,deviation_percentage,anomaly_severity,description\n" +
				"PO2,Valve,ValveWorld,5000,2500,3400,45.2,High,too expensive\n",
			wantSeverity: "high", wantDeviation: model.Float(45.2), wantMin: 2500, wantMax: 3400,
		},
		{
			name: "legacy severity column",
			data: "po_id,unit_price,severity\nPO2,10,MEDIUM\n",
			wantSeverity: "medium",
		},
		{
			name: "severity from reason with expected price",
			data: "po_id,unit_price,expected_price,anomaly_reason\nPO2,150,100,CRITICAL: 50% above expected\n",
			wantSeverity: "high", wantDeviation: model.Float(50), wantMin: 100, wantMax: 100,
		},
		{
			name: "deviation from range midpoint",
			data: "po_id,unit_price,expected_min,expected_max,anomaly_reason\nPO2,80,90,110,LOW deviation\n",
			wantSeverity: "low", wantDeviation: model.Float(-20), wantMin: 90, wantMax: 110,
		},
		{
			name: "unknown severity",
			data: "po_id,unit_price,anomaly_severity\nPO2,10,\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			anomalies, err := ParseAnomalies(strings.NewReader(tt.data))
			require.NoError(t, err)
			require.Len(t, anomalies, 1)

			a := anomalies[0]
			assert.Equal(t, tt.wantSeverity, a.AnomalySeverity)
			assert.Empty(t, a.Severity)
			if tt.wantDeviation == nil {
				assert.Nil(t, a.DeviationPercentage)
			} else {
				require.NotNil(t, a.DeviationPercentage)
				assert.InDelta(t, *tt.wantDeviation, *a.DeviationPercentage, 1e-9)
			}
			assert.InDelta(t, tt.wantMin, a.ExpectedMin, 1e-9)
			assert.InDelta(t, tt.wantMax, a.ExpectedMax, 1e-9)
		})
	}
}

func TestParseAnomalies_Empty(t *testing.T) {
	anomalies, err := ParseAnomalies(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func writeProcessed(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0600))
	}
}

func TestLoadProcessed(t *testing.T) {
	dir := t.TempDir()
	writeProcessed(t, dir, map[string]string{
		StandardizedFile: "po_id,item_code,canonical_item_name,confidence_score,category\nPO1,P,Pipe,0.9,Piping\n",
		AnalyticsFile:    "canonical_item_name,avg_price,trend_direction\nPipe,10,UP\n",
		AnomaliesFile:    "po_id,unit_price,anomaly_severity\nPO1,99,high\n",
	})

	data, err := LoadProcessed(dir)
	require.NoError(t, err)
	assert.Len(t, data.Items, 1)
	assert.Len(t, data.Analytics, 1)
	assert.Len(t, data.Anomalies, 1)
}

func TestLoadProcessed_MissingAnomaliesFile(t *testing.T) {
	dir := t.TempDir()
	writeProcessed(t, dir, map[string]string{
		StandardizedFile: "po_id\nPO1\n",
		AnalyticsFile:    "canonical_item_name\nPipe\n",
	})

	data, err := LoadProcessed(dir)
	require.NoError(t, err)
	assert.Empty(t, data.Anomalies)
}

func TestLoadProcessed_MissingRequiredFile(t *testing.T) {
	dir := t.TempDir()
	writeProcessed(t, dir, map[string]string{AnalyticsFile: "canonical_item_name\nPipe\n"})

	_, err := LoadProcessed(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), StandardizedFile)
}
