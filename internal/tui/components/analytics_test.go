package components

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
)

func analyticsClient(trends []model.PriceTrend, suppliers []model.SupplierStat) *fakeClient {
	suppliersCalled := make(chan struct{})
	return &fakeClient{
		trends: func(ctx context.Context) ([]model.PriceTrend, error) {
			select {
			case <-suppliersCalled:
				return trends, nil
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(2 * time.Second):
				return nil, errors.New("suppliers were not fetched concurrently")
			}
		},
		suppliers: func(context.Context) ([]model.SupplierStat, error) {
			close(suppliersCalled)
			return suppliers, nil
		},
	}
}

func TestAnalyticsFetchesConcurrently(t *testing.T) {
	var trends []model.PriceTrend
	for i := range 8 {
		trends = append(trends, model.PriceTrend{ItemName: fmt.Sprintf("Trend%d", i), AvgPrice: float64(100 * (i + 1)), TrendDirection: model.TrendUp})
	}
	trends[1].TrendDirection = model.TrendDown
	trends[2].TrendDirection = model.TrendStable

	var suppliers []model.SupplierStat
	for i := range 10 {
		suppliers = append(suppliers, model.SupplierStat{Supplier: fmt.Sprintf("Vendor%d", i), ItemCount: 10 - i})
	}

	c, msgs := mount(t, TabAnalytics, analyticsClient(trends, suppliers), t.TempDir())
	assert.Contains(t, view(c), "Loading analytics")

	c, _ = deliver[analyticsLoadedMsg](c, msgs)
	out := view(c)
	assert.NotContains(t, out, "Loading analytics")
	assert.Contains(t, out, "Average Price by Item")
	assert.Contains(t, out, "₹800.00")

	assert.Contains(t, out, "Vendor7")
	assert.NotContains(t, out, "Vendor8", "only the first eight suppliers are charted")

	assert.Equal(t, 2, strings.Count(out, "Trend0"), "chart and card")
	assert.Equal(t, 1, strings.Count(out, "Trend7"), "chart only")
	assert.Contains(t, out, "↑ Increasing")
	assert.Contains(t, out, "↓ Decreasing")
	assert.Contains(t, out, "→ Stable")
}

func TestAnalyticsError(t *testing.T) {
	client := &fakeClient{
		trends: func(context.Context) ([]model.PriceTrend, error) {
			return nil, &api.Error{Status: 500, Message: "fetch price trends failed: HTTP 500"}
		},
		suppliers: func(context.Context) ([]model.SupplierStat, error) { return nil, nil },
	}

	c, msgs := mount(t, TabAnalytics, client, t.TempDir())
	c, _ = deliver[analyticsLoadedMsg](c, msgs)
	out := view(c)
	assert.Contains(t, out, "fetch price trends failed: HTTP 500")
	assert.NotContains(t, out, "Loading analytics")
}

func TestAnalyticsEmpty(t *testing.T) {
	c, msgs := mount(t, TabAnalytics, analyticsClient(nil, nil), t.TempDir())
	c, _ = deliver[analyticsLoadedMsg](c, msgs)
	out := view(c)
	assert.Contains(t, out, "No price data")
	assert.Contains(t, out, "No supplier data")
	assert.Contains(t, out, "No trends yet")
}
