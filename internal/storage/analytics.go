package storage

import (
	"context"
	"fmt"

	"github.com/Veraticus/costdb/internal/model"
)

// Default result sizes for the aggregate endpoints.
const (
	DefaultTrendLimit    = 10
	DefaultSupplierLimit = 10
)

// GetAnalytics returns every cost analytics record in load order.
func (s *SQLiteStorage) GetAnalytics(ctx context.Context) ([]model.AnalyticsRecord, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_code, canonical_item_name, region, supplier, avg_price,
			median_price, min_price, max_price, price_std, trend_direction
		FROM cost_analytics
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query analytics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []model.AnalyticsRecord{}
	for rows.Next() {
		var r model.AnalyticsRecord
		if err := rows.Scan(
			&r.ItemCode, &r.CanonicalItemName, &r.Region, &r.Supplier, &r.AvgPrice,
			&r.MedianPrice, &r.MinPrice, &r.MaxPrice, &r.PriceStd, &r.TrendDirection,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analytics record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analytics: %w", err)
	}
	return records, nil
}

// GetPriceTrends returns one trend per distinct canonical item. A limit of 0 returns all.
func (s *SQLiteStorage) GetPriceTrends(ctx context.Context, limit int) ([]model.PriceTrend, error) {
	records, err := s.GetAnalytics(ctx)
	if err != nil {
		return nil, err
	}
	return AggregateTrends(records, limit), nil
}

type trendAccumulator struct {
	votes    map[model.TrendDirection]int
	name     string
	sumAvg   float64
	sumStd   float64
	minPrice float64
	maxPrice float64
	count    int
}

// AggregateTrends folds analytics records into one PriceTrend per item name,
// in order of first appearance. The direction is the majority vote across
// records; a tie is stable.
func AggregateTrends(records []model.AnalyticsRecord, limit int) []model.PriceTrend {
	order := []string{}
	acc := map[string]*trendAccumulator{}

	for _, r := range records {
		name := r.CanonicalItemName
		if name == "" {
			name = "Unknown"
		}
		a, ok := acc[name]
		if !ok {
			a = &trendAccumulator{
				name:     name,
				votes:    map[model.TrendDirection]int{},
				minPrice: r.MinPrice,
				maxPrice: r.MaxPrice,
			}
			acc[name] = a
			order = append(order, name)
		}
		a.count++
		a.sumAvg += r.AvgPrice
		a.sumStd += r.PriceStd
		a.minPrice = min(a.minPrice, r.MinPrice)
		a.maxPrice = max(a.maxPrice, r.MaxPrice)
		a.votes[model.ParseTrendDirection(r.TrendDirection)]++
	}

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	trends := make([]model.PriceTrend, 0, len(order))
	for _, name := range order {
		a := acc[name]
		trends = append(trends, model.PriceTrend{
			ItemName:       a.name,
			TrendDirection: majorityDirection(a.votes),
			AvgPrice:       a.sumAvg / float64(a.count),
			MinPrice:       a.minPrice,
			MaxPrice:       a.maxPrice,
			PriceVariance:  a.sumStd / float64(a.count),
		})
	}
	return trends
}

func majorityDirection(votes map[model.TrendDirection]int) model.TrendDirection {
	best := model.TrendStable
	bestVotes := -1
	tied := false
	for _, d := range []model.TrendDirection{model.TrendUp, model.TrendDown, model.TrendStable} {
		switch n := votes[d]; {
		case n > bestVotes:
			best, bestVotes, tied = d, n, false
		case n == bestVotes:
			tied = true
		}
	}
	if tied {
		return model.TrendStable
	}
	return best
}

// GetSupplierStats groups items by supplier, largest first. A limit of 0 returns all.
func (s *SQLiteStorage) GetSupplierStats(ctx context.Context, limit int) ([]model.SupplierStat, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT p.supplier, COUNT(*), AVG(p.unit_price), MIN(p.unit_price), MAX(p.unit_price),
			COALESCE(AVG(s.confidence_score), 0)
		FROM standardized_items s
		JOIN purchase_orders p ON p.po_id = s.po_id
		WHERE p.supplier <> ''
		GROUP BY p.supplier
		ORDER BY COUNT(*) DESC, p.supplier ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier stats: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stats := []model.SupplierStat{}
	for rows.Next() {
		var st model.SupplierStat
		if err := rows.Scan(
			&st.Supplier, &st.ItemCount, &st.AvgPrice, &st.MinPrice, &st.MaxPrice, &st.AvgConfidence,
		); err != nil {
			return nil, fmt.Errorf("failed to scan supplier stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supplier stats: %w", err)
	}
	return stats, nil
}

// GetCategoryCounts returns the number of standardized items per category.
func (s *SQLiteStorage) GetCategoryCounts(ctx context.Context) (map[string]int, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, COUNT(*)
		FROM standardized_items
		WHERE category <> ''
		GROUP BY category
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := map[string]int{}
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		counts[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return counts, nil
}
