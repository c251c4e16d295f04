package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/service"
	"golang.org/x/sync/errgroup"
)

// Item listing bounds.
const (
	DefaultItemsPerPage = 20
	MaxItemsPerPage     = 10000
)

const itemsFrom = `
	FROM standardized_items s
	LEFT JOIN purchase_orders p ON p.po_id = s.po_id
`

const (
	itemSearchClause = `(s.canonical_item_name LIKE ? ESCAPE '\' OR p.supplier LIKE ? ESCAPE '\')`
	itemRegionClause = `COALESCE(p.region, '') = ? COLLATE NOCASE`
)

// NormalizeItemFilter applies the listing defaults and bounds to filter.
func NormalizeItemFilter(filter service.ItemFilter) service.ItemFilter {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultItemsPerPage
	}
	if filter.PerPage > MaxItemsPerPage {
		filter.PerPage = MaxItemsPerPage
	}
	filter.Search = strings.TrimSpace(filter.Search)
	filter.Region = strings.TrimSpace(filter.Region)
	return filter
}

// likePattern builds a case-insensitive substring pattern with LIKE wildcards escaped.
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(search) + "%"
}

// ListItems returns one page of standardized items joined with their purchase orders.
func (s *SQLiteStorage) ListItems(ctx context.Context, filter service.ItemFilter) (*model.ItemPage, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	filter = NormalizeItemFilter(filter)

	var clauses []string
	var args []any
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		clauses = append(clauses, itemSearchClause)
		args = append(args, pattern, pattern)
	}
	if filter.Region != "" {
		clauses = append(clauses, itemRegionClause)
		args = append(args, filter.Region)
	}
	where := ""
	if len(clauses) > 0 {
		where = "\n\tWHERE " + strings.Join(clauses, " AND ") + "\n"
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*)"+itemsFrom+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count items: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.item_code, s.canonical_item_name, COALESCE(p.supplier, ''), COALESCE(p.unit_price, 0),
			s.confidence_score, s.category, s.po_id, COALESCE(p.region, ''), COALESCE(p.unit, ''),
			COALESCE(p.po_date, ''), COALESCE(p.quantity, 0)
	`+itemsFrom+where+`
		ORDER BY s.id
		LIMIT ? OFFSET ?
	`, append(args, filter.PerPage, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]model.Item, 0, filter.PerPage)
	for rows.Next() {
		var item model.Item
		var confidence sql.NullFloat64
		if err := rows.Scan(
			&item.ItemCode, &item.CanonicalItemName, &item.SupplierName, &item.UnitPrice,
			&confidence, &item.Category, &item.POID, &item.Region, &item.Unit,
			&item.PODate, &item.Quantity,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		item.StandardizationConfidence = floatPtr(confidence)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return &model.ItemPage{
		Items:   items,
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Pages:   (total + filter.PerPage - 1) / filter.PerPage,
	}, nil
}

// GetDashboardStats computes the aggregate dashboard snapshot.
func (s *SQLiteStorage) GetDashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var stats model.DashboardStats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := s.db.QueryRowContext(gctx, `
			SELECT COUNT(*),
				COUNT(DISTINCT NULLIF(p.supplier, '')),
				COALESCE(AVG(p.unit_price), 0),
				COALESCE(AVG(s.confidence_score), 0),
				COUNT(DISTINCT NULLIF(s.category, ''))
		`+itemsFrom).Scan(
			&stats.TotalItems,
			&stats.TotalSuppliers,
			&stats.AvgUnitPrice,
			&stats.AvgConfidence,
			&stats.TotalCategories,
		)
		if err != nil {
			return fmt.Errorf("failed to compute item stats: %w", err)
		}
		return nil
	})

	var anomalies int
	g.Go(func() error {
		if err := s.db.QueryRowContext(gctx, `SELECT COUNT(*) FROM anomalies`).Scan(&anomalies); err != nil {
			return fmt.Errorf("failed to count anomalies: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	stats.ItemsWithAnomalies = anomalies
	return &stats, nil
}
