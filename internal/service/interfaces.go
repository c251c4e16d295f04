// Package service defines the interfaces shared by the API server and its backing services.
package service

import (
	"context"

	"github.com/Veraticus/costdb/internal/model"
)

// ItemFilter defines paging and search options for item queries. Region,
// when set, matches the purchase order region exactly, ignoring case.
type ItemFilter struct {
	Search  string
	Region  string
	Page    int
	PerPage int
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Dataset replacement
	ReplacePurchaseOrders(ctx context.Context, orders []model.PurchaseOrder) error
	ReplaceProcessedData(ctx context.Context, data model.ProcessedData) error

	// Read models
	GetDashboardStats(ctx context.Context) (*model.DashboardStats, error)
	ListItems(ctx context.Context, filter ItemFilter) (*model.ItemPage, error)
	GetAnalytics(ctx context.Context) ([]model.AnalyticsRecord, error)
	GetPriceTrends(ctx context.Context, limit int) ([]model.PriceTrend, error)
	GetSupplierStats(ctx context.Context, limit int) ([]model.SupplierStat, error)
	GetCategoryCounts(ctx context.Context) (map[string]int, error)
	GetAnomalies(ctx context.Context) ([]model.Anomaly, error)

	// Process run history
	CreateProcessRun(ctx context.Context, run *model.ProcessRun) error
	FinishProcessRun(ctx context.Context, run *model.ProcessRun) error
	GetProcessRun(ctx context.Context, id string) (*model.ProcessRun, error)
	ListProcessRuns(ctx context.Context, limit int) ([]model.ProcessRun, error)

	// Database management
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// Cache stores serialized API responses by route key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context) error
	Close() error
}

// PipelineRunner executes the external processing job.
type PipelineRunner interface {
	Run(ctx context.Context) (*model.ProcessResult, error)
	// TryHold claims the runner for work that must not overlap a run. It
	// reports false while a run or another hold is active.
	TryHold() (release func(), ok bool)
}
