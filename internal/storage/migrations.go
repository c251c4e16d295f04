package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query '%s': %w", query, err)
		}
	}
	return nil
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial cost database schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS purchase_orders (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					po_id TEXT NOT NULL,
					item_description TEXT NOT NULL DEFAULT '',
					unit_price REAL NOT NULL DEFAULT 0,
					quantity REAL NOT NULL DEFAULT 0,
					unit TEXT NOT NULL DEFAULT '',
					po_date TEXT NOT NULL DEFAULT '',
					region TEXT NOT NULL DEFAULT '',
					department TEXT NOT NULL DEFAULT '',
					supplier TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS standardized_items (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					po_id TEXT NOT NULL,
					item_code TEXT NOT NULL DEFAULT '',
					canonical_item_name TEXT NOT NULL DEFAULT '',
					confidence_score REAL,
					category TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS cost_analytics (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					item_code TEXT NOT NULL DEFAULT '',
					canonical_item_name TEXT NOT NULL DEFAULT '',
					region TEXT NOT NULL DEFAULT '',
					supplier TEXT NOT NULL DEFAULT '',
					avg_price REAL NOT NULL DEFAULT 0,
					median_price REAL NOT NULL DEFAULT 0,
					min_price REAL NOT NULL DEFAULT 0,
					max_price REAL NOT NULL DEFAULT 0,
					price_std REAL NOT NULL DEFAULT 0,
					trend_direction TEXT NOT NULL DEFAULT ''
				)`,
				`CREATE TABLE IF NOT EXISTS anomalies (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					po_id TEXT NOT NULL DEFAULT '',
					item_code TEXT NOT NULL DEFAULT '',
					canonical_item_name TEXT NOT NULL DEFAULT '',
					supplier TEXT NOT NULL DEFAULT '',
					unit_price REAL NOT NULL DEFAULT 0,
					expected_min REAL NOT NULL DEFAULT 0,
					expected_max REAL NOT NULL DEFAULT 0,
					deviation_percentage REAL,
					anomaly_severity TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT ''
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Add process run history",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS process_runs (
					id TEXT PRIMARY KEY,
					started_at DATETIME NOT NULL,
					finished_at DATETIME,
					status TEXT NOT NULL,
					error TEXT NOT NULL DEFAULT '',
					standardized_items INTEGER NOT NULL DEFAULT 0,
					analytics_records INTEGER NOT NULL DEFAULT 0,
					anomalies_found INTEGER NOT NULL DEFAULT 0
				)`,
				`CREATE INDEX idx_process_runs_started_at ON process_runs(started_at)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Index join and grouping columns",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_purchase_orders_po_id ON purchase_orders(po_id)`,
				`CREATE INDEX IF NOT EXISTS idx_standardized_items_po_id ON standardized_items(po_id)`,
				`CREATE INDEX IF NOT EXISTS idx_standardized_items_category ON standardized_items(category)`,
				`CREATE INDEX IF NOT EXISTS idx_cost_analytics_name ON cost_analytics(canonical_item_name)`,
			})
		},
	},
}

// SchemaVersion returns the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
