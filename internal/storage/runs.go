package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/model"
)

// DefaultRunHistory is how many runs ListProcessRuns returns without a limit.
const DefaultRunHistory = 20

// CreateProcessRun records the start of a processing run.
func (s *SQLiteStorage) CreateProcessRun(ctx context.Context, run *model.ProcessRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProcessRun(run); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO process_runs (id, started_at, status)
		VALUES (?, ?, ?)
	`, run.ID, run.StartedAt.UTC(), string(run.Status))
	if err != nil {
		return fmt.Errorf("failed to create process run: %w", err)
	}
	return nil
}

// FinishProcessRun stores the final status and counts of a run.
func (s *SQLiteStorage) FinishProcessRun(ctx context.Context, run *model.ProcessRun) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateProcessRun(run); err != nil {
		return err
	}
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE process_runs
		SET finished_at = ?, status = ?, error = ?,
			standardized_items = ?, analytics_records = ?, anomalies_found = ?
		WHERE id = ?
	`, run.FinishedAt.UTC(), string(run.Status), run.Error,
		run.StandardizedItems, run.AnalyticsRecords, run.AnomaliesFound, run.ID)
	if err != nil {
		return fmt.Errorf("failed to finish process run: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("process run %s: %w", run.ID, common.ErrNotFound)
	}
	return nil
}

const runColumns = `
	id, started_at, finished_at, status, error,
	standardized_items, analytics_records, anomalies_found
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcessRun(row rowScanner) (*model.ProcessRun, error) {
	var run model.ProcessRun
	var finished sql.NullTime
	var status string
	if err := row.Scan(
		&run.ID, &run.StartedAt, &finished, &status, &run.Error,
		&run.StandardizedItems, &run.AnalyticsRecords, &run.AnomaliesFound,
	); err != nil {
		return nil, err
	}
	run.Status = model.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

// GetProcessRun returns the run with the given id.
func (s *SQLiteStorage) GetProcessRun(ctx context.Context, id string) (*model.ProcessRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	run, err := scanProcessRun(s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM process_runs WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("process run %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get process run: %w", err)
	}
	return run, nil
}

// ListProcessRuns returns the most recent runs, newest first.
func (s *SQLiteStorage) ListProcessRuns(ctx context.Context, limit int) ([]model.ProcessRun, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit %d", ErrInvalidPaginationArgs, limit)
	}
	if limit == 0 {
		limit = DefaultRunHistory
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+runColumns+" FROM process_runs ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query process runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := []model.ProcessRun{}
	for rows.Next() {
		run, err := scanProcessRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan process run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating process runs: %w", err)
	}
	return runs, nil
}
