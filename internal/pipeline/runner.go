package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/service"
	"github.com/google/uuid"
)

// Failure carries the captured output of a failed run.
type Failure struct {
	Err    error
	Output string
	Stderr string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("processing failed: %v", f.Err)
}

func (f *Failure) Unwrap() []error {
	return []error{common.ErrProcessingFailed, f.Err}
}

// Runner executes the pipeline at most once at a time and reloads its outputs.
type Runner struct {
	store        service.Storage
	cache        service.Cache
	exec         Executor
	now          func() time.Time
	newID        func() string
	processedDir string
	cfg          config.PipelineSettings
	mu           sync.Mutex
	running      bool
}

var _ service.PipelineRunner = (*Runner)(nil)

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(r *Runner) { r.exec = e }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a runner reading outputs from processedDir. cache may be nil.
func NewRunner(cfg config.PipelineSettings, processedDir string, store service.Storage, cache service.Cache, opts ...Option) *Runner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultPipelineTimeout
	}
	r := &Runner{
		store:        store,
		cache:        cache,
		cfg:          cfg,
		processedDir: processedDir,
		exec:         ExecExecutor{Env: DefaultEnv},
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Running reports whether a run is in progress.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// TryHold claims the runner without executing anything. Run reports
// ErrProcessingInProgress until release is called.
func (r *Runner) TryHold() (func(), bool) {
	if !r.acquire() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(r.release) }, true
}

func (r *Runner) acquire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return false
	}
	r.running = true
	return true
}

func (r *Runner) release() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}

// Run executes the pipeline, reloads its outputs and records the run.
func (r *Runner) Run(ctx context.Context) (*model.ProcessResult, error) {
	if !r.acquire() {
		return nil, common.ErrProcessingInProgress
	}
	defer r.release()

	run := &model.ProcessRun{
		ID:        r.newID(),
		StartedAt: r.now().UTC(),
		Status:    model.RunRunning,
	}
	if err := r.store.CreateProcessRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to record process run: %w", err)
	}

	logger := slog.With("run_id", run.ID)
	logger.Info("Starting processing pipeline",
		"command", strings.Join(r.cfg.Command, " "),
		"workdir", r.cfg.WorkDir,
		"timeout", r.cfg.Timeout)

	result, err := r.execute(ctx, run.ID)
	r.finish(ctx, run, result, err)
	if err != nil {
		logger.Error("Processing pipeline failed", "error", err)
		return nil, err
	}

	logger.Info("Processing pipeline finished",
		"standardized_items", result.StandardizedItems,
		"analytics_records", result.AnalyticsRecords,
		"anomalies_found", result.AnomaliesFound,
		"duration", r.now().Sub(run.StartedAt))
	return result, nil
}

func (r *Runner) execute(ctx context.Context, runID string) (*model.ProcessResult, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	stdout, stderr, err := r.exec.Execute(runCtx, r.cfg.WorkDir, r.cfg.Command)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w after %s", common.ErrProcessingTimeout, r.cfg.Timeout)
	}
	if err != nil {
		return nil, &Failure{Err: err, Output: stdout, Stderr: stderr}
	}

	data, err := r.Reload(ctx)
	if err != nil {
		return nil, &Failure{Err: err, Output: stdout, Stderr: stderr}
	}

	return &model.ProcessResult{
		Message:           "Data processed successfully",
		RunID:             runID,
		Output:            stdout,
		StandardizedItems: len(data.Items),
		AnalyticsRecords:  len(data.Analytics),
		AnomaliesFound:    len(data.Anomalies),
	}, nil
}

// Reload loads the processed outputs into the store and invalidates the cache.
func (r *Runner) Reload(ctx context.Context) (model.ProcessedData, error) {
	data, err := ingest.LoadProcessed(r.processedDir)
	if err != nil {
		return data, fmt.Errorf("failed to load processed data: %w", err)
	}
	if err := r.store.ReplaceProcessedData(ctx, data); err != nil {
		return data, fmt.Errorf("failed to store processed data: %w", err)
	}
	if r.cache != nil {
		if err := r.cache.Invalidate(ctx); err != nil {
			slog.Warn("Failed to invalidate response cache", "error", err)
		}
	}
	return data, nil
}

// finish records the outcome on a fresh context so a cancelled request still closes the run.
func (r *Runner) finish(ctx context.Context, run *model.ProcessRun, result *model.ProcessResult, runErr error) {
	finished := r.now().UTC()
	run.FinishedAt = &finished
	if runErr != nil {
		run.Status = model.RunFailed
		run.Error = runErr.Error()
	} else {
		run.Status = model.RunSucceeded
		run.StandardizedItems = result.StandardizedItems
		run.AnalyticsRecords = result.AnalyticsRecords
		run.AnomaliesFound = result.AnomaliesFound
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := r.store.FinishProcessRun(saveCtx, run); err != nil {
		common.LogError(err, "Failed to record process run result", common.Fields{"run_id": run.ID})
	}
}
