package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/costdb/internal/cache"
	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/pipeline"
	"github.com/Veraticus/costdb/internal/server"
	"github.com/Veraticus/costdb/internal/storage"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the cost database API server",
		Long: `Serve the cost database REST API over the local SQLite store.

Uploads are saved under the data directory and processing runs the
configured pipeline command, then loads its outputs into the store.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", config.DefaultServerAddr, "listen address")
	cmd.Flags().Bool("reload", false, "load existing pipeline outputs into the store before serving")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	reload, _ := cmd.Flags().GetBool("reload")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := cmd.Context()
	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	responses, err := cache.New(settings.Cache)
	if err != nil {
		return fmt.Errorf("failed to set up cache: %w", err)
	}
	defer func() { _ = responses.Close() }()

	files, err := ingest.NewFileStore(settings.Data.UploadDir(), settings.Data.RawFile())
	if err != nil {
		return err
	}
	if err := config.EnsureDir(settings.Data.ProcessedDir()); err != nil {
		return err
	}

	runner := pipeline.NewRunner(settings.Pipeline, settings.Data.ProcessedDir(), store, responses)
	if reload {
		reloadProcessed(ctx, runner)
	}

	slog.Info("Starting cost database API",
		"addr", settings.Server.Addr,
		"database", settings.Database.Path,
		"data_dir", settings.Data.Dir)

	srv := server.New(settings.Server, settings.Pipeline.Timeout, server.Deps{
		Store:  store,
		Cache:  responses,
		Runner: runner,
		Files:  files,
	})
	return srv.Run(ctx)
}

// reloadProcessed loads outputs left by an earlier run. A missing or broken
// output is not fatal: the API starts with whatever the store holds.
func reloadProcessed(ctx context.Context, runner *pipeline.Runner) {
	data, err := runner.Reload(ctx)
	if err != nil {
		slog.Warn("Could not load processed data", "error", err)
		return
	}
	common.LogInfo("Loaded processed data", common.Fields{
		"standardized_items": len(data.Items),
		"analytics_records":  len(data.Analytics),
		"anomalies":          len(data.Anomalies),
	})
}
