package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/costdb/internal/cli"
	"github.com/Veraticus/costdb/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

The API server migrates on start; this command is for preparing a
database ahead of time or inspecting its schema version.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "show the current schema version without applying changes")
	cmd.Flags().String("database", "", "database path (default: database.path)")
	_ = viper.BindPFlag("database.path", cmd.Flags().Lookup("database"))

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	status, _ := cmd.Flags().GetBool("status")

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	dbPath := settings.Database.Path

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if status {
		fmt.Fprintln(out, cli.RenderBox(cli.FolderIcon+"  Database Migration Status", cli.RenderFields(
			cli.Field{Label: "Database", Value: dbPath},
			cli.Field{Label: "Current version", Value: current},
			cli.Field{Label: "Latest version", Value: storage.ExpectedSchemaVersion},
		)))
		return nil
	}

	slog.Info("Running database migrations", "database", dbPath, "from_version", current)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database at schema version %d", storage.ExpectedSchemaVersion)))
	return nil
}
