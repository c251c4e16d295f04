package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/tui"
	"github.com/Veraticus/costdb/internal/tui/components"
	"github.com/Veraticus/costdb/internal/tui/themes"
)

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the terminal dashboard",
		Long: `Browse the cost database in a full-screen terminal dashboard.

Views: Dashboard, Items, Analytics, Anomalies and Upload. Press ? inside
any view for its shortcuts.`,
		RunE: runDashboard,
	}

	cmd.Flags().String("theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().String("download-dir", ".", "directory for exports and templates")
	cmd.Flags().String("tab", "1", "initial view (1-5)")
	_ = viper.BindPFlag("dashboard.theme", cmd.Flags().Lookup("theme"))
	_ = viper.BindPFlag("dashboard.download_dir", cmd.Flags().Lookup("download-dir"))

	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	tabKey, _ := cmd.Flags().GetString("tab")
	tab, ok := components.TabForKey(tabKey)
	if !ok {
		return fmt.Errorf("%w: --tab must be between 1 and %d", common.ErrInvalidConfig, len(components.Tabs))
	}

	logFile, err := redirectLogs(settings.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	if err := config.EnsureDir(settings.Dashboard.DownloadDir); err != nil {
		return err
	}

	client := api.New(settings.API.BaseURL, api.WithTimeout(settings.API.Timeout))
	return tui.Run(cmd.Context(),
		tui.WithClient(client),
		tui.WithTheme(themes.GetTheme(settings.Dashboard.Theme)),
		tui.WithDownloadDir(settings.Dashboard.DownloadDir),
		tui.WithInitialTab(tab),
	)
}

// redirectLogs sends slog output to the log file so it cannot corrupt the
// alternate screen.
func redirectLogs(cfg config.LoggingSettings) (*os.File, error) {
	if err := config.EnsureDir(filepath.Dir(cfg.File)); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	level, err := common.ParseLevel(cfg.Level)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := common.SetupLoggerTo(f, level, cfg.Format); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}
