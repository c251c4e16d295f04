package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/cli"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every item as a JSON file",
		Long: `Download every standardized item from the API into one JSON array.

Items are fetched page by page, so exports are never truncated.`,
		RunE: runExport,
	}

	cmd.Flags().StringP("output", "o", "", "output file (default: <download dir>/cost-database-export-<date>.json)")
	cmd.Flags().Int("page-size", api.ExportPageSize, "items requested per page")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	pageSize, _ := cmd.Flags().GetInt("page-size")
	if output == "" {
		output = filepath.Join(settings.Dashboard.DownloadDir, api.ExportFileName(time.Now()))
	}

	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // path chosen by the user
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	bar := newPageBar(cmd.ErrOrStderr())
	client := api.New(settings.API.BaseURL, api.WithTimeout(settings.API.Timeout))
	count, err := client.ExportItemsWithProgress(cmd.Context(), f, pageSize, func(page, pages int) {
		bar.ChangeMax(max(pages, 1))
		if err := bar.Set(page); err != nil {
			slog.Warn("Failed to update progress bar", "error", err)
		}
	})
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(output)
		return fmt.Errorf("export failed: %s", api.Message(err))
	}
	_ = bar.Finish()

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Exported %d items to %s", count, output)))
	return nil
}

func newPageBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Exporting pages...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprintln(w)
		}),
	)
}

func templateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Download the purchase order CSV template",
		RunE:  runTemplate,
	}

	cmd.Flags().StringP("output", "o", "", "output file (default: <download dir>/"+ingest.TemplateFileName+")")

	return cmd
}

func runTemplate(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		output = filepath.Join(settings.Dashboard.DownloadDir, ingest.TemplateFileName)
	}

	client := api.New(settings.API.BaseURL, api.WithTimeout(settings.API.Timeout))
	data, err := client.DownloadTemplate(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %s", viewmodel.TemplateFailedMessage, api.Message(err))
	}
	if err := os.WriteFile(output, data, 0o600); err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Template saved to "+output))
	return nil
}

func uploadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "upload <file.csv>",
		Short: "Upload a purchase order CSV",
		Long: `Upload a purchase order CSV to the API and optionally run processing.

The file must contain the columns: po_id, item_description, unit_price,
quantity, unit, po_date, region, department, supplier.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	cmd.Flags().Bool("process", false, "run processing after a successful upload")

	return cmd
}

func runUpload(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	doProcess, _ := cmd.Flags().GetBool("process")

	path := args[0]
	if !viewmodel.IsCSVName(path) {
		return fmt.Errorf("%s: %s", viewmodel.NotCSVMessage, path)
	}

	f, err := os.Open(path) //nolint:gosec // path chosen by the user
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = f.Close() }()

	out := cmd.OutOrStdout()
	client := api.New(settings.API.BaseURL, api.WithTimeout(settings.API.Timeout))

	uploaded, err := client.Upload(cmd.Context(), filepath.Base(path), f)
	if err != nil {
		return fmt.Errorf("%s: %s", viewmodel.UploadFailedMessage, api.Message(err))
	}
	fmt.Fprintln(out, cli.RenderBox(cli.SuccessIcon+" File uploaded successfully", uploadFields(uploaded)))

	if !doProcess {
		return nil
	}

	fmt.Fprintln(out, cli.FormatInfo("Processing data… this can take a few minutes"))
	processed, err := client.Process(cmd.Context())
	if err != nil {
		return fmt.Errorf("%s: %s", viewmodel.ProcessFailedMessage, api.Message(err))
	}
	fmt.Fprintln(out, cli.RenderBox(cli.SuccessIcon+" Data processed successfully", processFields(processed)))
	return nil
}

func uploadFields(r *model.UploadResult) string {
	return cli.RenderFields(
		cli.Field{Label: "Saved as", Value: r.Filename},
		cli.Field{Label: "Rows", Value: r.Rows},
		cli.Field{Label: "Columns", Value: len(r.Columns)},
	)
}

func processFields(r *model.ProcessResult) string {
	return cli.RenderFields(
		cli.Field{Label: "Run", Value: r.RunID},
		cli.Field{Label: "Standardized items", Value: r.StandardizedItems},
		cli.Field{Label: "Analytics records", Value: r.AnalyticsRecords},
		cli.Field{Label: "Anomalies found", Value: r.AnomaliesFound},
	)
}
