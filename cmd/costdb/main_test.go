package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/tui/tuitest"
)

// setupViper resets the global configuration to defaults pointing at baseURL.
func setupViper(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	viper.Reset()
	config.SetDefaults(viper.GetViper())
	viper.Set("api.base_url", baseURL)
	viper.Set("dashboard.download_dir", dir)
	viper.Set("database.path", filepath.Join(dir, "costdb.db"))
	t.Cleanup(viper.Reset)
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return tuitest.StripANSI(out.String()), err
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestUploadCommandWithProcess(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		assert.Equal(t, "orders.csv", header.Filename)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"message": "File uploaded successfully", "filename": "upload_20240101_000000_orders.csv",
			"rows": 3, "columns": []string{"po_id"},
		})
	})
	mux.HandleFunc("/api/process", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"run_id": "run-1", "standardized_items": 3, "analytics_records": 2, "anomalies_found": 1,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	dir := setupViper(t, srv.URL)
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("po_id\nPO1\n"), 0o600))

	out, err := execute(t, uploadCmd(), path, "--process")
	require.NoError(t, err)
	assert.True(t, tuitest.ContainsInOrder(out,
		"File uploaded successfully", "upload_20240101_000000_orders.csv", "Rows", "3",
		"Data processed successfully", "run-1", "Anomalies found", "1"))
}

func TestUploadCommandRejectsNonCSV(t *testing.T) {
	setupViper(t, "http://localhost:1")

	_, err := execute(t, uploadCmd(), "orders.xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please select a CSV file")
}

func TestUploadCommandServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"error": "Missing required columns: unit"})
	}))
	defer srv.Close()

	dir := setupViper(t, srv.URL)
	path := filepath.Join(dir, "orders.csv")
	require.NoError(t, os.WriteFile(path, []byte("po_id\n"), 0o600))

	_, err := execute(t, uploadCmd(), path)
	require.Error(t, err)
	assert.Equal(t, "Upload failed: Missing required columns: unit", err.Error())
}

func TestExportCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/items", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"items": []map[string]any{{"item_code": "A"}, {"item_code": "B"}},
			"total": 2, "page": 1, "per_page": api.ExportPageSize, "pages": 1,
		})
	}))
	defer srv.Close()

	dir := setupViper(t, srv.URL)
	out, err := execute(t, exportCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 items")

	data, err := os.ReadFile(filepath.Join(dir, api.ExportFileName(time.Now())))
	require.NoError(t, err)
	var items []map[string]any
	require.NoError(t, json.Unmarshal(data, &items))
	assert.Len(t, items, 2)
}

func TestExportCommandRemovesFileOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, map[string]any{"error": "boom"})
	}))
	defer srv.Close()

	dir := setupViper(t, srv.URL)
	output := filepath.Join(dir, "export.json")
	_, err := execute(t, exportCmd(), "--output", output)
	require.Error(t, err)
	assert.Equal(t, "export failed: boom", err.Error())
	assert.NoFileExists(t, output)
}

func TestTemplateCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		assert.NoError(t, ingest.WriteTemplate(w))
	}))
	defer srv.Close()

	dir := setupViper(t, srv.URL)
	out, err := execute(t, templateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Template saved to")

	data, err := os.ReadFile(filepath.Join(dir, ingest.TemplateFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "PO001")
}

func TestMigrateCommand(t *testing.T) {
	setupViper(t, "http://localhost:1")

	out, err := execute(t, migrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Database at schema version")

	out, err = execute(t, migrateCmd(), "--status")
	require.NoError(t, err)
	assert.True(t, tuitest.ContainsInOrder(out, "Current version", "3", "Latest version", "3"))
}
