package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/costdb/internal/model"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/", opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewTrimsBaseURL(t *testing.T) {
	c := New("http://localhost:5000///")
	assert.Equal(t, "http://localhost:5000", c.BaseURL())
}

func TestDashboardStats(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard/stats", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		writeJSON(t, w, http.StatusOK, map[string]any{"total_items": 3, "avg_unit_price": 12.5})
	})

	stats, err := c.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.InDelta(t, 12.5, stats.AvgUnitPrice, 0.001)
	assert.Zero(t, stats.TotalSuppliers)
}

func TestItemsQuery(t *testing.T) {
	tests := []struct {
		name  string
		query ItemsQuery
		want  string
	}{
		{name: "empty", query: ItemsQuery{}, want: ""},
		{name: "page only", query: ItemsQuery{Page: 2, PerPage: 15}, want: "page=2&per_page=15"},
		{name: "search", query: ItemsQuery{Page: 1, PerPage: 15, Search: "steel pipe"}, want: "page=1&per_page=15&search=steel+pipe"},
		{name: "region", query: ItemsQuery{Page: 1, Search: "valve", Region: "North East"}, want: "page=1&region=North+East&search=valve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/items", r.URL.Path)
				assert.Equal(t, tt.want, r.URL.RawQuery)
				writeJSON(t, w, http.StatusOK, model.ItemPage{Items: []model.Item{}, Page: 1, Pages: 1})
			})

			page, err := c.Items(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, 1, page.Pages)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{name: "server message", status: http.StatusBadRequest, body: `{"error":"Only CSV files are allowed"}`, message: "Only CSV files are allowed"},
		{name: "no body", status: http.StatusInternalServerError, body: "", message: "fetch anomalies failed: HTTP 500"},
		{name: "non json", status: http.StatusBadGateway, body: "<html>bad gateway</html>", message: "fetch anomalies failed: HTTP 502"},
		{name: "empty error", status: http.StatusNotFound, body: `{"error":""}`, message: "fetch anomalies failed: HTTP 404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.Anomalies(context.Background())
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.message, Message(err))
		})
	}
}

func TestErrorDetailsKeepsOutput(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusInternalServerError, model.APIError{
			Error:        "Processing failed",
			Output:       "step 1 ok",
			ErrorDetails: "Traceback",
		})
	})

	_, err := c.Process(context.Background())
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.NotNil(t, apiErr.Details)
	assert.Equal(t, "step 1 ok", apiErr.Details.Output)
	assert.Equal(t, "Traceback", apiErr.Details.ErrorDetails)
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(srv.URL)
	_, err := c.Suppliers(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch suppliers failed")

	var apiErr *Error
	assert.False(t, errors.As(err, &apiErr))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	}, WithTimeout(50*time.Millisecond))
	defer close(release)

	_, err := c.PriceTrends(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "request timed out", Message(err))
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/upload", r.URL.Path)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		require.NoError(t, err)

		assert.Equal(t, "orders.csv", header.Filename)
		assert.Equal(t, "po_id\nPO1\n", string(data))
		writeJSON(t, w, http.StatusOK, model.UploadResult{
			Message: "File uploaded successfully", Filename: "20250101_000000_orders.csv",
			Columns: []string{"po_id"}, Rows: 1,
		})
	})

	result, err := c.Upload(context.Background(), "orders.csv", strings.NewReader("po_id\nPO1\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.Equal(t, []string{"po_id"}, result.Columns)
}

func TestProcess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/process", r.URL.Path)
		writeJSON(t, w, http.StatusOK, model.ProcessResult{Message: "Data processed successfully", StandardizedItems: 4})
	})

	result, err := c.Process(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.StandardizedItems)
}

func TestDownloadTemplate(t *testing.T) {
	const csv = "po_id,item_description\nPO001,Steel Pipe\n"
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, csv)
	})

	data, err := c.DownloadTemplate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csv, string(data))
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	require.NoError(t, c.Health(context.Background()))
}

func pagedServer(t *testing.T, total int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
		pages := (total + perPage - 1) / perPage

		items := []model.Item{}
		for i := (page - 1) * perPage; i < min(page*perPage, total); i++ {
			items = append(items, model.Item{ItemCode: fmt.Sprintf("ITEM-%d", i), UnitPrice: float64(i)})
		}
		writeJSON(t, w, http.StatusOK, model.ItemPage{Items: items, Total: total, Page: page, PerPage: perPage, Pages: pages})
	}
}

func TestExportItemsAllPages(t *testing.T) {
	c := newTestClient(t, pagedServer(t, 5))

	var buf bytes.Buffer
	var seen []int
	n, err := c.ExportItemsWithProgress(context.Background(), &buf, 2, func(page, pages int) {
		seen = append(seen, page)
		assert.Equal(t, 3, pages)
	})
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, []int{1, 2, 3}, seen)

	var items []model.Item
	require.NoError(t, json.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 5)
	assert.Equal(t, "ITEM-4", items[4].ItemCode)
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"item_code\""))
}

func TestExportItemsEmpty(t *testing.T) {
	c := newTestClient(t, pagedServer(t, 0))

	var buf bytes.Buffer
	n, err := c.ExportItems(context.Background(), &buf, 0)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "[]\n", buf.String())
}

func TestExportItemsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	var buf bytes.Buffer
	_, err := c.ExportItems(context.Background(), &buf, 10)
	require.Error(t, err)
	assert.Equal(t, "fetch items failed: HTTP 500", Message(err))
}

func TestExportFileName(t *testing.T) {
	at := time.Date(2025, 3, 9, 18, 30, 0, 0, time.UTC)
	assert.Equal(t, "cost-database-export-2025-03-09.json", ExportFileName(at))
}
