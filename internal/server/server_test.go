package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/costdb/internal/cache"
	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/pipeline"
	"github.com/Veraticus/costdb/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	result  *model.ProcessResult
	err     error
	running bool
	calls   int
	holds   int
}

func (f *fakeRunner) Run(_ context.Context) (*model.ProcessResult, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeRunner) TryHold() (func(), bool) {
	if f.running {
		return nil, false
	}
	f.running = true
	f.holds++
	return func() { f.running = false }, true
}

type testServer struct {
	router  http.Handler
	db      *testutil.TestDB
	cache   *cache.Memory
	runner  *fakeRunner
	dataDir string
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()

	db := testutil.SetupTestDBWithData(t)
	mem := cache.NewMemory(time.Minute)
	t.Cleanup(func() { _ = mem.Close() })

	dataDir := t.TempDir()
	data := config.DataSettings{Dir: dataDir}
	files, err := ingest.NewFileStore(data.UploadDir(), data.RawFile())
	require.NoError(t, err)

	runner := &fakeRunner{}
	srv := New(config.ServerSettings{MaxUpload: maxUpload}, 5*time.Minute, Deps{
		Store:  db.Storage,
		Cache:  mem,
		Runner: runner,
		Files:  files,
	})

	return &testServer{router: srv.Router(), db: db, cache: mem, runner: runner, dataDir: dataDir}
}

func (ts *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(t *testing.T, target string) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, httptest.NewRequest(http.MethodGet, target, nil))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","message":"API is running"}`, w.Body.String())
}

func TestDashboardStats(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/dashboard/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))

	stats := decode[model.DashboardStats](t, w)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 3, stats.TotalSuppliers)
	assert.InDelta(t, 3566.67, stats.AvgUnitPrice, 0.01)
	assert.InDelta(t, 0.75, stats.AvgConfidence, 1e-9)
	assert.Equal(t, 1, stats.ItemsWithAnomalies)
	assert.Equal(t, 2, stats.TotalCategories)

	again := ts.get(t, "/api/dashboard/stats")
	assert.Equal(t, "HIT", again.Header().Get("X-Cache"))
	assert.JSONEq(t, w.Body.String(), again.Body.String())
}

func TestListItems(t *testing.T) {
	ts := newTestServer(t, 0)

	tests := []struct {
		name      string
		target    string
		wantCount int
		wantTotal int
		wantPages int
		wantPage  int
	}{
		{name: "defaults", target: "/api/items", wantCount: 3, wantTotal: 3, wantPages: 1, wantPage: 1},
		{name: "paged", target: "/api/items?page=2&per_page=2", wantCount: 1, wantTotal: 3, wantPages: 2, wantPage: 2},
		{name: "search supplier", target: "/api/items?search=valveworld", wantCount: 1, wantTotal: 1, wantPages: 1, wantPage: 1},
		{name: "region", target: "/api/items?region=east", wantCount: 1, wantTotal: 1, wantPages: 1, wantPage: 1},
		{name: "region and search", target: "/api/items?region=North&search=valve", wantCount: 0, wantTotal: 0, wantPages: 0, wantPage: 1},
		{name: "page zero clamps", target: "/api/items?page=0&per_page=15", wantCount: 3, wantTotal: 3, wantPages: 1, wantPage: 1},
		{name: "past the end", target: "/api/items?page=9", wantCount: 0, wantTotal: 3, wantPages: 1, wantPage: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.get(t, tt.target)
			require.Equal(t, http.StatusOK, w.Code)

			page := decode[model.ItemPage](t, w)
			assert.Len(t, page.Items, tt.wantCount)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPages, page.Pages)
			assert.Equal(t, tt.wantPage, page.Page)
		})
	}
}

func TestListItems_InvalidQuery(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/items?page=abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[model.APIError](t, w).Error, "Invalid request")

	w = ts.get(t, "/api/items?search="+strings.Repeat("x", 201))
	require.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decode[model.APIError](t, w)
	assert.Equal(t, "Validation failed", apiErr.Error)
	require.Len(t, apiErr.Details, 1)
	assert.Equal(t, "Search must be at most 200", apiErr.Details[0].Info)
}

func TestAggregateEndpoints(t *testing.T) {
	ts := newTestServer(t, 0)

	trends := decode[[]model.PriceTrend](t, ts.get(t, "/api/price-trends"))
	require.Len(t, trends, 3)
	assert.Equal(t, model.TrendUp, trends[0].TrendDirection)
	assert.Equal(t, model.TrendDown, trends[1].TrendDirection)

	limited := decode[[]model.PriceTrend](t, ts.get(t, "/api/price-trends?limit=1"))
	assert.Len(t, limited, 1)

	suppliers := decode[[]model.SupplierStat](t, ts.get(t, "/api/suppliers"))
	require.Len(t, suppliers, 3)
	assert.Equal(t, "ABC Metals", suppliers[0].Supplier)

	categories := decode[map[string]int](t, ts.get(t, "/api/categories"))
	assert.Equal(t, map[string]int{"Piping": 1, "Valves": 2}, categories)

	analytics := decode[[]model.AnalyticsRecord](t, ts.get(t, "/api/analytics"))
	assert.Len(t, analytics, 3)

	w := ts.get(t, "/api/suppliers?limit=-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnomalies_CanonicalSeverity(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/anomalies")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"severity"`)

	anomalies := decode[[]model.Anomaly](t, w)
	require.Len(t, anomalies, 1)
	assert.Equal(t, "high", anomalies[0].AnomalySeverity)
	assert.InDelta(t, 45.2, anomalies[0].Deviation(), 1e-9)
}

func TestDownloadTemplate(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/download-template")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=purchase_orders_template.csv", w.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "po_id,item_description,unit_price"))
	assert.Equal(t, 4, strings.Count(w.Body.String(), "\n"))
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode[model.APIError](t, w).Error)
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.get(t, "/api/health")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w = ts.do(t, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := ts.do(t, req)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestProcess(t *testing.T) {
	tests := []struct {
		err        error
		result     *model.ProcessResult
		name       string
		wantError  string
		wantOutput string
		wantStatus int
	}{
		{
			name:       "success",
			result:     &model.ProcessResult{Message: "Data processed successfully", RunID: "r1", StandardizedItems: 3, AnalyticsRecords: 2, AnomaliesFound: 1},
			wantStatus: http.StatusOK,
		},
		{
			name:       "in progress",
			err:        common.ErrProcessingInProgress,
			wantStatus: http.StatusConflict,
			wantError:  "Processing already in progress",
		},
		{
			name:       "timeout",
			err:        errors.Join(common.ErrProcessingTimeout),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Processing timeout (max 5 minutes)",
		},
		{
			name:       "pipeline failure",
			err:        &pipeline.Failure{Err: errors.New("exit status 1"), Output: "[STEP 1/3]", Stderr: "Traceback"},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Processing failed",
			wantOutput: "[STEP 1/3]",
		},
		{
			name:       "other",
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Processing failed: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0)
			ts.runner.result = tt.result
			ts.runner.err = tt.err

			w := ts.do(t, httptest.NewRequest(http.MethodPost, "/api/process", nil))
			require.Equal(t, tt.wantStatus, w.Code)

			if tt.wantError == "" {
				result := decode[model.ProcessResult](t, w)
				assert.Equal(t, *tt.result, result)
				return
			}
			apiErr := decode[model.APIError](t, w)
			assert.Equal(t, tt.wantError, apiErr.Error)
			assert.Equal(t, tt.wantOutput, apiErr.Output)
		})
	}
}

func TestProcessRuns(t *testing.T) {
	ts := newTestServer(t, 0)
	ctx := context.Background()
	require.NoError(t, ts.db.Storage.CreateProcessRun(ctx, &model.ProcessRun{
		ID: "r1", StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Status: model.RunRunning,
	}))

	runs := decode[[]model.ProcessRun](t, ts.get(t, "/api/process/runs"))
	require.Len(t, runs, 1)
	assert.Equal(t, "r1", runs[0].ID)

	assert.Equal(t, http.StatusBadRequest, ts.get(t, "/api/process/runs?limit=500").Code)
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file here"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (ts *testServer) upload(t *testing.T, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	return ts.do(t, req)
}

const uploadCSV = `po_id,item_description,unit_price,quantity,unit,po_date,region,department,supplier
PO100,Ball Valve 1 inch,800,12,pcs,2024-04-01,West,Production,FlowTech
PO101,Carbon Steel Pipe 100mm,1250,6,pcs,2024-04-02,North,Maintenance,ABC Metals
`

func TestUpload_Success(t *testing.T) {
	ts := newTestServer(t, 0)
	ctx := context.Background()
	require.NoError(t, ts.cache.Set(ctx, "dashboard:stats", []byte("{}")))

	w := ts.upload(t, "file", "po.csv", uploadCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decode[model.UploadResult](t, w)
	assert.Equal(t, "File uploaded successfully", result.Message)
	assert.True(t, strings.HasPrefix(result.Filename, "upload_"))
	assert.True(t, strings.HasSuffix(result.Filename, "_po.csv"))
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, model.UploadColumns, result.Columns)

	assert.Equal(t, 0, ts.cache.Len())
	assert.FileExists(t, filepath.Join(ts.dataDir, "uploads", result.Filename))
	raw, err := os.ReadFile(filepath.Join(ts.dataDir, "raw", config.RawFileName))
	require.NoError(t, err)
	assert.Equal(t, uploadCSV, string(raw))
}

func TestUpload_Errors(t *testing.T) {
	tests := []struct {
		name       string
		field      string
		filename   string
		content    string
		wantError  string
		wantStatus int
		wantCols   bool
	}{
		{name: "no file", wantStatus: http.StatusBadRequest, wantError: "No file provided"},
		{name: "wrong field", field: "upload", filename: "po.csv", content: uploadCSV, wantStatus: http.StatusBadRequest, wantError: "No file provided"},
		{name: "not csv", field: "file", filename: "po.xlsx", content: "x", wantStatus: http.StatusBadRequest, wantError: "Only CSV files are allowed"},
		{name: "missing columns", field: "file", filename: "po.csv", content: "po_id,unit_price\nPO1,1\n", wantStatus: http.StatusBadRequest,
			wantError: "Missing required columns: item_description, quantity, unit, po_date, region, department, supplier", wantCols: true},
		{name: "malformed", field: "file", filename: "po.csv", content: strings.Join(model.UploadColumns, ",") + "\nPO1,x,abc,1,pcs,d,r,dep,s\n",
			wantStatus: http.StatusBadRequest, wantError: `Invalid CSV format: row 2: unit_price "abc" is not a number`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, 0)

			w := ts.upload(t, tt.field, tt.filename, tt.content)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			apiErr := decode[model.APIError](t, w)
			assert.Equal(t, tt.wantError, apiErr.Error)
			if tt.wantCols {
				assert.Equal(t, model.UploadColumns, apiErr.RequiredColumns)
			}

			// The stored dataset is unchanged.
			stats, err := ts.db.Storage.GetDashboardStats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 3, stats.TotalItems)
		})
	}
}

func TestUpload_TooLarge(t *testing.T) {
	ts := newTestServer(t, 1024)

	w := ts.upload(t, "file", "big.csv", strings.Repeat("x", 4096))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, decode[model.APIError](t, w).Error, "File too large")
}

func TestUpload_RejectedWhileProcessing(t *testing.T) {
	ts := newTestServer(t, 0)
	ts.runner.running = true

	w := ts.upload(t, "file", "po.csv", uploadCSV)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, ts.runner.holds)
}

func TestUpload_HoldsRunnerWhileWriting(t *testing.T) {
	ts := newTestServer(t, 0)

	w := ts.upload(t, "file", "po.csv", uploadCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, ts.runner.holds)
	assert.False(t, ts.runner.running, "hold is released after the response")

	w = ts.upload(t, "file", "po.csv", "not,a,template\n")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, ts.runner.running, "hold is released on rejection")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "5 minutes", humanDuration(5*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
