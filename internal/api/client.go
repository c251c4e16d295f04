// Package api is the HTTP client for the cost database REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/costdb/internal/model"
)

// Error is a non-2xx API response.
type Error struct {
	Details *model.APIError
	Message string
	Status  int
}

func (e *Error) Error() string {
	return e.Message
}

// Client calls the cost database API.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds every request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a client for baseURL, e.g. http://localhost:5000.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ItemsQuery selects one page of the item listing.
type ItemsQuery struct {
	Search  string
	Region  string
	Page    int
	PerPage int
}

func (q ItemsQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Region != "" {
		v.Set("region", q.Region)
	}
	return v
}

// Health checks that the API is up.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	return c.getJSON(ctx, "health check", "/api/health", nil, &out)
}

// DashboardStats fetches the aggregate snapshot.
func (c *Client) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	var out model.DashboardStats
	if err := c.getJSON(ctx, "fetch stats", "/api/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Items fetches one page of items.
func (c *Client) Items(ctx context.Context, q ItemsQuery) (*model.ItemPage, error) {
	var out model.ItemPage
	if err := c.getJSON(ctx, "fetch items", "/api/items", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PriceTrends fetches per-item price trends.
func (c *Client) PriceTrends(ctx context.Context) ([]model.PriceTrend, error) {
	var out []model.PriceTrend
	if err := c.getJSON(ctx, "fetch price trends", "/api/price-trends", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Suppliers fetches supplier statistics.
func (c *Client) Suppliers(ctx context.Context) ([]model.SupplierStat, error) {
	var out []model.SupplierStat
	if err := c.getJSON(ctx, "fetch suppliers", "/api/suppliers", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Anomalies fetches every detected anomaly.
func (c *Client) Anomalies(ctx context.Context) ([]model.Anomaly, error) {
	var out []model.Anomaly
	if err := c.getJSON(ctx, "fetch anomalies", "/api/anomalies", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload sends a CSV file as multipart field "file".
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("upload failed: reading %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	var out model.UploadResult
	if err := c.do(ctx, "upload", http.MethodPost, "/api/upload", nil, &body, mw.FormDataContentType(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Process triggers the processing pipeline and waits for it to finish.
func (c *Client) Process(ctx context.Context) (*model.ProcessResult, error) {
	var out model.ProcessResult
	if err := c.do(ctx, "processing", http.MethodPost, "/api/process", nil, nil, "", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadTemplate returns the CSV template unmodified.
func (c *Client) DownloadTemplate(ctx context.Context) ([]byte, error) {
	resp, cancel, err := c.send(ctx, "template download", http.MethodGet, "/api/download-template", nil, nil, "")
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("template download failed: %w", err)
	}
	return data, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, "", out)
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	resp, cancel, err := c.send(ctx, op, method, path, query, body, contentType)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s failed: decoding response: %w", op, err)
	}
	return nil
}

// send performs the request and returns a 2xx response; the caller must call cancel.
func (c *Client) send(ctx context.Context, op, method, path string, query url.Values, body io.Reader, contentType string) (*http.Response, context.CancelFunc, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%s failed: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("%s failed: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer func() { _ = resp.Body.Close() }()
		return nil, nil, decodeError(op, resp)
	}
	return resp, cancel, nil
}

func decodeError(op string, resp *http.Response) error {
	apiErr := &Error{
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("%s failed: HTTP %d", op, resp.StatusCode),
	}

	var body model.APIError
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err == nil && json.Unmarshal(data, &body) == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = &body
	}
	return apiErr
}

// Message returns the text to show a user for err, preferring the server's message.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
