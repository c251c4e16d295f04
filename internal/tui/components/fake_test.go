package components

import (
	"context"
	"io"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Veraticus/costdb/internal/api"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/tui/themes"
	"github.com/Veraticus/costdb/internal/tui/tuitest"
)

type fakeClient struct {
	stats       func(n int) (*model.DashboardStats, error)
	items       func(q api.ItemsQuery) (*model.ItemPage, error)
	trends      func(ctx context.Context) ([]model.PriceTrend, error)
	suppliers   func(ctx context.Context) ([]model.SupplierStat, error)
	anomalies   func() ([]model.Anomaly, error)
	upload      func(filename string, data []byte) (*model.UploadResult, error)
	process     func() (*model.ProcessResult, error)
	template    func() ([]byte, error)
	export      func(w io.Writer) (int, error)
	itemQueries []api.ItemsQuery
	statsCalls  int
	mu          sync.Mutex
}

func (f *fakeClient) DashboardStats(context.Context) (*model.DashboardStats, error) {
	f.mu.Lock()
	f.statsCalls++
	n := f.statsCalls
	f.mu.Unlock()
	return f.stats(n)
}

func (f *fakeClient) Items(_ context.Context, q api.ItemsQuery) (*model.ItemPage, error) {
	f.mu.Lock()
	f.itemQueries = append(f.itemQueries, q)
	f.mu.Unlock()
	return f.items(q)
}

func (f *fakeClient) lastQuery() api.ItemsQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.itemQueries[len(f.itemQueries)-1]
}

func (f *fakeClient) PriceTrends(ctx context.Context) ([]model.PriceTrend, error) {
	return f.trends(ctx)
}

func (f *fakeClient) Suppliers(ctx context.Context) ([]model.SupplierStat, error) {
	return f.suppliers(ctx)
}

func (f *fakeClient) Anomalies(context.Context) ([]model.Anomaly, error) {
	return f.anomalies()
}

func (f *fakeClient) Upload(_ context.Context, filename string, r io.Reader) (*model.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return f.upload(filename, data)
}

func (f *fakeClient) Process(context.Context) (*model.ProcessResult, error) {
	return f.process()
}

func (f *fakeClient) DownloadTemplate(context.Context) ([]byte, error) {
	return f.template()
}

func (f *fakeClient) ExportItems(_ context.Context, w io.Writer, _ int) (int, error) {
	return f.export(w)
}

func mount(t *testing.T, tab Tab, client *fakeClient, dir string) (Component, []tea.Msg) {
	t.Helper()
	c := New(tab, Deps{Client: client, DownloadDir: dir}, themes.Default)
	return c, tuitest.Drain(c.Init())
}

// deliver feeds every message of type T to c and drains the resulting commands.
func deliver[T any](c Component, msgs []tea.Msg) (Component, []tea.Msg) {
	var out []tea.Msg
	for _, m := range msgs {
		if _, ok := m.(T); !ok {
			continue
		}
		var cmd tea.Cmd
		c, cmd = c.Update(m)
		out = append(out, tuitest.Drain(cmd)...)
	}
	return c, out
}

func view(c Component) string {
	return tuitest.StripANSI(c.View())
}
