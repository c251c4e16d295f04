// Package server exposes the cost database over a JSON REST API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/costdb/internal/config"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/service"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Deps are the services the API is built on. Cache may be nil.
type Deps struct {
	Store  service.Storage
	Cache  service.Cache
	Runner service.PipelineRunner
	Files  *ingest.FileStore
}

// Server serves the cost database API.
type Server struct {
	deps            Deps
	cfg             config.ServerSettings
	pipelineTimeout time.Duration
}

// New creates a server.
func New(cfg config.ServerSettings, pipelineTimeout time.Duration, deps Deps) *Server {
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	if pipelineTimeout <= 0 {
		pipelineTimeout = config.DefaultPipelineTimeout
	}
	return &Server{deps: deps, cfg: cfg, pipelineTimeout: pipelineTimeout}
}

// DefaultMaxUpload is the largest accepted upload body.
const DefaultMaxUpload = 16 << 20

// Router builds the gin engine with every API route.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(RequestLogger(), gin.Recovery(), CORS(s.cfg.CORSOrigins))

	api := router.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/dashboard/stats", s.dashboardStats)
		api.GET("/items", s.listItems)
		api.GET("/analytics", s.analytics)
		api.GET("/price-trends", s.priceTrends)
		api.GET("/suppliers", s.suppliers)
		api.GET("/categories", s.categories)
		api.GET("/anomalies", s.anomalies)
		api.POST("/upload", s.upload)
		api.POST("/process", s.process)
		api.GET("/process/runs", s.processRuns)
		api.GET("/download-template", s.downloadTemplate)
	}

	router.NoRoute(func(c *gin.Context) {
		errorJSON(c, http.StatusNotFound, "Not found")
	})

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("API server listening", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("Shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
