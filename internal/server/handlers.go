package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/service"
	"github.com/Veraticus/costdb/internal/storage"
	"github.com/gin-gonic/gin"
)

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "message": "API is running"})
}

func (s *Server) dashboardStats(c *gin.Context) {
	s.cached(c, "dashboard:stats", func(ctx context.Context) (any, error) {
		return s.deps.Store.GetDashboardStats(ctx)
	})
}

type itemsQuery struct {
	Search  string `form:"search" binding:"max=200"`
	Region  string `form:"region" binding:"max=100"`
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
}

func (s *Server) listItems(c *gin.Context) {
	var q itemsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequestWithValidation(c, err)
		return
	}

	page, err := s.deps.Store.ListItems(c.Request.Context(), service.ItemFilter{
		Search:  q.Search,
		Region:  q.Region,
		Page:    q.Page,
		PerPage: q.PerPage,
	})
	if err != nil {
		internalError(c, "Data not loaded", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) analytics(c *gin.Context) {
	s.cached(c, "analytics", func(ctx context.Context) (any, error) {
		return s.deps.Store.GetAnalytics(ctx)
	})
}

type limitQuery struct {
	Limit *int `form:"limit" binding:"omitempty,min=0,max=10000"`
}

func (q limitQuery) or(def int) int {
	if q.Limit == nil {
		return def
	}
	return *q.Limit
}

func (s *Server) priceTrends(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequestWithValidation(c, err)
		return
	}
	limit := q.or(storage.DefaultTrendLimit)

	s.cached(c, fmt.Sprintf("price-trends:%d", limit), func(ctx context.Context) (any, error) {
		return s.deps.Store.GetPriceTrends(ctx, limit)
	})
}

func (s *Server) suppliers(c *gin.Context) {
	var q limitQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequestWithValidation(c, err)
		return
	}
	limit := q.or(storage.DefaultSupplierLimit)

	s.cached(c, fmt.Sprintf("suppliers:%d", limit), func(ctx context.Context) (any, error) {
		return s.deps.Store.GetSupplierStats(ctx, limit)
	})
}

func (s *Server) categories(c *gin.Context) {
	s.cached(c, "categories", func(ctx context.Context) (any, error) {
		return s.deps.Store.GetCategoryCounts(ctx)
	})
}

func (s *Server) anomalies(c *gin.Context) {
	s.cached(c, "anomalies", func(ctx context.Context) (any, error) {
		return s.deps.Store.GetAnomalies(ctx)
	})
}

type runsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (s *Server) processRuns(c *gin.Context) {
	var q runsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequestWithValidation(c, err)
		return
	}

	runs, err := s.deps.Store.ListProcessRuns(c.Request.Context(), q.Limit)
	if err != nil {
		internalError(c, "Failed to list process runs", err)
		return
	}
	c.JSON(http.StatusOK, runs)
}

func (s *Server) downloadTemplate(c *gin.Context) {
	c.Header("Content-Disposition", "attachment; filename="+ingest.TemplateFileName)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Status(http.StatusOK)
	if err := ingest.WriteTemplate(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
