package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// errorJSON writes the {error} body every failure uses.
func errorJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, model.APIError{Error: message})
}

// internalError logs err and writes a 500 with message.
func internalError(c *gin.Context, message string, err error) {
	_ = c.Error(err)
	common.FromContext(c.Request.Context()).Error(message, "path", c.Request.URL.Path, "error", err)
	errorJSON(c, http.StatusInternalServerError, message)
}

// badRequestWithValidation reports binding failures, one detail per invalid field.
func badRequestWithValidation(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		details := make([]model.ErrorDetail, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			details = append(details, model.ErrorDetail{
				Path: fieldErr.Field(),
				Info: validationMessage(fieldErr),
			})
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, model.APIError{
			Error:   "Validation failed",
			Details: details,
		})
		return
	}

	errorJSON(c, http.StatusBadRequest, "Invalid request: "+err.Error())
}

func validationMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fieldErr.Field() + " is required"
	case "min":
		return fieldErr.Field() + " must be at least " + fieldErr.Param()
	case "max":
		return fieldErr.Field() + " must be at most " + fieldErr.Param()
	default:
		return fieldErr.Field() + " is invalid"
	}
}

// cached serves key from the response cache, computing and storing it on a miss.
// Cache failures are logged and the request falls through to load.
func (s *Server) cached(c *gin.Context, key string, load func(ctx context.Context) (any, error)) {
	ctx := c.Request.Context()

	if s.deps.Cache != nil {
		body, ok, err := s.deps.Cache.Get(ctx, key)
		if err != nil {
			slog.Warn("Response cache read failed", "key", key, "error", err)
		}
		if ok {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", body)
			return
		}
	}

	value, err := load(ctx)
	if err != nil {
		internalError(c, "Data not loaded", err)
		return
	}

	body, err := json.Marshal(value)
	if err != nil {
		internalError(c, "Failed to encode response", err)
		return
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Set(ctx, key, body); err != nil {
			slog.Warn("Response cache write failed", "key", key, "error", err)
		}
	}
	c.Header("X-Cache", "MISS")
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (s *Server) invalidateCache(ctx context.Context) {
	if s.deps.Cache == nil {
		return
	}
	if err := s.deps.Cache.Invalidate(ctx); err != nil {
		slog.Warn("Failed to invalidate response cache", "error", err)
	}
}
