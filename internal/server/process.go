package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/Veraticus/costdb/internal/pipeline"
	"github.com/gin-gonic/gin"
)

func (s *Server) process(c *gin.Context) {
	if s.deps.Runner == nil {
		errorJSON(c, http.StatusServiceUnavailable, "Processing is not configured")
		return
	}

	// A run outlives a disconnected client; the runner enforces its own timeout.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := s.deps.Runner.Run(ctx)
	if err == nil {
		c.JSON(http.StatusOK, result)
		return
	}

	var failure *pipeline.Failure
	switch {
	case errors.Is(err, common.ErrProcessingInProgress):
		errorJSON(c, http.StatusConflict, "Processing already in progress")
	case errors.Is(err, common.ErrProcessingTimeout):
		_ = c.Error(err)
		errorJSON(c, http.StatusInternalServerError,
			fmt.Sprintf("Processing timeout (max %s)", humanDuration(s.pipelineTimeout)))
	case errors.As(err, &failure):
		_ = c.Error(err)
		details := failure.Stderr
		if details == "" {
			details = failure.Err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.APIError{
			Error:        "Processing failed",
			Output:       failure.Output,
			ErrorDetails: details,
		})
	default:
		internalError(c, "Processing failed: "+err.Error(), err)
	}
}

// humanDuration renders whole minutes the way users read them ("5 minutes").
func humanDuration(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	return d.String()
}
