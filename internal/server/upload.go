package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Veraticus/costdb/internal/common"
	"github.com/Veraticus/costdb/internal/ingest"
	"github.com/Veraticus/costdb/internal/model"
	"github.com/gin-gonic/gin"
)

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

func (s *Server) upload(c *gin.Context) {
	if s.deps.Runner != nil {
		release, ok := s.deps.Runner.TryHold()
		if !ok {
			errorJSON(c, http.StatusConflict, "Processing already in progress")
			return
		}
		defer release()
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUpload)

	fh, err := c.FormFile("file")
	if err != nil {
		if isTooLarge(err) {
			errorJSON(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("File too large (max %d MB)", s.cfg.MaxUpload>>20))
			return
		}
		errorJSON(c, http.StatusBadRequest, "No file provided")
		return
	}

	if strings.TrimSpace(fh.Filename) == "" {
		errorJSON(c, http.StatusBadRequest, "No file selected")
		return
	}
	if !ingest.IsCSV(fh.Filename) {
		errorJSON(c, http.StatusBadRequest, "Only CSV files are allowed")
		return
	}

	f, err := fh.Open()
	if err != nil {
		internalError(c, "Upload failed: "+err.Error(), err)
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		internalError(c, "Upload failed: "+err.Error(), err)
		return
	}

	parsed, err := ingest.ParseUpload(data)
	if err != nil {
		var missing *ingest.MissingColumnsError
		if errors.As(err, &missing) {
			c.AbortWithStatusJSON(http.StatusBadRequest, model.APIError{
				Error:           missing.Error(),
				RequiredColumns: model.UploadColumns,
			})
			return
		}
		errorJSON(c, http.StatusBadRequest, common.UserMessage(err, "Invalid CSV format: "+err.Error()))
		return
	}

	stored, err := s.deps.Files.Store(fh.Filename, data)
	if err != nil {
		internalError(c, "Upload failed: "+err.Error(), err)
		return
	}

	ctx := c.Request.Context()
	if err := s.deps.Store.ReplacePurchaseOrders(ctx, parsed.Orders); err != nil {
		internalError(c, "Upload failed: "+err.Error(), err)
		return
	}
	s.invalidateCache(ctx)

	common.FromContext(ctx).Info("Accepted upload",
		"filename", stored.SavedName,
		"rows", parsed.Rows(),
		"columns", len(parsed.Columns))

	c.JSON(http.StatusOK, model.UploadResult{
		Message:  "File uploaded successfully",
		Filename: stored.SavedName,
		Rows:     parsed.Rows(),
		Columns:  parsed.Columns,
	})
}
