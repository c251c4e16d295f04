// Package storage provides the SQLite persistence layer for the cost database.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Veraticus/costdb/internal/model"
)

// Validation errors.
var (
	ErrNilContext            = errors.New("context cannot be nil")
	ErrEmptyString           = errors.New("string parameter cannot be empty")
	ErrNilParameter          = errors.New("parameter cannot be nil")
	ErrInvalidPurchaseOrder  = errors.New("invalid purchase order")
	ErrInvalidItem           = errors.New("invalid standardized item")
	ErrInvalidProcessRun     = errors.New("invalid process run")
	ErrInvalidRunStatus      = errors.New("invalid process run status")
	ErrInvalidPaginationArgs = errors.New("invalid pagination arguments")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validFloat(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// validatePurchaseOrders validates every row of an upload.
func validatePurchaseOrders(orders []model.PurchaseOrder) error {
	if orders == nil {
		return fmt.Errorf("%w: orders", ErrNilParameter)
	}
	for i, po := range orders {
		if strings.TrimSpace(po.POID) == "" {
			return fmt.Errorf("%w at index %d: missing po_id", ErrInvalidPurchaseOrder, i)
		}
		if !validFloat(po.UnitPrice) || !validFloat(po.Quantity) {
			return fmt.Errorf("%w at index %d: non-finite number", ErrInvalidPurchaseOrder, i)
		}
	}
	return nil
}

// validateStandardizedItems checks confidence scores are within [0, 1].
func validateStandardizedItems(items []model.StandardizedItem) error {
	for i, item := range items {
		if item.ConfidenceScore == nil {
			continue
		}
		c := *item.ConfidenceScore
		if !validFloat(c) || c < 0 || c > 1 {
			return fmt.Errorf("%w at index %d: confidence must be between 0 and 1", ErrInvalidItem, i)
		}
	}
	return nil
}

// validateProcessRun validates a process run record.
func validateProcessRun(run *model.ProcessRun) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidProcessRun)
	}
	if run.StartedAt.IsZero() {
		return fmt.Errorf("%w: missing start time", ErrInvalidProcessRun)
	}

	switch run.Status {
	case model.RunRunning, model.RunSucceeded, model.RunFailed:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidRunStatus, run.Status)
	}
	return nil
}
