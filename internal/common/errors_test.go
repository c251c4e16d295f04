package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewUserError("Could not reach the API", inner)

	assert.Equal(t, "Could not reach the API: connection refused", err.Error())
	assert.ErrorIs(t, err, inner)

	wrapped := fmt.Errorf("dashboard: %w", err)
	assert.Equal(t, "Could not reach the API", UserMessage(wrapped, "fallback"))
	assert.Equal(t, "fallback", UserMessage(inner, "fallback"))
}

func TestUserError_NoInner(t *testing.T) {
	err := NewUserError("Only CSV files are allowed", nil)
	assert.Equal(t, "Only CSV files are allowed", err.Error())
}
