package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/costdb/internal/tui/tuitest"
)

func TestFormatters(t *testing.T) {
	tests := []struct {
		format func(string) string
		name   string
		icon   string
	}{
		{FormatSuccess, "success", SuccessIcon},
		{FormatError, "error", ErrorIcon},
		{FormatWarning, "warning", WarningIcon},
		{FormatInfo, "info", InfoIcon},
		{FormatTitle, "title", ChartIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tuitest.StripANSI(tt.format("done"))
			assert.Equal(t, tt.icon+" done", strings.TrimSpace(out))
		})
	}
}

func TestRenderFieldsAligns(t *testing.T) {
	out := tuitest.StripANSI(RenderFields(
		Field{Label: "Rows", Value: 3},
		Field{Label: "Filename", Value: "orders.csv"},
	))

	lines := strings.Split(out, "\n")
	assert.Equal(t, []string{
		"Rows:     3",
		"Filename: orders.csv",
	}, lines)
}

func TestRenderBox(t *testing.T) {
	out := tuitest.StripANSI(RenderBox("Upload", "body"))
	assert.True(t, tuitest.ContainsInOrder(out, "╭", "Upload", "body", "╯"))
}
