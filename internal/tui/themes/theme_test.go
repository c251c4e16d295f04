package themes

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/costdb/internal/tui/viewmodel"
)

func TestGetTheme(t *testing.T) {
	assert.Equal(t, CatppuccinMocha.Primary, GetTheme("catppuccin-mocha").Primary)
	assert.Equal(t, Default.Primary, GetTheme("default").Primary)
	assert.Equal(t, Default.Primary, GetTheme("nope").Primary)
}

func TestToneColor(t *testing.T) {
	tests := []struct {
		want lipgloss.Color
		tone viewmodel.Tone
	}{
		{tone: viewmodel.ToneSuccess, want: Default.Success},
		{tone: viewmodel.ToneWarning, want: Default.Warning},
		{tone: viewmodel.ToneError, want: Default.Error},
		{tone: viewmodel.ToneInfo, want: Default.Info},
		{tone: viewmodel.ToneNeutral, want: Default.Foreground},
	}

	for _, tt := range tests {
		t.Run(tt.tone.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Default.ToneColor(tt.tone))
		})
	}
}
