// Package viewmodel holds the presentation logic of the dashboard views,
// independent of bubbletea and terminal rendering.
package viewmodel

// Tone is the semantic color of a rendered value. Themes map tones to colors.
type Tone int

// Tones.
const (
	ToneNeutral Tone = iota
	ToneSuccess
	ToneWarning
	ToneError
	ToneInfo
)

func (t Tone) String() string {
	switch t {
	case ToneSuccess:
		return "success"
	case ToneWarning:
		return "warning"
	case ToneError:
		return "error"
	case ToneInfo:
		return "info"
	default:
		return "neutral"
	}
}
