package ai

import (
	"errors"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

// ErrAudioNotFound is returned when a provider reports the source audio is
// missing or unreadable. Not worth retrying.
var ErrAudioNotFound = errors.New("audio file not found or unreadable")

// Transcription is the result of converting audio to text
type Transcription struct {
	Text            string
	Language        string
	DurationSeconds float64
	Segments        []entities.Segment
	Model           string
}

// Insights is the structured result of analysing a transcript
type Insights struct {
	Summary     string
	ActionItems []entities.ActionItem
	Topics      []string
	Model       string
	// Degraded is set when the provider was unavailable and placeholder
	// content was returned instead of failing the stage.
	Degraded bool
}
