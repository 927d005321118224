package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

// ErrTranscriptNotFound is returned when a meeting has no transcript yet
var ErrTranscriptNotFound = errors.New("transcript not found")

type transcriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new GORM-based transcript repository
func NewTranscriptRepository(db *gorm.DB) repositories.TranscriptRepository {
	return &transcriptRepository{db: db}
}

// Upsert writes the transcript keyed on meeting_id. A retried transcription
// stage overwrites the previous row instead of inserting a second one.
func (r *transcriptRepository) Upsert(ctx context.Context, transcript *entities.Transcript) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meeting_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"content", "language", "segments", "model_used", "updated_at",
		}),
	}).Create(transcript).Error
	if err != nil {
		return fmt.Errorf("failed to upsert transcript: %w", err)
	}
	return nil
}

func (r *transcriptRepository) GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	err := r.db.WithContext(ctx).First(&transcript, "meeting_id = ?", meetingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return &transcript, nil
}
