package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data operations
type MeetingRepository interface {
	Create(ctx context.Context, meeting *entities.Meeting) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)
	List(ctx context.Context, limit, offset int) ([]*entities.Meeting, int64, error)
	// UpdateStatus performs a compare-and-set transition: the row is only
	// written when its current status is one the target may be entered from.
	// Returns false when the guard did not match and no row was changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) (bool, error)
	SetDuration(ctx context.Context, id uuid.UUID, seconds int) error
}

// TranscriptRepository defines the interface for transcript persistence
type TranscriptRepository interface {
	// Upsert creates or replaces the transcript for a meeting. Re-running the
	// transcription stage must overwrite, never duplicate.
	Upsert(ctx context.Context, transcript *entities.Transcript) error
	GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)
}

// InsightsRepository defines the interface for meeting insights persistence
type InsightsRepository interface {
	Upsert(ctx context.Context, insights *entities.MeetingInsights) error
	GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingInsights, error)
}

// ChunkRepository defines the interface for transcript chunk persistence
type ChunkRepository interface {
	// ReplaceForMeeting atomically deletes any existing chunks for the meeting
	// and inserts the new set so retries never accumulate duplicates.
	ReplaceForMeeting(ctx context.Context, meetingID uuid.UUID, chunks []*entities.TranscriptChunk) error
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.TranscriptChunk, error)
	// ListEmbedded returns every chunk that carries an embedding vector,
	// across all meetings. Used by search.
	ListEmbedded(ctx context.Context) ([]*entities.TranscriptChunk, error)
}
