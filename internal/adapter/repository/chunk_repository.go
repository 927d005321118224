package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository creates a new GORM-based transcript chunk repository
func NewChunkRepository(db *gorm.DB) repositories.ChunkRepository {
	return &chunkRepository{db: db}
}

// ReplaceForMeeting swaps the meeting's chunk set inside one transaction so a
// re-run of the embedding stage leaves exactly one copy of each chunk.
func (r *chunkRepository) ReplaceForMeeting(ctx context.Context, meetingID uuid.UUID, chunks []*entities.TranscriptChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", meetingID).Delete(&entities.TranscriptChunk{}).Error; err != nil {
			return fmt.Errorf("failed to delete existing chunks: %w", err)
		}
		if len(chunks) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(chunks, 100).Error; err != nil {
			return fmt.Errorf("failed to insert chunks: %w", err)
		}
		return nil
	})
}

func (r *chunkRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]*entities.TranscriptChunk, error) {
	var chunks []*entities.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return chunks, nil
}

func (r *chunkRepository) ListEmbedded(ctx context.Context) ([]*entities.TranscriptChunk, error) {
	var chunks []*entities.TranscriptChunk
	err := r.db.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Order("meeting_id, chunk_index ASC").
		Find(&chunks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded chunks: %w", err)
	}
	return chunks, nil
}
