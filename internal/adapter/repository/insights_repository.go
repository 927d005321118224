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

// ErrInsightsNotFound is returned when a meeting has no insights yet
var ErrInsightsNotFound = errors.New("insights not found")

type insightsRepository struct {
	db *gorm.DB
}

// NewInsightsRepository creates a new GORM-based insights repository
func NewInsightsRepository(db *gorm.DB) repositories.InsightsRepository {
	return &insightsRepository{db: db}
}

func (r *insightsRepository) Upsert(ctx context.Context, insights *entities.MeetingInsights) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meeting_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"summary", "action_items", "key_topics", "model_used", "updated_at",
		}),
	}).Create(insights).Error
	if err != nil {
		return fmt.Errorf("failed to upsert insights: %w", err)
	}
	return nil
}

func (r *insightsRepository) GetByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.MeetingInsights, error) {
	var insights entities.MeetingInsights
	err := r.db.WithContext(ctx).First(&insights, "meeting_id = ?", meetingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInsightsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get insights: %w", err)
	}
	return &insights, nil
}
