package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

// ErrMeetingNotFound is returned when a meeting doesn't exist
var ErrMeetingNotFound = errors.New("meeting not found")

type meetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new GORM-based meeting repository
func NewMeetingRepository(db *gorm.DB) repositories.MeetingRepository {
	return &meetingRepository{db: db}
}

func (r *meetingRepository) Create(ctx context.Context, meeting *entities.Meeting) error {
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

func (r *meetingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).First(&meeting, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMeetingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get meeting: %w", err)
	}
	return &meeting, nil
}

func (r *meetingRepository) List(ctx context.Context, limit, offset int) ([]*entities.Meeting, int64, error) {
	var meetings []*entities.Meeting
	var total int64

	if err := r.db.WithContext(ctx).Model(&entities.Meeting{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count meetings: %w", err)
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list meetings: %w", err)
	}
	return meetings, total, nil
}

// UpdateStatus uses a conditional update so concurrent workers cannot move a
// meeting backwards. The WHERE clause restricts the write to statuses the
// target transition allows; zero rows affected means the guard lost.
func (r *meetingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entities.MeetingStatus) (bool, error) {
	allowed := status.AllowedFrom()
	if len(allowed) == 0 {
		return false, fmt.Errorf("status %s has no allowed transitions", status)
	}

	result := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ? AND status IN ?", id, allowed).
		Update("status", status)
	if result.Error != nil {
		return false, fmt.Errorf("failed to update meeting status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *meetingRepository) SetDuration(ctx context.Context, id uuid.UUID, seconds int) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Meeting{}).
		Where("id = ?", id).
		Update("duration_seconds", seconds).Error
	if err != nil {
		return fmt.Errorf("failed to set meeting duration: %w", err)
	}
	return nil
}
