package meeting

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/meeting-intelligence-team/meeting-intelligence/errors"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/usecase/pipeline"
)

// allowedContentTypes are the upload formats the transcription provider accepts
var allowedContentTypes = map[string]bool{
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/m4a":   true,
	"audio/x-m4a": true,
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/webm":  true,
	"audio/ogg":   true,
	"video/mp4":   true,
	"video/webm":  true,
}

// RecordingStore persists uploaded audio objects
type RecordingStore interface {
	UploadRecording(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
}

// Service implements meeting upload, listing and re-processing
type Service struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	insightsRepo   repositories.InsightsRepository
	store          RecordingStore
	broker         pipeline.Broker
	guard          *pipeline.IdempotencyGuard
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewService wires the meeting service
func NewService(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	insightsRepo repositories.InsightsRepository,
	store RecordingStore,
	broker pipeline.Broker,
	guard *pipeline.IdempotencyGuard,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Service {
	return &Service{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		insightsRepo:   insightsRepo,
		store:          store,
		broker:         broker,
		guard:          guard,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// UploadInput carries the multipart upload fields
type UploadInput struct {
	Title       string
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Upload stores the recording, creates the meeting and starts the pipeline
func (s *Service) Upload(ctx context.Context, in UploadInput) (*entities.Meeting, error) {
	contentType := strings.ToLower(strings.TrimSpace(strings.Split(in.ContentType, ";")[0]))
	if !allowedContentTypes[contentType] {
		return nil, apperrors.ErrUnsupportedMedia(in.ContentType)
	}
	if s.maxUploadBytes > 0 && in.Size > s.maxUploadBytes {
		return nil, apperrors.ErrUploadTooLarge(s.maxUploadBytes)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = strings.TrimSuffix(in.Filename, path.Ext(in.Filename))
	}
	if title == "" {
		return nil, apperrors.ErrInvalidArgument("title is required")
	}

	meetingID := uuid.New()
	objectKey := fmt.Sprintf("recordings/%s/%s", meetingID, path.Base(in.Filename))

	if err := s.store.UploadRecording(ctx, objectKey, in.Reader, in.Size, contentType); err != nil {
		return nil, apperrors.ErrInternal(fmt.Errorf("failed to store recording: %w", err))
	}

	meeting := entities.NewMeeting(title, objectKey)
	meeting.ID = meetingID
	if metadata, err := json.Marshal(map[string]interface{}{
		"filename":     path.Base(in.Filename),
		"content_type": contentType,
		"size_bytes":   in.Size,
	}); err == nil {
		meeting.Metadata = datatypes.JSON(metadata)
	}
	if err := s.meetingRepo.Create(ctx, meeting); err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	if err := s.broker.Enqueue(ctx, pipeline.NewTaskMessage(pipeline.StageTranscribe, meeting.ID)); err != nil {
		// The meeting exists but no task is queued; reprocessing can
		// re-drive it once the broker recovers.
		if s.logger != nil {
			s.logger.Error("❌ Failed to start pipeline after upload",
				zap.String("meeting_id", meeting.ID.String()),
				zap.Error(err),
			)
		}
		return meeting, apperrors.ErrPipelineRejected("task queue unavailable")
	}

	if s.logger != nil {
		s.logger.Info("📤 Meeting uploaded and queued",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("title", title),
			zap.Int64("size_bytes", in.Size),
		)
	}
	return meeting, nil
}

// List returns a page of meetings, newest first
func (s *Service) List(ctx context.Context, page, pageSize int) ([]*entities.Meeting, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	meetings, total, err := s.meetingRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, apperrors.ErrInternal(err)
	}
	return meetings, total, nil
}

// Detail is a meeting with its processed artifacts, when present
type Detail struct {
	Meeting    *entities.Meeting         `json:"meeting"`
	Transcript *entities.Transcript      `json:"transcript,omitempty"`
	Insights   *entities.MeetingInsights `json:"insights,omitempty"`
}

// Get returns the meeting with transcript and insights attached when they exist
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Detail, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}

	detail := &Detail{Meeting: meeting}
	if transcript, err := s.transcriptRepo.GetByMeetingID(ctx, id); err == nil {
		detail.Transcript = transcript
	}
	if insights, err := s.insightsRepo.GetByMeetingID(ctx, id); err == nil {
		detail.Insights = insights
	}
	return detail, nil
}

// GetStatus returns just the meeting's processing status
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	return meeting, nil
}

// Reprocess re-drives the pipeline for a meeting stuck in error. Completion
// markers are cleared for every stage so the whole chain runs again.
func (s *Service) Reprocess(ctx context.Context, id uuid.UUID) error {
	meeting, err := s.meetingRepo.GetByID(ctx, id)
	if err != nil {
		return apperrors.ErrNotFound("meeting")
	}
	if meeting.Status != entities.MeetingStatusError {
		return apperrors.ErrPipelineRejected(
			fmt.Sprintf("meeting is %s; only errored meetings can be reprocessed", meeting.Status))
	}

	for _, stage := range pipeline.Chain {
		if err := s.guard.Release(ctx, stage, id); err != nil {
			return apperrors.ErrInternal(fmt.Errorf("failed to clear %s marker: %w", stage, err))
		}
	}

	if err := s.broker.Enqueue(ctx, pipeline.NewTaskMessage(pipeline.StageTranscribe, id)); err != nil {
		return apperrors.ErrPipelineRejected("task queue unavailable")
	}

	if s.logger != nil {
		s.logger.Info("🔄 Meeting queued for reprocessing",
			zap.String("meeting_id", id.String()),
		)
	}
	return nil
}
