package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

// InsightsStage derives a summary, action items and topics from the stored
// transcript. It does not touch the meeting status; the chain completes only
// after embeddings.
type InsightsStage struct {
	transcriptRepo repositories.TranscriptRepository
	insightsRepo   repositories.InsightsRepository
	extractor      InsightExtractor
	logger         *zap.Logger
}

// NewInsightsStage wires the insights stage
func NewInsightsStage(
	transcriptRepo repositories.TranscriptRepository,
	insightsRepo repositories.InsightsRepository,
	extractor InsightExtractor,
	logger *zap.Logger,
) *InsightsStage {
	return &InsightsStage{
		transcriptRepo: transcriptRepo,
		insightsRepo:   insightsRepo,
		extractor:      extractor,
		logger:         logger,
	}
}

func (s *InsightsStage) Name() StageName {
	return StageInsights
}

func (s *InsightsStage) Execute(ctx context.Context, meetingID uuid.UUID) Outcome {
	transcript, err := s.transcriptRepo.GetByMeetingID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Transient(err)
		}
		// The chain guarantees transcription committed before this stage
		// was enqueued. A missing transcript is bad input, not a race.
		return Permanent(fmt.Errorf("transcript unavailable for insights: %w", err))
	}

	insights, err := s.extractor.Extract(ctx, transcript.Content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Transient(err)
		}
		return Classify(err)
	}

	record := entities.NewMeetingInsights(meetingID)
	record.Summary = insights.Summary
	record.ActionItems = insights.ActionItems
	record.KeyTopics = insights.Topics
	record.ModelUsed = insights.Model

	if err := s.insightsRepo.Upsert(ctx, record); err != nil {
		return Transient(err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Insights stored",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("action_items", len(insights.ActionItems)),
			zap.Bool("degraded", insights.Degraded),
		)
	}
	return Success()
}
