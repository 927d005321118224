package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
	"github.com/meeting-intelligence-team/meeting-intelligence/pkg/ai"
)

// TranscribeStage converts a meeting's audio into a stored transcript and
// moves the meeting from pending to transcribed.
type TranscribeStage struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	transcriber    Transcriber
	audioResolver  AudioResolver
	logger         *zap.Logger
}

// NewTranscribeStage wires the transcription stage
func NewTranscribeStage(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	transcriber Transcriber,
	audioResolver AudioResolver,
	logger *zap.Logger,
) *TranscribeStage {
	return &TranscribeStage{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		transcriber:    transcriber,
		audioResolver:  audioResolver,
		logger:         logger,
	}
}

func (s *TranscribeStage) Name() StageName {
	return StageTranscribe
}

func (s *TranscribeStage) Execute(ctx context.Context, meetingID uuid.UUID) Outcome {
	meeting, err := s.meetingRepo.GetByID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Transient(err)
		}
		// A meeting that doesn't exist will never exist; don't burn retries.
		return Permanent(fmt.Errorf("cannot transcribe: %w", err))
	}

	// Move to processing before validating input, so a permanent input
	// failure can still freeze the meeting in error. A lost transition means
	// another attempt already claimed it; the idempotency guard upstream
	// keeps executions from overlapping, so we just continue.
	moved, err := s.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusProcessing)
	if err != nil {
		return Transient(err)
	}
	if !moved && s.logger != nil {
		s.logger.Info("⏭️ Meeting already past pending",
			zap.String("meeting_id", meetingID.String()),
			zap.String("status", string(meeting.Status)),
		)
	}

	if meeting.AudioURL == nil || *meeting.AudioURL == "" {
		return Permanent(AsPermanent(fmt.Errorf("meeting %s has no audio", meetingID)))
	}

	audioURL := *meeting.AudioURL
	if s.audioResolver != nil {
		resolved, err := s.audioResolver.ResolveAudioURL(ctx, audioURL)
		if err != nil {
			return Transient(fmt.Errorf("failed to resolve audio url: %w", err))
		}
		audioURL = resolved
	}

	if s.logger != nil {
		s.logger.Info("🎙️ Transcribing meeting audio",
			zap.String("meeting_id", meetingID.String()),
		)
	}

	transcription, err := s.transcriber.Transcribe(ctx, audioURL)
	if err != nil {
		if errors.Is(err, ai.ErrAudioNotFound) {
			return Permanent(AsPermanent(err))
		}
		return Classify(err)
	}

	transcript := entities.NewTranscript(meetingID)
	transcript.Content = transcription.Text
	transcript.Language = transcription.Language
	transcript.Segments = transcription.Segments
	transcript.ModelUsed = transcription.Model

	if err := s.transcriptRepo.Upsert(ctx, transcript); err != nil {
		return Transient(err)
	}

	if transcription.DurationSeconds > 0 {
		if err := s.meetingRepo.SetDuration(ctx, meetingID, int(transcription.DurationSeconds)); err != nil && s.logger != nil {
			s.logger.Warn("⚠️ Failed to store meeting duration",
				zap.String("meeting_id", meetingID.String()),
				zap.Error(err),
			)
		}
	}

	if _, err := s.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusTranscribed); err != nil {
		return Transient(err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Transcript stored",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("segments", len(transcription.Segments)),
			zap.String("language", transcription.Language),
		)
	}
	return Success()
}
