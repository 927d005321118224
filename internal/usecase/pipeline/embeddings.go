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

// EmbeddingsStage chunks the transcript, embeds each chunk and moves the
// meeting to ready. It is the last link of the chain.
type EmbeddingsStage struct {
	meetingRepo    repositories.MeetingRepository
	transcriptRepo repositories.TranscriptRepository
	chunkRepo      repositories.ChunkRepository
	embedder       Embedder
	chunker        *Chunker
	logger         *zap.Logger
}

// NewEmbeddingsStage wires the embedding stage
func NewEmbeddingsStage(
	meetingRepo repositories.MeetingRepository,
	transcriptRepo repositories.TranscriptRepository,
	chunkRepo repositories.ChunkRepository,
	embedder Embedder,
	chunker *Chunker,
	logger *zap.Logger,
) *EmbeddingsStage {
	return &EmbeddingsStage{
		meetingRepo:    meetingRepo,
		transcriptRepo: transcriptRepo,
		chunkRepo:      chunkRepo,
		embedder:       embedder,
		chunker:        chunker,
		logger:         logger,
	}
}

func (s *EmbeddingsStage) Name() StageName {
	return StageEmbeddings
}

func (s *EmbeddingsStage) Execute(ctx context.Context, meetingID uuid.UUID) Outcome {
	transcript, err := s.transcriptRepo.GetByMeetingID(ctx, meetingID)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Transient(err)
		}
		return Permanent(fmt.Errorf("transcript unavailable for embeddings: %w", err))
	}

	chunks := s.chunker.Split(transcript.Content, transcript.Segments)
	if len(chunks) == 0 {
		// An empty transcript is legal; the meeting just has nothing to
		// search. The chain still completes.
		if s.logger != nil {
			s.logger.Info("📭 Empty transcript, skipping embeddings",
				zap.String("meeting_id", meetingID.String()),
			)
		}
		return s.finish(ctx, meetingID)
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return Classify(err)
	}

	records := make([]*entities.TranscriptChunk, len(chunks))
	for i, chunk := range chunks {
		records[i] = &entities.TranscriptChunk{
			ID:         uuid.New(),
			MeetingID:  meetingID,
			ChunkIndex: chunk.Index,
			Content:    chunk.Content,
			StartTime:  chunk.StartTime,
			EndTime:    chunk.EndTime,
			Embedding:  vectors[i],
		}
	}

	if err := s.chunkRepo.ReplaceForMeeting(ctx, meetingID, records); err != nil {
		return Transient(err)
	}

	if s.logger != nil {
		s.logger.Info("✅ Embeddings stored",
			zap.String("meeting_id", meetingID.String()),
			zap.Int("chunks", len(records)),
		)
	}
	return s.finish(ctx, meetingID)
}

func (s *EmbeddingsStage) finish(ctx context.Context, meetingID uuid.UUID) Outcome {
	moved, err := s.meetingRepo.UpdateStatus(ctx, meetingID, entities.MeetingStatusReady)
	if err != nil {
		return Transient(err)
	}
	if !moved && s.logger != nil {
		s.logger.Info("⏭️ Meeting already ready",
			zap.String("meeting_id", meetingID.String()),
		)
	}
	return Success()
}
