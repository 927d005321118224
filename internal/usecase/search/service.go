package search

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/meeting-intelligence-team/meeting-intelligence/errors"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/repositories"
)

const (
	// keywordBoost is added when the chunk literally contains a query term
	keywordBoost = 0.3
	// minSimilarity filters out chunks with no meaningful relation to the query
	minSimilarity = 0.15
	defaultLimit  = 10
)

// Embedder produces the query vector
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Result is one search hit: the best-matching chunk of a meeting
type Result struct {
	MeetingID    uuid.UUID `json:"meeting_id"`
	MeetingTitle string    `json:"meeting_title"`
	Content      string    `json:"content"`
	StartTime    *float64  `json:"start_time,omitempty"`
	EndTime      *float64  `json:"end_time,omitempty"`
	Score        float64   `json:"score"`
}

// Service implements hybrid semantic plus keyword search over transcript chunks
type Service struct {
	chunkRepo   repositories.ChunkRepository
	meetingRepo repositories.MeetingRepository
	embedder    Embedder
	logger      *zap.Logger
}

// NewService wires the search service
func NewService(
	chunkRepo repositories.ChunkRepository,
	meetingRepo repositories.MeetingRepository,
	embedder Embedder,
	logger *zap.Logger,
) *Service {
	return &Service{
		chunkRepo:   chunkRepo,
		meetingRepo: meetingRepo,
		embedder:    embedder,
		logger:      logger,
	}
}

// Search ranks chunks by cosine similarity to the query, boosts literal
// keyword matches and returns the best chunk per meeting.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidArgument("query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, apperrors.ErrSearchUnavailable(err)
	}
	queryVec := vectors[0]

	chunks, err := s.chunkRepo.ListEmbedded(ctx)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	terms := queryTerms(query)

	// Best chunk per meeting only; several hits in the same meeting should
	// not crowd out other meetings.
	best := make(map[uuid.UUID]*entities.TranscriptChunk)
	scores := make(map[uuid.UUID]float64)
	for _, chunk := range chunks {
		score := cosineSimilarity(queryVec, chunk.Embedding)
		if containsAnyTerm(chunk.Content, terms) {
			score += keywordBoost
		}
		if score < minSimilarity {
			continue
		}
		if prev, ok := scores[chunk.MeetingID]; !ok || score > prev {
			scores[chunk.MeetingID] = score
			best[chunk.MeetingID] = chunk
		}
	}

	results := make([]Result, 0, len(best))
	for meetingID, chunk := range best {
		result := Result{
			MeetingID: meetingID,
			Content:   chunk.Content,
			StartTime: chunk.StartTime,
			EndTime:   chunk.EndTime,
			Score:     scores[meetingID],
		}
		if meeting, err := s.meetingRepo.GetByID(ctx, meetingID); err == nil {
			result.MeetingTitle = meeting.Title
		}
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if s.logger != nil {
		s.logger.Info("🔍 Search completed",
			zap.String("query", query),
			zap.Int("candidates", len(chunks)),
			zap.Int("results", len(results)),
		)
	}
	return results, nil
}

// ChunkResult is one hit inside a single meeting's transcript
type ChunkResult struct {
	ChunkIndex int      `json:"chunk_index"`
	Content    string   `json:"content"`
	StartTime  *float64 `json:"start_time,omitempty"`
	EndTime    *float64 `json:"end_time,omitempty"`
	Score      float64  `json:"score"`
}

// SearchMeeting ranks every chunk of one meeting against the query. Unlike
// Search it returns multiple hits per meeting, ordered by score.
func (s *Service) SearchMeeting(ctx context.Context, meetingID uuid.UUID, query string, limit int) ([]ChunkResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.ErrInvalidArgument("query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = defaultLimit
	}

	if _, err := s.meetingRepo.GetByID(ctx, meetingID); err != nil {
		return nil, apperrors.ErrNotFound("meeting")
	}

	vectors, err := s.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, apperrors.ErrSearchUnavailable(err)
	}
	queryVec := vectors[0]

	chunks, err := s.chunkRepo.ListByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrInternal(err)
	}

	terms := queryTerms(query)
	results := make([]ChunkResult, 0, len(chunks))
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			continue
		}
		score := cosineSimilarity(queryVec, chunk.Embedding)
		if containsAnyTerm(chunk.Content, terms) {
			score += keywordBoost
		}
		if score < minSimilarity {
			continue
		}
		results = append(results, ChunkResult{
			ChunkIndex: chunk.ChunkIndex,
			Content:    chunk.Content,
			StartTime:  chunk.StartTime,
			EndTime:    chunk.EndTime,
			Score:      score,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:'\"")
		if len(f) >= 3 {
			terms = append(terms, f)
		}
	}
	return terms
}

func containsAnyTerm(content string, terms []string) bool {
	if len(terms) == 0 {
		return false
	}
	lower := strings.ToLower(content)
	for _, term := range terms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// cosineSimilarity returns the cosine of the angle between a and b, or 0
// when either vector is degenerate.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
