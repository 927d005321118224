package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/meeting-intelligence-team/meeting-intelligence/internal/domain/entities"
)

const (
	// FallbackSummary is stored when no analysis could be produced
	FallbackSummary = "Summary unavailable."
	// minTranscriptChars below which analysis is skipped entirely
	minTranscriptChars = 50
)

const insightsPrompt = `Analyze the following meeting transcript and respond with a JSON object only, no prose, in this shape:
{
  "summary": "2-4 sentence summary of the meeting",
  "action_items": [{"text": "...", "assignee": "...", "due_date": "..."}],
  "key_topics": ["topic", "topic"]
}
Leave assignee or due_date empty when the transcript does not name one.

Transcript:
%s`

// GroqInsightExtractor derives meeting insights via the Groq chat API. When
// the client is unconfigured or the response is unusable it degrades to a
// placeholder result instead of failing, matching how the rest of the
// pipeline treats insights as best-effort.
type GroqInsightExtractor struct {
	client *GroqClient
	logger *zap.Logger
}

// NewGroqInsightExtractor creates an insight extractor over the given client
func NewGroqInsightExtractor(client *GroqClient, logger *zap.Logger) *GroqInsightExtractor {
	return &GroqInsightExtractor{client: client, logger: logger}
}

// Extract analyses the transcript. Provider transport errors are returned so
// the caller can retry; malformed model output degrades to a placeholder.
func (e *GroqInsightExtractor) Extract(ctx context.Context, transcript string) (*Insights, error) {
	if len(strings.TrimSpace(transcript)) < minTranscriptChars {
		return e.degraded("transcript too short for analysis"), nil
	}
	if !e.client.Configured() {
		return e.degraded("llm client not configured"), nil
	}

	content, err := e.client.Complete(ctx, fmt.Sprintf(insightsPrompt, transcript))
	if err != nil {
		return nil, fmt.Errorf("insight extraction failed: %w", err)
	}

	parsed, err := parseInsightsJSON(content)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("⚠️ Unparseable insights response, storing placeholder",
				zap.Error(err),
			)
		}
		return e.degraded("unparseable model response"), nil
	}
	parsed.Model = e.client.Model()
	return parsed, nil
}

func (e *GroqInsightExtractor) degraded(reason string) *Insights {
	if e.logger != nil {
		e.logger.Info("📝 Using placeholder insights", zap.String("reason", reason))
	}
	return &Insights{
		Summary:     FallbackSummary,
		ActionItems: []entities.ActionItem{},
		Topics:      []string{},
		Degraded:    true,
	}
}

type insightsPayload struct {
	Summary     string `json:"summary"`
	ActionItems []struct {
		Text     string `json:"text"`
		Assignee string `json:"assignee"`
		DueDate  string `json:"due_date"`
	} `json:"action_items"`
	KeyTopics []string `json:"key_topics"`
}

func parseInsightsJSON(content string) (*Insights, error) {
	var payload insightsPayload
	if err := json.Unmarshal([]byte(extractJSON(content)), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if payload.Summary == "" {
		return nil, fmt.Errorf("missing summary in response")
	}

	result := &Insights{
		Summary:     payload.Summary,
		ActionItems: make([]entities.ActionItem, 0, len(payload.ActionItems)),
		Topics:      payload.KeyTopics,
	}
	for _, item := range payload.ActionItems {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		result.ActionItems = append(result.ActionItems, entities.ActionItem{
			Text:     strings.TrimSpace(item.Text),
			Assignee: strings.TrimSpace(item.Assignee),
			DueDate:  strings.TrimSpace(item.DueDate),
		})
	}
	if result.Topics == nil {
		result.Topics = []string{}
	}
	return result, nil
}

// extractJSON strips markdown code fences the model sometimes wraps around
// its JSON output.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
		if idx := strings.LastIndex(content, "```"); idx != -1 {
			content = content[:idx]
		}
	}

	return strings.TrimSpace(content)
}
