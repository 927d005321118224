package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/openai/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":` + jsonString(content) + `}}]}`))
	}))
}

func jsonString(s string) string {
	b := strings.Builder{}
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

const longTranscript = "We discussed the quarterly roadmap and agreed that Alice will draft the launch plan by Friday. Bob raised concerns about the migration timeline."

func TestExtractParsesModelOutput(t *testing.T) {
	response := `{"summary":"The team reviewed the roadmap.","action_items":[{"text":"Draft launch plan","assignee":"Alice","due_date":"Friday"}],"key_topics":["roadmap","migration"]}`
	server := chatServer(t, response)
	defer server.Close()

	extractor := NewGroqInsightExtractor(NewGroqClient("test-key", server.URL, ""), nil)
	insights, err := extractor.Extract(context.Background(), longTranscript)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if insights.Degraded {
		t.Error("expected a real result, got degraded")
	}
	if insights.Summary != "The team reviewed the roadmap." {
		t.Errorf("unexpected summary: %q", insights.Summary)
	}
	if len(insights.ActionItems) != 1 || insights.ActionItems[0].Assignee != "Alice" {
		t.Errorf("unexpected action items: %+v", insights.ActionItems)
	}
	if len(insights.Topics) != 2 {
		t.Errorf("unexpected topics: %v", insights.Topics)
	}
}

func TestExtractStripsMarkdownFences(t *testing.T) {
	response := "```json\n{\"summary\":\"Fenced.\",\"action_items\":[],\"key_topics\":[]}\n```"
	server := chatServer(t, response)
	defer server.Close()

	extractor := NewGroqInsightExtractor(NewGroqClient("test-key", server.URL, ""), nil)
	insights, err := extractor.Extract(context.Background(), longTranscript)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if insights.Summary != "Fenced." {
		t.Errorf("unexpected summary: %q", insights.Summary)
	}
}

func TestExtractDegradesOnGarbageOutput(t *testing.T) {
	server := chatServer(t, "Sorry, I cannot produce JSON today.")
	defer server.Close()

	extractor := NewGroqInsightExtractor(NewGroqClient("test-key", server.URL, ""), nil)
	insights, err := extractor.Extract(context.Background(), longTranscript)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !insights.Degraded {
		t.Error("expected degraded result for unparseable output")
	}
	if insights.Summary != FallbackSummary {
		t.Errorf("expected fallback summary, got %q", insights.Summary)
	}
}

func TestExtractSkipsShortTranscripts(t *testing.T) {
	extractor := NewGroqInsightExtractor(NewGroqClient("test-key", "http://unused.invalid", ""), nil)
	insights, err := extractor.Extract(context.Background(), "Hi.")
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !insights.Degraded {
		t.Error("expected degraded result for short transcript")
	}
}

func TestExtractUnconfiguredClient(t *testing.T) {
	extractor := NewGroqInsightExtractor(NewGroqClient("", "", ""), nil)
	insights, err := extractor.Extract(context.Background(), longTranscript)
	if err != nil {
		t.Fatalf("Extract returned error: %v", err)
	}
	if !insights.Degraded || insights.Summary != FallbackSummary {
		t.Errorf("expected placeholder insights, got %+v", insights)
	}
}

func TestExtractPropagatesTransportErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	extractor := NewGroqInsightExtractor(NewGroqClient("test-key", server.URL, ""), nil)
	if _, err := extractor.Extract(context.Background(), longTranscript); err == nil {
		t.Fatal("expected error for unavailable provider")
	}
}
