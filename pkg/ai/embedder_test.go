package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			http.NotFound(w, r)
			return
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		resp := embedResponse{Embeddings: make([][]float32, len(req.Texts))}
		for i := range req.Texts {
			vec := make([]float32, 4)
			vec[0] = float32(i + 1)
			resp.Embeddings[i] = vec
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, 4)
	vectors, err := client.EmbedBatch(context.Background(), []string{"first chunk", "second chunk"})
	if err != nil {
		t.Fatalf("EmbedBatch returned error: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][0] != 2 {
		t.Error("vectors not returned in request order")
	}
}

func TestEmbedBatchRejectsWrongDimension(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{{1, 2}}})
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, 384)
	if _, err := client.EmbedBatch(context.Background(), []string{"text"}); err == nil {
		t.Fatal("expected dimension mismatch error")
	}
}

func TestEmbedBatchRejectsCountMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{Embeddings: [][]float32{make([]float32, 4)}})
	}))
	defer server.Close()

	client := NewEmbeddingClient(server.URL, 4)
	if _, err := client.EmbedBatch(context.Background(), []string{"a", "b"}); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestEmbedBatchEmptyInput(t *testing.T) {
	client := NewEmbeddingClient("http://unused.invalid", 4)
	vectors, err := client.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch returned error: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil for empty input, got %v", vectors)
	}
}
