package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// EmbeddingClient calls the embedding model service over HTTP
type EmbeddingClient struct {
	baseURL   string
	dimension int
	client    *http.Client
}

// NewEmbeddingClient creates an embedding client. dimension is the vector
// size the model is expected to produce; mismatched responses are rejected.
func NewEmbeddingClient(baseURL string, dimension int) *EmbeddingClient {
	if dimension <= 0 {
		dimension = 384
	}
	return &EmbeddingClient{
		baseURL:   baseURL,
		dimension: dimension,
		client:    &http.Client{Timeout: 120 * time.Second},
	}
}

// Dimension returns the expected vector size
func (c *EmbeddingClient) Dimension() int {
	return c.dimension
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch embeds the given texts in one call, preserving order
func (c *EmbeddingClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	b, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embed", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var er embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}

	if len(er.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(er.Embeddings))
	}
	for i, vec := range er.Embeddings {
		if len(vec) != c.dimension {
			return nil, fmt.Errorf("embedding %d has dimension %d, expected %d", i, len(vec), c.dimension)
		}
	}
	return er.Embeddings, nil
}
