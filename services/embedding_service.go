package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github/docuchat/rag/models"
)

// EmbeddingService maps text to fixed-dimension vectors using the embedding
// model served by Ollama. The model is fixed for the life of the process, so
// all stored chunks and all queries share one vector space.
type EmbeddingService struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewEmbeddingService creates an embedding service backed by the Ollama
// embedding API at baseURL.
func NewEmbeddingService(client *http.Client, baseURL, model string) *EmbeddingService {
	return &EmbeddingService{
		httpClient: client,
		baseURL:    baseURL,
		model:      model,
	}
}

// Embed generates the embedding vector for a single text.
func (s *EmbeddingService) Embed(ctx context.Context, textToEmbed string) ([]float32, error) {
	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  s.model,
		Prompt: textToEmbed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", models.ErrEmbeddingUnavailable, resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", models.ErrEmbeddingUnavailable, err)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty embedding returned", models.ErrEmbeddingUnavailable)
	}
	return ollamaResp.Embedding, nil
}

// EmbedMany embeds each text in order. Ollama has no native batch endpoint,
// so this is one call per text; any failure aborts the whole batch so a
// document is never partially embedded.
func (s *EmbeddingService) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return vectors, nil
}
