// Package embedding provides embedding encoder adapters.
// Adapters implementing ports.EmbeddingService; the domain layer never sees
// provider specifics.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// OllamaAdapter implements ports.EmbeddingService against the Ollama
// embeddings API. The HTTP client is stateless, so one adapter serves
// concurrent queries.
type OllamaAdapter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaAdapter creates a new Ollama embedding adapter.
func NewOllamaAdapter(baseURL, model string) *OllamaAdapter {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaAdapter{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ollamaEmbedRequest is the Ollama API request format.
type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// ollamaEmbedResponse is the Ollama API response format.
type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed generates an embedding for a single text. Transport and model-load
// failures surface as entities.ErrEncodingUnavailable; the adapter never
// retries.
func (a *OllamaAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model:  a.model,
		Prompt: text,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL+"/api/embeddings", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		log.Printf("[ERROR] Ollama embed call failed: %v", err)
		return nil, fmt.Errorf("calling Ollama: %v: %w", err, entities.ErrEncodingUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[ERROR] Ollama embed returned status %d", resp.StatusCode)
		return nil, fmt.Errorf("Ollama returned status %d: %w", resp.StatusCode, entities.ErrEncodingUnavailable)
	}

	var embedResp ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(embedResp.Embedding) == 0 {
		return nil, fmt.Errorf("Ollama returned empty embedding: %w", entities.ErrEncodingUnavailable)
	}

	return embedResp.Embedding, nil
}

// EmbedBatch generates embeddings for multiple texts, calling the API
// sequentially. The corpus build is the only bulk caller and runs offline,
// so throughput over this path is not latency-critical.
func (a *OllamaAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := a.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
		if (i+1)%100 == 0 {
			log.Printf("[DEBUG] embedded %d/%d texts", i+1, len(texts))
		}
	}
	return embeddings, nil
}
