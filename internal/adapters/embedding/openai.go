package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// OpenAIAdapter implements ports.EmbeddingService against any
// OpenAI-compatible embeddings endpoint (hosted OpenAI, LM Studio, vLLM).
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

// NewOpenAIAdapter creates an adapter for the given API key and model.
// baseURL overrides the endpoint for self-hosted compatible servers; leave
// empty for the hosted API.
func NewOpenAIAdapter(apiKey, baseURL, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai embedding adapter: API key not set")
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

// Embed generates an embedding for a single text.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one API call.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(a.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %v: %w", err, entities.ErrEncodingUnavailable)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs: %w",
			len(resp.Data), len(texts), entities.ErrEncodingUnavailable)
	}

	// Response order is not guaranteed; place by index.
	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("embeddings API returned out-of-range index %d: %w",
				d.Index, entities.ErrEncodingUnavailable)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if len(v) == 0 {
			return nil, fmt.Errorf("embeddings API returned empty vector for input %d: %w",
				i, entities.ErrEncodingUnavailable)
		}
	}
	return vectors, nil
}
