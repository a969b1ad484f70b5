package usecases

import (
	"context"
	"fmt"
	"log"
	"math"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
)

// BuildUseCase runs the offline pipeline: normalize the raw corpus, embed
// every entry, L2-normalize, and persist the index/metadata pair. This is
// the only mutation path; serving processes pick up the replaced artifacts.
type BuildUseCase struct {
	embedder ports.EmbeddingService
	repo     ports.IndexRepository
}

// NewBuildUseCase creates a BuildUseCase with injected dependencies.
func NewBuildUseCase(embedder ports.EmbeddingService, repo ports.IndexRepository) *BuildUseCase {
	return &BuildUseCase{embedder: embedder, repo: repo}
}

// Build normalizes raw records and writes a fresh artifact pair. Nothing is
// persisted on failure. Returns the normalized corpus for callers that want
// to serialize it separately.
func (uc *BuildUseCase) Build(ctx context.Context, raw entities.RawTable) ([]entities.CorpusEntry, error) {
	entries := NormalizeCorpus(raw)
	if len(entries) == 0 {
		return nil, fmt.Errorf("normalizing corpus: no usable records: %w", entities.ErrMissingInput)
	}
	log.Printf("[INFO] normalized corpus: %d entries from %d raw rows", len(entries), len(raw.Rows))

	// The embedding target is the joined "query answer" string so the index
	// retrieves on topical similarity to the full Q&A content, not the
	// question alone.
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = e.Query + " " + e.Answer
	}

	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding corpus: %w", err)
	}
	if len(vectors) != len(entries) {
		return nil, fmt.Errorf("embedding corpus: got %d vectors for %d entries", len(vectors), len(entries))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("embedding corpus: encoder returned zero-dimension vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding corpus: row %d has dim %d, expected %d", i, len(v), dim)
		}
		NormalizeL2(v)
	}
	log.Printf("[INFO] embedded %d entries, dim %d", len(vectors), dim)

	if err := uc.repo.Save(ctx, entries, vectors); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}
	return entries, nil
}

// NormalizeL2 scales a vector to unit length in place. Zero vectors are left
// unchanged so a degenerate embedding scores 0 against everything instead of
// producing NaNs.
func NormalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	inv := 1 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
