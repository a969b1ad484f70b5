// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, not concrete implementations;
// adapters implement them.
package ports

import (
	"context"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// EmbeddingService generates dense vector embeddings for text.
// Dimension must stay constant for the lifetime of one index.
type EmbeddingService interface {
	// Embed generates a vector embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSearcher performs exact inner-product nearest-neighbor search over
// an immutable snapshot of corpus vectors. Safe for unlimited concurrent
// lookups without locking.
type VectorSearcher interface {
	// Search returns the k highest inner-product scores against the query
	// vector, with the matched row indices. When the corpus holds fewer than
	// k rows the tail is padded with (0, -1) sentinel pairs, matching flat
	// inner-product index conventions. A query vector whose length differs
	// from Dimension() fails with *entities.DimensionMismatchError.
	Search(query []float32, k int) (scores []float32, indices []int, err error)

	// Dimension is the embedding dimension fixed at build time.
	Dimension() int

	// Size is the number of corpus rows in the index.
	Size() int
}

// IndexRepository persists and loads the matched index/metadata artifact
// pair. Save replaces both artifacts atomically; readers never observe a
// partially written index.
type IndexRepository interface {
	// Save writes the vectors and the aligned corpus metadata as a fresh
	// artifact pair. vectors[i] corresponds to entries[i].
	Save(ctx context.Context, entries []entities.CorpusEntry, vectors [][]float32) error

	// Load reads the artifact pair back. Fails with
	// entities.ErrCorpusNotBuilt when either artifact is missing and
	// entities.ErrIndexCorrupt when the pair does not match.
	Load(ctx context.Context) (searcher VectorSearcher, queries, answers []string, err error)
}

// LLMService generates text from a language model. Used for the optional
// "online answer" that rephrases the retrieved context.
type LLMService interface {
	// Generate produces a response for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)
}

// ConversationStore persists logged query/answer exchanges.
type ConversationStore interface {
	// Save records one conversation. A failure here must never fail the
	// query path; callers log and continue.
	Save(ctx context.Context, conv entities.Conversation) error

	// Recent returns the most recent conversations, newest first.
	Recent(ctx context.Context, limit int) ([]entities.Conversation, error)

	// Close releases the underlying storage.
	Close() error
}

// ArtifactWatcher monitors the index artifact directory for rebuilds.
type ArtifactWatcher interface {
	// Watch starts monitoring and emits the paths of changed artifacts.
	Watch(ctx context.Context, dir string) (<-chan string, error)

	// Stop stops the watcher.
	Stop() error
}
