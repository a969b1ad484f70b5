package usecases

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
	"github.com/agrostack/kisanqa-go/internal/domain/ports"
)

// Retrieval defaults, tuned empirically in the reference deployment.
const (
	DefaultMinSimilarity  = 0.32
	DefaultMaxDisplayHits = 3
	DefaultTopK           = 5
	DefaultNoMatchMessage = "No relevant answer found in the KCC database."
)

// secondaryPrefixLen is how many characters of the normalized answer are
// compared when deciding whether a second hit adds new information. A blunt
// proxy for near-duplicate detection, kept as observed in production.
const secondaryPrefixLen = 50

// RetrievalConfig parameterizes the engine. One engine serves every
// deployment flavor; threshold and formatting policy are configuration, not
// separate implementations.
type RetrievalConfig struct {
	// MinSimilarity is the cosine cutoff below which the corpus is
	// considered to have no relevant answer.
	MinSimilarity float32

	// MaxDisplayHits caps the hits used for the formatted answer.
	MaxDisplayHits int

	// TopK is the default candidate count requested from the index.
	TopK int

	// NoMatchMessage is returned verbatim when nothing clears the threshold.
	NoMatchMessage string

	// SecondaryAnswer toggles the "More information" block built from the
	// second distinct hit.
	SecondaryAnswer bool
}

// DefaultRetrievalConfig returns the reference deployment settings.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MinSimilarity:   DefaultMinSimilarity,
		MaxDisplayHits:  DefaultMaxDisplayHits,
		TopK:            DefaultTopK,
		NoMatchMessage:  DefaultNoMatchMessage,
		SecondaryAnswer: true,
	}
}

// RetrieveUseCase orchestrates encode, search, filter, dedupe, rank and
// format for one query. The index handle is swappable at runtime so a
// rebuilt artifact pair can be picked up without restarting.
type RetrieveUseCase struct {
	embedder ports.EmbeddingService
	cfg      RetrievalConfig

	mu       sync.RWMutex
	searcher ports.VectorSearcher
	queries  []string
	answers  []string
}

// NewRetrieveUseCase creates a RetrieveUseCase with injected dependencies.
// queries and answers are the metadata arrays aligned with the searcher's
// row order.
func NewRetrieveUseCase(
	embedder ports.EmbeddingService,
	searcher ports.VectorSearcher,
	queries, answers []string,
	cfg RetrievalConfig,
) *RetrieveUseCase {
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = DefaultMinSimilarity
	}
	if cfg.MaxDisplayHits <= 0 {
		cfg.MaxDisplayHits = DefaultMaxDisplayHits
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.NoMatchMessage == "" {
		cfg.NoMatchMessage = DefaultNoMatchMessage
	}
	return &RetrieveUseCase{
		embedder: embedder,
		cfg:      cfg,
		searcher: searcher,
		queries:  queries,
		answers:  answers,
	}
}

// Reload swaps in a freshly loaded index snapshot. In-flight retrievals
// finish against the handle they started with.
func (uc *RetrieveUseCase) Reload(searcher ports.VectorSearcher, queries, answers []string) {
	uc.mu.Lock()
	uc.searcher = searcher
	uc.queries = queries
	uc.answers = answers
	uc.mu.Unlock()
	log.Printf("[INFO] retrieval index reloaded: %d entries, dim %d", searcher.Size(), searcher.Dimension())
}

// Retrieve answers one query. topK <= 0 falls back to the configured
// default. An empty result above threshold is a normal outcome carrying the
// configured no-match message, not an error.
func (uc *RetrieveUseCase) Retrieve(ctx context.Context, query string, topK int) (*entities.RetrievalResult, error) {
	uc.mu.RLock()
	searcher, queries, answers := uc.searcher, uc.queries, uc.answers
	uc.mu.RUnlock()

	if topK <= 0 {
		topK = uc.cfg.TopK
	}

	// 1. Encode the query alone, not joined with any answer.
	embedding, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	NormalizeL2(embedding)

	// 2. Exact search for the highest inner-product rows.
	k := topK
	if n := searcher.Size(); k > n {
		k = n
	}
	scores, indices, err := searcher.Search(embedding, k)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	// 3-5. Filter, dedupe by (query, answer), rank.
	type pair struct{ q, a string }
	seen := make(map[pair]bool)
	var hits []entities.SearchHit
	for i, idx := range indices {
		if idx < 0 {
			continue // sentinel: fewer candidates than requested
		}
		if scores[i] < uc.cfg.MinSimilarity {
			continue
		}
		q, a := queries[idx], answers[idx]
		key := pair{q, a}
		if seen[key] {
			continue
		}
		seen[key] = true
		hits = append(hits, entities.SearchHit{Query: q, Answer: a, Score: scores[i]})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	result := &entities.RetrievalResult{Hits: hits}

	// 6. Nothing cleared the threshold: designed no-match outcome.
	if len(hits) == 0 {
		result.Display = []entities.SearchHit{}
		result.Answer = uc.cfg.NoMatchMessage
		return result, nil
	}

	display := hits
	if len(display) > uc.cfg.MaxDisplayHits {
		display = display[:uc.cfg.MaxDisplayHits]
	}
	result.Display = display

	// 7. Primary answer, plus a secondary block when the runner-up really
	// says something different.
	result.Answer = uc.formatAnswer(display)
	return result, nil
}

// formatAnswer bullets the top hit and, when enabled, appends the first
// runner-up whose answer prefix differs from the primary.
func (uc *RetrieveUseCase) formatAnswer(display []entities.SearchHit) string {
	var sb strings.Builder
	sb.WriteString(BulletLines(display[0].Answer))

	if uc.cfg.SecondaryAnswer && len(display) > 1 {
		primary := answerPrefix(display[0].Answer)
		for _, hit := range display[1:] {
			if answerPrefix(hit.Answer) == primary {
				continue
			}
			sb.WriteString("\n\nMore information:\n")
			sb.WriteString(BulletLines(hit.Answer))
			break
		}
	}
	return sb.String()
}

// answerPrefix normalizes an answer to its lowercased first characters for
// the cheap near-duplicate check.
func answerPrefix(answer string) string {
	s := strings.ToLower(strings.Join(strings.Fields(answer), " "))
	if len(s) > secondaryPrefixLen {
		s = s[:secondaryPrefixLen]
	}
	return s
}
