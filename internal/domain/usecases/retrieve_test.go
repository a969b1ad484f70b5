package usecases

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// fakeEmbedder implements ports.EmbeddingService with canned vectors.
type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float32, len(f.vector))
	copy(out, f.vector)
	return out, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := f.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// fakeSearcher implements ports.VectorSearcher with fixed results.
type fakeSearcher struct {
	dim     int
	size    int
	scores  []float32
	indices []int
}

func (f *fakeSearcher) Search(query []float32, k int) ([]float32, []int, error) {
	if len(query) != f.dim {
		return nil, nil, &entities.DimensionMismatchError{Want: f.dim, Got: len(query)}
	}
	if k > len(f.indices) {
		k = len(f.indices)
	}
	return f.scores[:k], f.indices[:k], nil
}

func (f *fakeSearcher) Dimension() int { return f.dim }
func (f *fakeSearcher) Size() int      { return f.size }

func newTestUseCase(searcher *fakeSearcher, queries, answers []string, cfg RetrievalConfig) *RetrieveUseCase {
	embedder := &fakeEmbedder{vector: make([]float32, searcher.dim)}
	embedder.vector[0] = 1
	return NewRetrieveUseCase(embedder, searcher, queries, answers, cfg)
}

// Scenario: a single relevant corpus entry produces one hit and a bulleted
// answer.
func TestRetrieve_SingleRelevantHit(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    1,
		scores:  []float32{0.82},
		indices: []int{0},
	}
	uc := newTestUseCase(searcher,
		[]string{"How to control aphids in mustard?"},
		[]string{"Spray neem oil weekly."},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "aphid control in mustard crop", 5)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(result.Hits))
	}
	if result.Hits[0].Score < DefaultMinSimilarity {
		t.Errorf("hit score %v below threshold", result.Hits[0].Score)
	}
	if result.Answer != "• Spray neem oil weekly." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
}

// Scenario: nothing above threshold is a normal outcome with the canned
// message, not an error.
func TestRetrieve_NoMatchAboveThreshold(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    2,
		scores:  []float32{0.21, 0.05},
		indices: []int{0, 1},
	}
	uc := newTestUseCase(searcher,
		[]string{"aphids in mustard", "blight in potato"},
		[]string{"neem oil", "copper fungicide"},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "how to register a company", 5)
	if err != nil {
		t.Fatalf("no-match must not be an error: %v", err)
	}
	if len(result.Hits) != 0 {
		t.Errorf("expected no hits, got %d", len(result.Hits))
	}
	if len(result.Display) != 0 {
		t.Errorf("expected empty display, got %d", len(result.Display))
	}
	if result.Answer != DefaultNoMatchMessage {
		t.Errorf("expected canned message, got %q", result.Answer)
	}
}

// Scenario: a query embedding with the wrong dimension is a fatal
// misconfiguration.
func TestRetrieve_DimensionMismatch(t *testing.T) {
	searcher := &fakeSearcher{dim: 384, size: 1, scores: []float32{1}, indices: []int{0}}
	embedder := &fakeEmbedder{vector: make([]float32, 768)}
	uc := NewRetrieveUseCase(embedder, searcher, []string{"q"}, []string{"a"}, DefaultRetrievalConfig())

	result, err := uc.Retrieve(context.Background(), "anything", 5)
	if result != nil {
		t.Error("expected no partial result")
	}
	var dimErr *entities.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionMismatchError, got %v", err)
	}
	if dimErr.Want != 384 || dimErr.Got != 768 {
		t.Errorf("unexpected dims: want=%d got=%d", dimErr.Want, dimErr.Got)
	}
}

func TestRetrieve_EncoderFailurePropagates(t *testing.T) {
	searcher := &fakeSearcher{dim: 4, size: 1, scores: []float32{1}, indices: []int{0}}
	embedder := &fakeEmbedder{err: entities.ErrEncodingUnavailable}
	uc := NewRetrieveUseCase(embedder, searcher, []string{"q"}, []string{"a"}, DefaultRetrievalConfig())

	_, err := uc.Retrieve(context.Background(), "anything", 5)
	if !errors.Is(err, entities.ErrEncodingUnavailable) {
		t.Fatalf("expected ErrEncodingUnavailable, got %v", err)
	}
}

func TestRetrieve_SkipsSentinelIndices(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    3,
		scores:  []float32{0.9, 0, 0},
		indices: []int{0, -1, -1},
	}
	uc := newTestUseCase(searcher, []string{"q"}, []string{"a"}, DefaultRetrievalConfig())

	result, err := uc.Retrieve(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(result.Hits) != 1 {
		t.Errorf("sentinels must be skipped, got %d hits", len(result.Hits))
	}
}

func TestRetrieve_DeduplicatesIdenticalRows(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    3,
		scores:  []float32{0.9, 0.85, 0.8},
		indices: []int{0, 1, 2},
	}
	// Rows 0 and 1 carry the same (query, answer) pair.
	uc := newTestUseCase(searcher,
		[]string{"aphids", "aphids", "blight"},
		[]string{"neem oil", "neem oil", "fungicide"},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "aphids", 3)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 deduplicated hits, got %d", len(result.Hits))
	}
}

func TestRetrieve_ThresholdRankingAndBounds(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    6,
		scores:  []float32{0.9, 0.7, 0.6, 0.5, 0.31, 0.1},
		indices: []int{0, 1, 2, 3, 4, 5},
	}
	uc := newTestUseCase(searcher,
		[]string{"q0", "q1", "q2", "q3", "q4", "q5"},
		[]string{"a0", "a1", "a2", "a3", "a4", "a5"},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "anything", 6)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}

	// Threshold law.
	for _, h := range result.Hits {
		if h.Score < DefaultMinSimilarity {
			t.Errorf("hit %q below threshold: %v", h.Query, h.Score)
		}
	}
	if len(result.Hits) != 4 {
		t.Errorf("expected 4 hits above threshold, got %d", len(result.Hits))
	}

	// Ranking law.
	for i := 1; i < len(result.Hits); i++ {
		if result.Hits[i-1].Score < result.Hits[i].Score {
			t.Errorf("hits not sorted at %d: %v < %v", i, result.Hits[i-1].Score, result.Hits[i].Score)
		}
	}

	// Bound law: display capped, raw set preserved separately.
	if len(result.Display) > DefaultMaxDisplayHits {
		t.Errorf("display exceeds cap: %d", len(result.Display))
	}
	if !reflect.DeepEqual(result.Display, result.Hits[:len(result.Display)]) {
		t.Error("display is not a prefix of the ranked hits")
	}
}

func TestRetrieve_Deterministic(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    2,
		scores:  []float32{0.8, 0.6},
		indices: []int{0, 1},
	}
	uc := newTestUseCase(searcher,
		[]string{"q0", "q1"},
		[]string{"a0", "a1"},
		DefaultRetrievalConfig(),
	)

	first, err := uc.Retrieve(context.Background(), "same query", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	second, err := uc.Retrieve(context.Background(), "same query", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("identical queries returned different results")
	}
}

func TestRetrieve_SecondaryAnswerBlock(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    2,
		scores:  []float32{0.9, 0.8},
		indices: []int{0, 1},
	}
	uc := newTestUseCase(searcher,
		[]string{"q0", "q1"},
		[]string{"Spray neem oil weekly.", "Introduce ladybird beetles as predators."},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "aphids", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	want := "• Spray neem oil weekly.\n\nMore information:\n• Introduce ladybird beetles as predators."
	if result.Answer != want {
		t.Errorf("unexpected answer:\n got %q\nwant %q", result.Answer, want)
	}
}

// Near-duplicate runner-ups (same 50-char prefix) are suppressed from the
// secondary block.
func TestRetrieve_SecondaryAnswerSuppressedForSamePrefix(t *testing.T) {
	long := "Apply balanced NPK fertilizer at the recommended dose during sowing"
	searcher := &fakeSearcher{
		dim:     4,
		size:    2,
		scores:  []float32{0.9, 0.8},
		indices: []int{0, 1},
	}
	uc := newTestUseCase(searcher,
		[]string{"q0", "q1"},
		[]string{long + " in wheat.", long + " in barley."},
		DefaultRetrievalConfig(),
	)

	result, err := uc.Retrieve(context.Background(), "fertilizer", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if result.Answer != BulletLines(long+" in wheat.") {
		t.Errorf("secondary block should be suppressed, got %q", result.Answer)
	}
}

func TestRetrieve_SecondaryAnswerDisabled(t *testing.T) {
	searcher := &fakeSearcher{
		dim:     4,
		size:    2,
		scores:  []float32{0.9, 0.8},
		indices: []int{0, 1},
	}
	cfg := DefaultRetrievalConfig()
	cfg.SecondaryAnswer = false
	uc := newTestUseCase(searcher,
		[]string{"q0", "q1"},
		[]string{"First answer.", "Completely different second answer."},
		cfg,
	)

	result, err := uc.Retrieve(context.Background(), "anything", 2)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if result.Answer != "• First answer." {
		t.Errorf("expected primary only, got %q", result.Answer)
	}
}

func TestRetrieve_Reload(t *testing.T) {
	old := &fakeSearcher{dim: 4, size: 1, scores: []float32{0.9}, indices: []int{0}}
	uc := newTestUseCase(old, []string{"old q"}, []string{"old answer"}, DefaultRetrievalConfig())

	fresh := &fakeSearcher{dim: 4, size: 1, scores: []float32{0.9}, indices: []int{0}}
	uc.Reload(fresh, []string{"new q"}, []string{"new answer."})

	result, err := uc.Retrieve(context.Background(), "anything", 1)
	if err != nil {
		t.Fatalf("retrieve failed: %v", err)
	}
	if result.Hits[0].Answer != "new answer." {
		t.Errorf("expected reloaded corpus, got %q", result.Hits[0].Answer)
	}
}
