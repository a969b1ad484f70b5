// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import "time"

// CorpusEntry is one normalized question/answer pair from the knowledge base.
// Entries are produced by corpus preprocessing and immutable afterwards; the
// corpus is rebuilt wholesale, never patched in place.
type CorpusEntry struct {
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// RawTable is an untrusted tabular corpus source: a header row plus records.
// Column naming varies between exports, so consumers detect the question and
// answer columns rather than assuming positions.
type RawTable struct {
	Columns []string
	Rows    [][]string
}

// SearchHit is one retrieved corpus entry with its cosine similarity score.
// Vectors are L2-normalized at build and query time, so inner product equals
// cosine similarity.
type SearchHit struct {
	Query  string  `json:"query"`
	Answer string  `json:"answer"`
	Score  float32 `json:"score"`
}

// RetrievalResult is the outcome of one query against the index.
// Hits holds every deduplicated hit above the similarity threshold, ranked
// by score descending. Display is the truncated subset intended for
// rendering. Answer is the farmer-readable bulleted text derived from
// Display.
type RetrievalResult struct {
	Hits    []SearchHit `json:"hits"`
	Display []SearchHit `json:"display"`
	Answer  string      `json:"answer"`
}

// Conversation is one logged exchange: the farmer's query, the retrieval
// answer, and the optional LLM-generated answer.
type Conversation struct {
	ID            string
	Query         string
	OfflineAnswer string
	OnlineAnswer  string
	CreatedAt     time.Time
}
