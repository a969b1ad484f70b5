package entities

import (
	"errors"
	"fmt"
)

// Error taxonomy for the retrieval core. Build-time errors abort the build
// with an actionable message; query-time errors propagate to the caller as
// typed failures. An empty result above threshold is NOT an error.
var (
	// ErrMissingInput: the corpus build has no raw source to read.
	ErrMissingInput = errors.New("raw corpus source not found")

	// ErrCorpusNotBuilt: index or metadata artifact absent at load time.
	ErrCorpusNotBuilt = errors.New("index artifacts not found: run the buildindex pipeline first")

	// ErrIndexCorrupt: persisted artifacts unreadable or mismatched as a pair.
	ErrIndexCorrupt = errors.New("index artifacts corrupt or mismatched")

	// ErrEncodingUnavailable: the embedding capability failed (model load,
	// endpoint unreachable). The core does not retry; callers may retry the
	// whole request.
	ErrEncodingUnavailable = errors.New("embedding service unavailable")
)

// DimensionMismatchError signals that a query embedding's dimension does not
// match the index dimension. This is a fatal misconfiguration, never retried.
type DimensionMismatchError struct {
	Want int // index dimension, fixed at build time
	Got  int // query embedding dimension
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: index has %d, query has %d", e.Want, e.Got)
}
