package entities

import (
	"errors"
	"fmt"
	"testing"
)

func TestDimensionMismatchError_Message(t *testing.T) {
	err := &DimensionMismatchError{Want: 384, Got: 768}
	want := "embedding dimension mismatch: index has 384, query has 768"
	if err.Error() != want {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestDimensionMismatchError_As(t *testing.T) {
	wrapped := fmt.Errorf("searching index: %w", &DimensionMismatchError{Want: 384, Got: 768})

	var dimErr *DimensionMismatchError
	if !errors.As(wrapped, &dimErr) {
		t.Fatal("errors.As failed through wrapping")
	}
	if dimErr.Want != 384 {
		t.Errorf("unexpected Want: %d", dimErr.Want)
	}
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	for _, sentinel := range []error{
		ErrMissingInput,
		ErrCorpusNotBuilt,
		ErrIndexCorrupt,
		ErrEncodingUnavailable,
	} {
		wrapped := fmt.Errorf("context: %w", sentinel)
		if !errors.Is(wrapped, sentinel) {
			t.Errorf("errors.Is failed for %v", sentinel)
		}
	}
}
