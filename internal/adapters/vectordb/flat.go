// Package vectordb provides the exact inner-product vector index and its
// on-disk persistence. Adapter implementing ports.VectorSearcher and
// ports.IndexRepository.
package vectordb

import (
	"errors"
	"sort"

	"github.com/agrostack/kisanqa-go/internal/domain/entities"
)

// FlatIndex is an exact inner-product search index over a fixed corpus:
// every row is scored against the query, no approximation. The snapshot is
// immutable after build, so concurrent lookups need no locking. Rebuild is
// the only mutation path.
type FlatIndex struct {
	dim  int
	rows int
	data []float32 // row-major, rows*dim
}

// NewFlatIndex builds an index from per-row vectors. Rows are expected to be
// L2-normalized already; the index stores them as-is.
func NewFlatIndex(vectors [][]float32) (*FlatIndex, error) {
	if len(vectors) == 0 {
		return nil, errors.New("flat index: no vectors")
	}
	dim := len(vectors[0])
	data := make([]float32, 0, len(vectors)*dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil, &entities.DimensionMismatchError{Want: dim, Got: len(v)}
		}
		data = append(data, v...)
	}
	return &FlatIndex{dim: dim, rows: len(vectors), data: data}, nil
}

// Dimension is the embedding dimension fixed at build time.
func (ix *FlatIndex) Dimension() int { return ix.dim }

// Size is the number of corpus rows.
func (ix *FlatIndex) Size() int { return ix.rows }

// Search scores the query against every row and returns the k best
// (score, row) pairs, highest first. When k exceeds the corpus size the
// tail is padded with (0, -1) sentinels. Ties keep row order, so results
// are deterministic.
func (ix *FlatIndex) Search(query []float32, k int) ([]float32, []int, error) {
	if len(query) != ix.dim {
		return nil, nil, &entities.DimensionMismatchError{Want: ix.dim, Got: len(query)}
	}
	if k <= 0 {
		return nil, nil, nil
	}

	all := make([]float32, ix.rows)
	for row := 0; row < ix.rows; row++ {
		base := row * ix.dim
		var dot float32
		for i, q := range query {
			dot += q * ix.data[base+i]
		}
		all[row] = dot
	}

	order := make([]int, ix.rows)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return all[order[a]] > all[order[b]]
	})

	scores := make([]float32, k)
	indices := make([]int, k)
	for i := 0; i < k; i++ {
		if i < ix.rows {
			scores[i] = all[order[i]]
			indices[i] = order[i]
		} else {
			indices[i] = -1
		}
	}
	return scores, indices, nil
}
