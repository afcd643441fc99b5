// Package vecindex implements an exact flat vector index over L2 distance.
// Every query scans the full corpus, so lookups are O(n*d); for the corpus
// sizes a single document produces (hundreds of chunks) this is faster and
// simpler than any approximate structure, and results are exact.
package vecindex

import (
	"encoding/gob"
	"fmt"
	"io"
	"sort"
)

// Index is an immutable flat index. Vector i corresponds to external ID i;
// callers keep their own side table mapping IDs back to source records.
type Index struct {
	dim     int
	vectors [][]float32
}

// Result is a single nearest-neighbor hit.
type Result struct {
	ID       int
	Distance float32
}

// Build constructs an index over the given vectors. All vectors must share
// the same dimension and at least one vector is required.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("vecindex: cannot build index from zero vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("vecindex: vector 0 has zero dimension")
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("vecindex: vector %d has dimension %d, want %d", i, len(vec), dim)
		}
	}
	return &Index{dim: dim, vectors: vectors}, nil
}

// Size returns the number of indexed vectors.
func (ix *Index) Size() int { return len(ix.vectors) }

// Dimensions returns the vector dimension the index was built with.
func (ix *Index) Dimensions() int { return ix.dim }

// Search returns the k nearest vectors to query by L2 distance, closest
// first. Ties are broken by ascending ID so results are deterministic. A k
// larger than the corpus is clamped; k <= 0 returns no results.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("vecindex: query has dimension %d, index has %d", len(query), ix.dim)
	}
	if k <= 0 {
		return nil, nil
	}
	if k > len(ix.vectors) {
		k = len(ix.vectors)
	}

	results := make([]Result, len(ix.vectors))
	for i, vec := range ix.vectors {
		results[i] = Result{ID: i, Distance: squaredL2(query, vec)}
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Distance != results[b].Distance {
			return results[a].Distance < results[b].Distance
		}
		return results[a].ID < results[b].ID
	})
	return results[:k], nil
}

// squaredL2 computes the squared Euclidean distance. The square root is
// skipped because it does not change the ordering; Retrieved scores are
// derived from this squared value.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// indexFile is the on-disk gob layout.
type indexFile struct {
	Dim     int
	Vectors [][]float32
}

// Encode writes the index to w in gob format.
func (ix *Index) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(indexFile{Dim: ix.dim, Vectors: ix.vectors})
}

// Decode reads an index previously written with Encode.
func Decode(r io.Reader) (*Index, error) {
	var file indexFile
	if err := gob.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("vecindex: decode: %w", err)
	}
	ix, err := Build(file.Vectors)
	if err != nil {
		return nil, err
	}
	if ix.dim != file.Dim {
		return nil, fmt.Errorf("vecindex: decoded dimension %d does not match recorded %d", ix.dim, file.Dim)
	}
	return ix, nil
}
