// Package embedding provides vector embedding generation for text.
package embedding

import (
	"context"
	"math"
)

// Provider converts text into fixed-dimension vectors. Document and query
// embeddings must come from the same provider instance so they share one
// embedding space.
type Provider interface {
	// Embed returns one vector per input text, index-aligned with the
	// input. Vectors are L2-normalized.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query string with the same model and
	// normalization as Embed.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Ping checks that the embedding backend is reachable and usable.
	Ping(ctx context.Context) error

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// Normalize scales vec to unit L2 length in place. Zero vectors are left
// unchanged. On unit vectors, Euclidean distance is monotonic with cosine
// similarity, which is what makes exact L2 search equivalent to cosine
// ranking downstream.
func Normalize(vec []float32) {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
}
