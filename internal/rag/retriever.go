package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
)

// ContextSeparator joins packed chunks so the generation model can see
// segment boundaries.
const ContextSeparator = "\n\n---\n\n"

// Retrieved is one similarity hit. Score is 1/(1+distance) on the squared
// L2 distance, so an exact match scores 1.0 and scores fall toward zero as
// distance grows.
type Retrieved struct {
	Chunk    chunker.Chunk `json:"chunk"`
	Score    float64       `json:"score"`
	Distance float32       `json:"distance"`
	Rank     int           `json:"rank"`
}

// Retrieve embeds the query and returns the k most similar chunks, best
// first. k larger than the corpus is clamped.
func (s *Session) Retrieve(ctx context.Context, query string, k int) ([]Retrieved, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("rag: empty query")
	}
	vec, err := s.provider.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("rag: embed query: %w", err)
	}
	hits, err := s.index.Search(vec, k)
	if err != nil {
		return nil, err
	}

	results := make([]Retrieved, len(hits))
	for i, hit := range hits {
		results[i] = Retrieved{
			Chunk:    s.Chunks[hit.ID],
			Score:    1.0 / (1.0 + float64(hit.Distance)),
			Distance: hit.Distance,
			Rank:     i + 1,
		}
	}
	return results, nil
}

// PackContext concatenates whole chunks in rank order while the running
// token total stays within maxTokens. Packing stops at the first chunk that
// would overflow the budget; chunks are never truncated to fit. Returns the
// empty string when nothing fits.
func PackContext(results []Retrieved, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}
	var parts []string
	used := 0
	for _, r := range results {
		if used+r.Chunk.TokenCount > maxTokens {
			break
		}
		parts = append(parts, r.Chunk.Text)
		used += r.Chunk.TokenCount
	}
	return strings.Join(parts, ContextSeparator)
}

// RetrieveContext runs Retrieve and packs the hits into a single context
// string bounded by maxTokens.
func (s *Session) RetrieveContext(ctx context.Context, query string, k, maxTokens int) (string, []Retrieved, error) {
	results, err := s.Retrieve(ctx, query, k)
	if err != nil {
		return "", nil, err
	}
	return PackContext(results, maxTokens), results, nil
}
