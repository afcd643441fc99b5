// Package rag builds and queries per-document retrieval sessions: chunk
// embeddings stored in an exact vector index, similarity search, and
// token-budgeted context packing for prompt assembly.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/embedding"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/vecindex"
)

// Session holds the retrieval state for one document. Index position i
// always corresponds to Chunks[i]; Build and Load both enforce this.
type Session struct {
	DocID     string
	Chunks    []chunker.Chunk
	ModelName string
	CreatedAt time.Time

	index    *vecindex.Index
	provider embedding.Provider
}

// Build embeds every chunk and constructs the session index. The embedding
// service is probed first, so a dead provider fails here rather than
// mid-corpus. Any per-chunk embedding failure aborts the whole build; a
// partial index would silently misalign IDs against chunks.
func Build(ctx context.Context, svc *embedding.Service, docID string, chunks []chunker.Chunk, log *slog.Logger) (*Session, error) {
	if len(chunks) == 0 {
		return nil, fmt.Errorf("rag: no chunks to index for document %s", docID)
	}
	provider, err := svc.Ready(ctx)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	start := time.Now()
	vectors, err := provider.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("rag: embed chunks for %s: %w", docID, err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("rag: embedded %d of %d chunks for %s", len(vectors), len(chunks), docID)
	}

	index, err := vecindex.Build(vectors)
	if err != nil {
		return nil, fmt.Errorf("rag: index for %s: %w", docID, err)
	}

	log.Info("retrieval session built",
		"doc_id", docID,
		"chunks", len(chunks),
		"dimensions", index.Dimensions(),
		"model", provider.ModelName(),
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
	)

	return &Session{
		DocID:     docID,
		Chunks:    chunks,
		ModelName: provider.ModelName(),
		CreatedAt: time.Now().UTC(),
		index:     index,
		provider:  provider,
	}, nil
}

// IndexStats describes the session index for status endpoints.
type IndexStats struct {
	IndexSize          int    `json:"index_size"`
	EmbeddingDimension int    `json:"embedding_dimension"`
	ModelName          string `json:"model_name"`
}

// Stats reports the current index shape.
func (s *Session) Stats() IndexStats {
	return IndexStats{
		IndexSize:          s.index.Size(),
		EmbeddingDimension: s.index.Dimensions(),
		ModelName:          s.ModelName,
	}
}
