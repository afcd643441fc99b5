// Package chunker splits document text into ordered, overlapping,
// token-bounded chunks for embedding and retrieval.
package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize int          // Target chunk size in tokens.
	Overlap   int          // Advisory overlap between consecutive chunks in tokens.
	Counter   TokenCounter // Token counter; EstimateTokens when nil.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 500,
		Overlap:   100,
	}
}

// MinChunkTokens is the floor below which a chunk set is considered
// too thin to be worth embedding.
const MinChunkTokens = 10

// separators, in preference order. The empty string means a raw
// character-boundary cut for runs with no usable separator at all.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Chunk is a bounded span of source text, the atomic unit of
// embedding and retrieval. IDs are 0-based and contiguous; the chunk
// sequence joins back to the source text up to overlap duplication.
type Chunk struct {
	ID         int               `json:"chunk_id"`
	Text       string            `json:"text"`
	CharCount  int               `json:"char_count"`
	TokenCount int               `json:"token_count"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// Split breaks text into chunks of at most cfg.ChunkSize tokens, preferring
// paragraph breaks, then line breaks, then sentence ends, then spaces, and
// only cutting mid-word for unbreakable runs. Adjacent chunks share roughly
// cfg.Overlap tokens; the overlap is best-effort, not an exact contract.
// Empty or whitespace-only input yields nil.
func Split(text string, cfg Config, metadata map[string]string) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	if cfg.Overlap >= cfg.ChunkSize {
		cfg.Overlap = cfg.ChunkSize / 2
	}
	count := cfg.Counter
	if count == nil {
		count = EstimateTokens
	}

	parts := splitRecursive(text, separators, cfg, count)

	chunks := make([]Chunk, 0, len(parts))
	for i, p := range parts {
		chunks = append(chunks, Chunk{
			ID:         i,
			Text:       p,
			CharCount:  utf8.RuneCountInString(p),
			TokenCount: count(p),
			Metadata:   metadata,
		})
	}
	return chunks
}

// splitRecursive splits text on the first separator that occurs in it, then
// merges the pieces back into chunks up to the token budget. Pieces that are
// themselves over budget recurse with the remaining, finer separators.
func splitRecursive(text string, seps []string, cfg Config, count TokenCounter) []string {
	sep := ""
	var rest []string
	for i, s := range seps {
		if s == "" {
			break
		}
		if strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}

	if sep == "" {
		return splitByCharacters(text, cfg.ChunkSize, count)
	}

	var splits []string
	for _, piece := range strings.SplitAfter(text, sep) {
		if piece != "" {
			splits = append(splits, piece)
		}
	}

	var out []string
	var pending []string
	for _, s := range splits {
		if count(s) <= cfg.ChunkSize {
			pending = append(pending, s)
			continue
		}
		out = append(out, mergeSplits(pending, cfg, count)...)
		pending = nil
		out = append(out, splitRecursive(s, rest, cfg, count)...)
	}
	out = append(out, mergeSplits(pending, cfg, count)...)
	return out
}

// mergeSplits greedily packs consecutive splits into chunks of at most
// ChunkSize tokens. Each emitted chunk seeds the next one with roughly
// Overlap tokens taken backwards from its end at a word boundary.
func mergeSplits(splits []string, cfg Config, count TokenCounter) []string {
	if len(splits) == 0 {
		return nil
	}

	var out []string
	var current strings.Builder
	currentTokens := 0

	for _, s := range splits {
		tokens := count(s)
		if currentTokens+tokens > cfg.ChunkSize && currentTokens > 0 {
			out = append(out, strings.TrimSpace(current.String()))
			seed := overlapTail(current.String(), cfg.Overlap, count)
			current.Reset()
			currentTokens = 0
			if seed != "" {
				current.WriteString(seed)
				current.WriteString(" ")
				currentTokens = count(seed)
			}
		}
		current.WriteString(s)
		currentTokens += tokens
	}
	if t := strings.TrimSpace(current.String()); t != "" {
		out = append(out, t)
	}
	return out
}

// overlapTail returns roughly the last overlap tokens of text, snapped to a
// word boundary and whitespace-normalized. Returns "" when the whole text
// fits in the overlap budget, to avoid duplicating an entire chunk.
func overlapTail(text string, overlap int, count TokenCounter) string {
	if overlap <= 0 {
		return ""
	}
	words := strings.Fields(text)
	take := 0
	tokens := 0
	for i := len(words) - 1; i >= 0; i-- {
		t := count(words[i])
		if tokens+t > overlap {
			break
		}
		tokens += t
		take++
	}
	if take == 0 || take == len(words) {
		return ""
	}
	return strings.Join(words[len(words)-take:], " ")
}

// splitByCharacters hard-cuts a separator-free run at rune boundaries.
func splitByCharacters(text string, chunkSize int, count TokenCounter) []string {
	var out []string
	runes := []rune(text)
	// Initial guess from the chars/token heuristic, then shrink until the
	// configured counter agrees.
	step := chunkSize * 4
	if step < 1 {
		step = 1
	}
	for len(runes) > 0 {
		n := step
		if n > len(runes) {
			n = len(runes)
		}
		for n > 1 && count(string(runes[:n])) > chunkSize {
			n /= 2
		}
		out = append(out, string(runes[:n]))
		runes = runes[n:]
	}
	return out
}

// Validate rejects chunk sets that indicate a splitting failure: every chunk
// below MinChunkTokens, or any chunk more than 1.5x over the configured size.
func Validate(chunks []Chunk, cfg Config) error {
	if len(chunks) == 0 {
		return errors.New("no chunks produced")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}

	small := 0
	maxAllowed := cfg.ChunkSize + cfg.ChunkSize/2
	for _, c := range chunks {
		if c.TokenCount < MinChunkTokens {
			small++
		}
		if c.TokenCount > maxAllowed {
			return fmt.Errorf("chunk %d has %d tokens, exceeding the %d-token ceiling", c.ID, c.TokenCount, maxAllowed)
		}
	}
	if small == len(chunks) {
		return fmt.Errorf("all chunks are below %d tokens", MinChunkTokens)
	}
	return nil
}
