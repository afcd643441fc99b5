package chunker

// Stats aggregates chunk-set statistics for reporting back to callers.
type Stats struct {
	TotalChunks      int     `json:"total_chunks"`
	TotalTokens      int     `json:"total_tokens"`
	TotalChars       int     `json:"total_chars"`
	AvgTokensPerChunk float64 `json:"avg_tokens_per_chunk"`
	MinTokens        int     `json:"min_tokens"`
	MaxTokens        int     `json:"max_tokens"`
}

// ComputeStats summarizes a chunk set. An empty set yields the zero value.
func ComputeStats(chunks []Chunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	s := Stats{
		TotalChunks: len(chunks),
		MinTokens:   chunks[0].TokenCount,
		MaxTokens:   chunks[0].TokenCount,
	}
	for _, c := range chunks {
		s.TotalTokens += c.TokenCount
		s.TotalChars += c.CharCount
		if c.TokenCount < s.MinTokens {
			s.MinTokens = c.TokenCount
		}
		if c.TokenCount > s.MaxTokens {
			s.MaxTokens = c.TokenCount
		}
	}
	s.AvgTokensPerChunk = float64(s.TotalTokens) / float64(len(chunks))
	return s
}
