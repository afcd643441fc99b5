package chunker

import "unicode/utf8"

// TokenCounter reports the token length of a piece of text.
type TokenCounter func(text string) int

// EstimateTokens approximates token count using the ~4 chars/token heuristic.
// This is lossy compared to a real tokenizer, but boundaries only need to be
// approximately right, and the same counter is used for context budgeting at
// retrieval time so the error is consistent end to end.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := utf8.RuneCountInString(text) / 4
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
