package quiz

import (
	"fmt"
	"strings"
)

// Mode selects the question shape.
type Mode string

const (
	ModeMCQ Mode = "mcq"
	ModeQA  Mode = "qa"
)

// ParseMode validates a client-supplied mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeMCQ:
		return ModeMCQ, nil
	case ModeQA:
		return ModeQA, nil
	default:
		return "", fmt.Errorf("unknown quiz mode %q, want mcq or qa", s)
	}
}

// BuildPrompt returns the per-question prompt for the given mode. The JSON
// skeleton is spelled out literally because small models follow a shown
// structure far more reliably than a described one.
func BuildPrompt(mode Mode, contextText string, questionNum int, difficulty string) string {
	if mode == ModeMCQ {
		return buildMCQPrompt(contextText, questionNum, difficulty)
	}
	return buildQAPrompt(contextText, questionNum, difficulty)
}

func buildMCQPrompt(contextText string, questionNum int, difficulty string) string {
	return fmt.Sprintf(`Based on this content, generate ONE multiple-choice question (MCQ) as valid JSON.

CONTENT:
%s

INSTRUCTION:
- Difficulty: %s
- Question %d: Create a clear question with exactly 4 options (A, B, C, D)
- Only ONE correct answer
- Include a brief explanation

Output ONLY this JSON structure:
{
  "question_number": %d,
  "question": "Your question here?",
  "options": {"A": "Option A", "B": "Option B", "C": "Option C", "D": "Option D"},
  "correct_answer": "A",
  "explanation": "Brief explanation why this is correct."
}

Respond with ONLY the JSON:`, contextText, difficulty, questionNum, questionNum)
}

func buildQAPrompt(contextText string, questionNum int, difficulty string) string {
	return fmt.Sprintf(`Based on this content, generate ONE question-answer pair as valid JSON.

CONTENT:
%s

INSTRUCTION:
- Difficulty: %s
- Question %d: Create a thoughtful question with a detailed answer
- Base on content only

Output ONLY this JSON structure:
{
  "question_number": %d,
  "question": "Your question here?",
  "answer": "Detailed answer based on content."
}

Respond with ONLY the JSON:`, contextText, difficulty, questionNum, questionNum)
}
