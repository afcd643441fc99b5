package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// Question is one quiz item. MCQ answers fill Options, CorrectAnswer, and
// Explanation; QA answers fill Answer. Fallback marks items substituted
// after generation failed.
type Question struct {
	QuestionNumber int               `json:"question_number"`
	Question       string            `json:"question"`
	Options        map[string]string `json:"options,omitempty"`
	CorrectAnswer  string            `json:"correct_answer,omitempty"`
	Explanation    string            `json:"explanation,omitempty"`
	Answer         string            `json:"answer,omitempty"`
	Fallback       bool              `json:"fallback,omitempty"`
}

var (
	jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

	mcqKeys = []string{"question_number", "question", "options", "correct_answer", "explanation"}
	qaKeys  = []string{"question_number", "question", "answer"}
)

// parseQuestion extracts and validates a question object from raw model
// output. The widest {...} span is taken so chatter around the JSON is
// tolerated.
func parseQuestion(raw string, mode Mode) (Question, error) {
	block := jsonBlockRe.FindString(raw)
	if block == "" {
		return Question{}, fmt.Errorf("no JSON object in response")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return Question{}, fmt.Errorf("parse question json: %w", err)
	}

	required := qaKeys
	if mode == ModeMCQ {
		required = mcqKeys
	}
	for _, key := range required {
		if _, ok := fields[key]; !ok {
			return Question{}, fmt.Errorf("missing key %q", key)
		}
	}

	var q Question
	if err := json.Unmarshal([]byte(block), &q); err != nil {
		return Question{}, fmt.Errorf("decode question: %w", err)
	}

	if mode == ModeMCQ {
		if err := validateOptions(q); err != nil {
			return Question{}, err
		}
	}
	return q, nil
}

func validateOptions(q Question) error {
	if len(q.Options) != 4 {
		return fmt.Errorf("expected 4 options, got %d", len(q.Options))
	}
	for _, key := range []string{"A", "B", "C", "D"} {
		if _, ok := q.Options[key]; !ok {
			return fmt.Errorf("options missing key %q", key)
		}
	}
	switch q.CorrectAnswer {
	case "A", "B", "C", "D":
		return nil
	default:
		return fmt.Errorf("correct_answer %q is not one of A-D", q.CorrectAnswer)
	}
}
