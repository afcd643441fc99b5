package quiz

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const questionMaxTokens = 800

// Result is a complete generated quiz. NumQuestions always equals
// len(Questions): failed generations are replaced by fallback records, so
// the caller gets exactly the count it asked for.
type Result struct {
	QuizMode     Mode       `json:"quiz_mode"`
	NumQuestions int        `json:"num_questions"`
	Difficulty   string     `json:"difficulty"`
	Questions    []Question `json:"questions"`
}

// Generator drives per-question generation against a Client.
type Generator struct {
	client *Client
	log    *slog.Logger
}

func NewGenerator(client *Client, log *slog.Logger) *Generator {
	return &Generator{client: client, log: log}
}

// Generate produces numQuestions questions over the given context, one
// model call per question. Transient server errors are retried with
// backoff; any question that still fails is replaced by a fallback record
// so the quiz keeps its exact length and numbering.
func (g *Generator) Generate(ctx context.Context, contextText string, mode Mode, numQuestions int, difficulty string) (*Result, error) {
	if numQuestions < 1 {
		return nil, fmt.Errorf("quiz: numQuestions must be at least 1, got %d", numQuestions)
	}
	if contextText == "" {
		return nil, fmt.Errorf("quiz: empty context")
	}

	g.log.Info("generating quiz",
		"mode", mode,
		"questions", numQuestions,
		"difficulty", difficulty,
	)

	questions := make([]Question, 0, numQuestions)
	for i := 1; i <= numQuestions; i++ {
		q, err := g.generateOne(ctx, contextText, mode, i, difficulty)
		if err != nil {
			g.log.Warn("question generation failed, substituting fallback",
				"question", i,
				"error", err,
			)
			q = fallbackQuestion(mode, i)
		}
		// Numbering comes from loop position, never from the model.
		q.QuestionNumber = i
		questions = append(questions, q)
	}

	return &Result{
		QuizMode:     mode,
		NumQuestions: len(questions),
		Difficulty:   difficulty,
		Questions:    questions,
	}, nil
}

func (g *Generator) generateOne(ctx context.Context, contextText string, mode Mode, num int, difficulty string) (Question, error) {
	prompt := BuildPrompt(mode, contextText, num, difficulty)

	var lastErr error
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Question{}, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}

		raw, err := g.client.Complete(ctx, prompt, questionMaxTokens)
		if err != nil {
			lastErr = err
			if IsRetryable(err) {
				continue
			}
			return Question{}, err
		}

		q, err := parseQuestion(raw, mode)
		if err != nil {
			g.log.Warn("unparseable model output",
				"question", num,
				"error", err,
				"raw", truncate(raw, 200),
			)
			lastErr = err
			continue
		}
		return q, nil
	}
	return Question{}, lastErr
}

// fallbackQuestion is the placeholder substituted when generation fails.
// MCQ fallbacks stay schema-valid so clients can render them untouched.
func fallbackQuestion(mode Mode, num int) Question {
	q := Question{
		Question: fmt.Sprintf("Error generating question %d. Please retry.", num),
		Fallback: true,
	}
	if mode == ModeMCQ {
		q.Options = map[string]string{"A": "A", "B": "B", "C": "C", "D": "D"}
		q.CorrectAnswer = "A"
		q.Explanation = "Generation error - please retry."
	} else {
		q.Answer = "Fallback answer - generation error occurred."
	}
	return q
}
