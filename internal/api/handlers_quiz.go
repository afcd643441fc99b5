package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/quiz"
)

// topicQuery drives retrieval for quiz generation. A generic probe works
// better than the quiz parameters here: it pulls the chunks closest to the
// document's overall subject matter, which is what questions should cover.
const topicQuery = "main topics and key concepts of the document"

type quizRequest struct {
	DocID        string `json:"doc_id"`
	QuizMode     string `json:"quiz_mode"`
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
}

var validDifficulties = map[string]bool{
	"easy":   true,
	"medium": true,
	"hard":   true,
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.DocID == "" {
		jsonError(w, "doc_id is required", http.StatusBadRequest)
		return
	}
	mode, err := quiz.ParseMode(req.QuizMode)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.NumQuestions < s.cfg.MinQuestions || req.NumQuestions > s.cfg.MaxQuestions {
		jsonError(w, fmt.Sprintf("num_questions must be between %d and %d", s.cfg.MinQuestions, s.cfg.MaxQuestions), http.StatusBadRequest)
		return
	}
	difficulty := strings.ToLower(strings.TrimSpace(req.Difficulty))
	if difficulty == "" {
		difficulty = "medium"
	}
	if !validDifficulties[difficulty] {
		jsonError(w, fmt.Sprintf("difficulty %q must be easy, medium, or hard", req.Difficulty), http.StatusBadRequest)
		return
	}

	doc, ok := s.store.Get(req.DocID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.IndexState != docstore.IndexReady || doc.Session == nil {
		jsonError(w, "document index is degraded: "+doc.IndexError, http.StatusServiceUnavailable)
		return
	}

	// One cheap probe instead of burning the generation timeout per
	// question when the LLM server is down.
	if err := s.llama.TestConnection(r.Context()); err != nil {
		jsonError(w, "quiz model unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	contextText, retrieved, err := doc.Session.RetrieveContext(r.Context(), topicQuery, s.cfg.RetrieveK, s.cfg.MaxContextTokens)
	if err != nil {
		jsonError(w, "retrieval failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}
	// An empty packed context is a valid retrieval outcome, but generation
	// has nothing to ground on, so the request is rejected up front.
	if contextText == "" {
		jsonError(w, fmt.Sprintf("context budget of %d tokens is too small to fit any document chunk", s.cfg.MaxContextTokens), http.StatusBadRequest)
		return
	}

	result, err := s.gen.Generate(r.Context(), contextText, mode, req.NumQuestions, difficulty)
	if err != nil {
		jsonError(w, "quiz generation failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":          req.DocID,
		"quiz":            result,
		"chunks_used":     len(retrieved),
		"retrieval_query": topicQuery,
		"generated_at":    time.Now().UTC().Format(time.RFC3339),
	})
}
