// Package api exposes the quiz generation service over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/config"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/embedding"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/quiz"
)

// Server is the HTTP API server for the quiz generator.
type Server struct {
	router chi.Router
	store  docstore.Store
	embed  *embedding.Service
	llama  *quiz.Client
	gen    *quiz.Generator
	log    *slog.Logger
	cfg    config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(store docstore.Store, embed *embedding.Service, llama *quiz.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store: store,
		embed: embed,
		llama: llama,
		gen:   quiz.NewGenerator(llama, log),
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/", s.handleInfo)
	r.Get("/health", s.handleHealth)

	// API endpoints, behind auth when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/quiz", s.handleGenerateQuiz)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{docID}", s.handleGetDocument)
		r.Delete("/api/documents/{docID}", s.handleDeleteDocument)

		r.Post("/api/documents/{docID}/snapshot", s.handleSaveSnapshot)
		r.Post("/api/snapshots/{docID}/restore", s.handleRestoreSnapshot)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":         "ai-quiz-generator",
		"embedding_model": s.embed.ModelName(),
		"llm_model":       s.llama.Model(),
		"endpoints": []string{
			"POST /api/upload",
			"POST /api/quiz",
			"GET /api/documents",
			"GET /api/stats/llm",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
