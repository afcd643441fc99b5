package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/api"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/config"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/embedding"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/quiz"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// .env is optional; real deployments set the environment directly.
	godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	provider := embedding.NewOllamaProvider(cfg.OllamaURL, cfg.EmbedModel, cfg.EmbedDimensions)
	embed := embedding.NewService(provider, log)
	llama := quiz.NewClient(cfg.LlamaEndpoint, cfg.LlamaModel, cfg.GenTimeout)

	// Document registry with background expiry.
	store := docstore.NewMemoryStore(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := store.Cleanup(); n > 0 {
					log.Info("expired documents removed", "count", n)
				}
			}
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(store, embed, llama, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.GenTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llama.Close()
	}()

	log.Info("starting quiz generator",
		"port", cfg.Port,
		"embed_model", cfg.EmbedModel,
		"llm_model", cfg.LlamaModel,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
