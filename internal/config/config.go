package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Optional bearer token; empty disables auth.
	APIKey string

	// Embedding provider (Ollama)
	OllamaURL       string
	EmbedModel      string
	EmbedDimensions int

	// Quiz generation (OpenAI-compatible local server)
	LlamaEndpoint string
	LlamaModel    string
	GenTimeout    time.Duration

	// Upload limits
	MaxUploadBytes int64

	// Chunking defaults
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	RetrieveK        int
	MaxContextTokens int

	// Quiz bounds
	MinQuestions int
	MaxQuestions int

	// Document state
	SessionTTL  time.Duration
	SnapshotDir string

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("QUIZGEN_API_KEY"),

		OllamaURL:       envOr("OLLAMA_URL", "http://localhost:11434"),
		EmbedModel:      envOr("EMBED_MODEL", "all-minilm:l6-v2"),
		EmbedDimensions: envInt("EMBED_DIMENSIONS", 384),

		LlamaEndpoint: envOr("LLAMA_ENDPOINT", "http://localhost:8000/v1/chat/completions"),
		LlamaModel:    envOr("LLAMA_MODEL", "local-llama"),
		GenTimeout:    envDuration("GEN_TIMEOUT", 120*time.Second),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		ChunkSize:    envInt("CHUNK_SIZE", 500),
		ChunkOverlap: envInt("CHUNK_OVERLAP", 100),

		RetrieveK:        envInt("RETRIEVE_K", 5),
		MaxContextTokens: envInt("MAX_CONTEXT_TOKENS", 1500),

		MinQuestions: 1,
		MaxQuestions: envInt("MAX_QUESTIONS", 20),

		SessionTTL:  envDuration("SESSION_TTL", 24*time.Hour),
		SnapshotDir: envOr("SNAPSHOT_DIR", "snapshots"),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.EmbedDimensions <= 0 {
		cfg.EmbedDimensions = 384
	}
	if cfg.GenTimeout <= 0 {
		cfg.GenTimeout = 120 * time.Second
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10485760
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = 100
	}
	if cfg.RetrieveK <= 0 {
		cfg.RetrieveK = 5
	}
	if cfg.MaxContextTokens <= 0 {
		cfg.MaxContextTokens = 1500
	}
	if cfg.MaxQuestions <= 0 {
		cfg.MaxQuestions = 20
	}

	return cfg
}

func (c Config) Validate() error {
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be smaller than CHUNK_SIZE (%d)", c.ChunkOverlap, c.ChunkSize)
	}
	if c.MinQuestions < 1 || c.MaxQuestions < c.MinQuestions {
		return fmt.Errorf("invalid question bounds [%d, %d]", c.MinQuestions, c.MaxQuestions)
	}
	if c.SnapshotDir == "" {
		return fmt.Errorf("SNAPSHOT_DIR must not be empty")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
