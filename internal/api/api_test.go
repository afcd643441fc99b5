package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/config"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/embedding"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/quiz"
)

// hashProvider derives deterministic unit vectors from text content.
type hashProvider struct {
	pingErr error
}

func (p *hashProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = p.vector(t)
	}
	return out, nil
}

func (p *hashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return p.vector(text), nil
}

func (p *hashProvider) vector(text string) []float32 {
	vec := make([]float32, 4)
	for i := range vec {
		h := fnv.New32a()
		fmt.Fprintf(h, "%d:%s", i, text)
		vec[i] = float32(h.Sum32()%1000) + 1
	}
	embedding.Normalize(vec)
	return vec
}

func (p *hashProvider) Ping(ctx context.Context) error { return p.pingErr }
func (p *hashProvider) ModelName() string              { return "hash-model" }
func (p *hashProvider) Dimensions() int                { return 4 }

// newLlamaBackend serves schema-valid MCQ and QA completions.
func newLlamaBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		prompt := req.Messages[len(req.Messages)-1].Content
		content := `{"question_number": 1, "question": "Q?", "options": {"A":"a","B":"b","C":"c","D":"d"}, "correct_answer": "A", "explanation": "E."}`
		if strings.Contains(prompt, "question-answer pair") {
			content = `{"question_number": 1, "question": "Q?", "answer": "A detailed answer."}`
		}
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(body)
	}))
}

func testConfig(t *testing.T, llamaURL string) config.Config {
	t.Helper()
	cfg := config.Load()
	cfg.LlamaEndpoint = llamaURL + "/v1/chat/completions"
	cfg.SnapshotDir = t.TempDir()
	cfg.ChunkSize = 100
	cfg.ChunkOverlap = 20
	return cfg
}

func newTestServer(t *testing.T, provider embedding.Provider, llamaURL string) *Server {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := testConfig(t, llamaURL)
	svc := embedding.NewService(provider, log)
	client := quiz.NewClient(cfg.LlamaEndpoint, cfg.LlamaModel, 10*time.Second)
	return NewServer(docstore.NewMemoryStore(0), svc, client, log, cfg)
}

func uploadDocument(t *testing.T, srv *Server, filename, content string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fw.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("upload status %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	docID, _ := resp["doc_id"].(string)
	if docID == "" {
		t.Fatal("upload response missing doc_id")
	}
	return docID
}

func docText() string {
	var sb strings.Builder
	for i := range 20 {
		fmt.Fprintf(&sb, "Paragraph %d explains concept %d in reasonable detail with several full sentences. ", i, i)
		sb.WriteString("It elaborates on the implications and gives one example.\n\n")
	}
	return sb.String()
}

func TestUploadAndQuiz_MCQ(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	docID := uploadDocument(t, srv, "notes.txt", docText())

	body, _ := json.Marshal(map[string]any{
		"doc_id":        docID,
		"quiz_mode":     "mcq",
		"num_questions": 3,
		"difficulty":    "easy",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("quiz status %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Quiz quiz.Result `json:"quiz"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode quiz response: %v", err)
	}
	if resp.Quiz.NumQuestions != 3 || len(resp.Quiz.Questions) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(resp.Quiz.Questions))
	}
	for i, q := range resp.Quiz.Questions {
		if q.QuestionNumber != i+1 {
			t.Errorf("question %d numbered %d", i, q.QuestionNumber)
		}
		if len(q.Options) != 4 {
			t.Errorf("question %d has %d options", i, len(q.Options))
		}
	}
}

func TestQuiz_Validation(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)
	docID := uploadDocument(t, srv, "notes.txt", docText())

	cases := []struct {
		name string
		req  map[string]any
		want int
	}{
		{"missing doc", map[string]any{"doc_id": "nope", "quiz_mode": "mcq", "num_questions": 2}, http.StatusNotFound},
		{"bad mode", map[string]any{"doc_id": docID, "quiz_mode": "essay", "num_questions": 2}, http.StatusBadRequest},
		{"zero questions", map[string]any{"doc_id": docID, "quiz_mode": "mcq", "num_questions": 0}, http.StatusBadRequest},
		{"too many questions", map[string]any{"doc_id": docID, "quiz_mode": "mcq", "num_questions": 100}, http.StatusBadRequest},
		{"bad difficulty", map[string]any{"doc_id": docID, "quiz_mode": "mcq", "num_questions": 2, "difficulty": "impossible"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		body, _ := json.Marshal(tc.req)
		req := httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Errorf("%s: status %d, want %d", tc.name, rec.Code, tc.want)
		}
	}
}

func TestUpload_Rejections(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "program.exe")
	fw.Write([]byte("binary"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unsupported extension: status %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("no file here"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed form: status %d, want 400", rec.Code)
	}
}

func TestUpload_DegradedWhenEmbeddingDown(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{pingErr: fmt.Errorf("connection refused")}, llama.URL)

	docID := uploadDocument(t, srv, "notes.txt", docText())

	req := httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get document: status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), string(docstore.IndexDegraded)) {
		t.Error("expected degraded index state in document")
	}

	// A degraded document cannot serve quizzes.
	body, _ := json.Marshal(map[string]any{
		"doc_id":        docID,
		"quiz_mode":     "qa",
		"num_questions": 1,
	})
	req = httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("quiz on degraded doc: status %d, want 503", rec.Code)
	}
}

func TestQuiz_LLMServerDown(t *testing.T) {
	llama := newLlamaBackend(t)
	srv := newTestServer(t, &hashProvider{}, llama.URL)
	docID := uploadDocument(t, srv, "notes.txt", docText())
	llama.Close()

	body, _ := json.Marshal(map[string]any{
		"doc_id":        docID,
		"quiz_mode":     "mcq",
		"num_questions": 2,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status %d, want 503 when llama server is down", rec.Code)
	}
}

func TestQuiz_ContextBudgetTooSmall(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()

	log := slog.New(slog.DiscardHandler)
	cfg := testConfig(t, llama.URL)
	// No chunk fits in a one-token budget, so packing yields nothing.
	cfg.MaxContextTokens = 1
	svc := embedding.NewService(&hashProvider{}, log)
	client := quiz.NewClient(cfg.LlamaEndpoint, cfg.LlamaModel, 10*time.Second)
	srv := NewServer(docstore.NewMemoryStore(0), svc, client, log, cfg)
	docID := uploadDocument(t, srv, "notes.txt", docText())

	body, _ := json.Marshal(map[string]any{
		"doc_id":        docID,
		"quiz_mode":     "mcq",
		"num_questions": 2,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400 when no chunk fits the budget: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "context budget") {
		t.Errorf("error should name the context budget, got: %s", rec.Body.String())
	}
}

func TestDocumentLifecycle(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	docID := uploadDocument(t, srv, "notes.txt", docText())

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), docID) {
		t.Errorf("list: status %d body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/documents/"+docID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("delete: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", rec.Code)
	}
}

func TestSnapshotSaveAndRestore(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	docID := uploadDocument(t, srv, "notes.txt", docText())

	req := httptest.NewRequest(http.MethodPost, "/api/documents/"+docID+"/snapshot", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: status %d: %s", rec.Code, rec.Body.String())
	}

	// Drop the in-memory record, then restore from disk.
	req = httptest.NewRequest(http.MethodDelete, "/api/documents/"+docID, nil)
	srv.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodPost, "/api/snapshots/"+docID+"/restore", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("restore: status %d: %s", rec.Code, rec.Body.String())
	}

	// The restored record keeps the upload metadata, not just the id.
	req = httptest.NewRequest(http.MethodGet, "/api/documents/"+docID, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	var restored struct {
		Document docstore.Document `json:"document"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&restored); err != nil {
		t.Fatalf("decode restored document: %v", err)
	}
	if restored.Document.Filename != "notes.txt" {
		t.Errorf("restored filename: got %q, want notes.txt", restored.Document.Filename)
	}
	if restored.Document.Format != "txt" {
		t.Errorf("restored format: got %q, want txt", restored.Document.Format)
	}
	if restored.Document.WordCount == 0 {
		t.Error("restored word count should be preserved")
	}

	// The restored document serves quizzes again.
	body, _ := json.Marshal(map[string]any{
		"doc_id":        docID,
		"quiz_mode":     "qa",
		"num_questions": 1,
	})
	req = httptest.NewRequest(http.MethodPost, "/api/quiz", bytes.NewReader(body))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("quiz after restore: status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRestoreSnapshot_Missing(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/snapshots/no-such-doc/restore", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()

	log := slog.New(slog.DiscardHandler)
	cfg := testConfig(t, llama.URL)
	cfg.APIKey = "secret-key"
	svc := embedding.NewService(&hashProvider{}, log)
	client := quiz.NewClient(cfg.LlamaEndpoint, cfg.LlamaModel, 10*time.Second)
	srv := NewServer(docstore.NewMemoryStore(0), svc, client, log, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: status %d, want 401", rec.Code)
	}
	// Rejections use the same JSON error shape as the handlers.
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("no token: content type %q, want application/json", ct)
	}
	var authErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&authErr); err != nil {
		t.Fatalf("decode auth error body: %v", err)
	}
	if authErr.Error != "missing authorization" {
		t.Errorf("no token: error %q, want %q", authErr.Error, "missing authorization")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer wrong-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status %d, want 401", rec.Code)
	}
	authErr.Error = ""
	if err := json.NewDecoder(rec.Body).Decode(&authErr); err != nil {
		t.Fatalf("decode auth error body: %v", err)
	}
	if authErr.Error != "invalid api key" {
		t.Errorf("wrong token: error %q, want %q", authErr.Error, "invalid api key")
	}

	// An empty bearer token is not a credential.
	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer ")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("empty token: status %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/documents", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid token: status %d, want 200", rec.Code)
	}

	// Health stays public.
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: status %d, want 200", rec.Code)
	}
}

func TestHealthAndInfo(t *testing.T) {
	llama := newLlamaBackend(t)
	defer llama.Close()
	srv := newTestServer(t, &hashProvider{}, llama.URL)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("health: status %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ai-quiz-generator") {
		t.Errorf("info: status %d body %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/stats/llm", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("llm stats: status %d", rec.Code)
	}
}
