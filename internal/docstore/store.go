// Package docstore keeps uploaded documents and their retrieval sessions in
// memory, with TTL-based expiry so abandoned uploads do not accumulate.
package docstore

import (
	"sort"
	"sync"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/rag"
)

// IndexState describes whether a document's retrieval index is usable.
type IndexState string

const (
	// IndexReady means the session was built and quizzes can be generated.
	IndexReady IndexState = "ready"
	// IndexDegraded means chunking succeeded but embedding or indexing
	// failed; the document is browsable but cannot serve quizzes.
	IndexDegraded IndexState = "degraded"
)

// Document is one processed upload. Session is nil when IndexState is
// degraded; IndexError then holds the reason.
type Document struct {
	ID         string          `json:"doc_id"`
	Filename   string          `json:"filename"`
	Format     string          `json:"format"`
	Title      string          `json:"title,omitempty"`
	UploadedAt time.Time       `json:"uploaded_at"`
	WordCount  int             `json:"word_count"`
	CharCount  int             `json:"char_count"`
	ChunkStats chunker.Stats   `json:"chunk_stats"`
	IndexState IndexState      `json:"index_state"`
	IndexError string          `json:"index_error,omitempty"`
	Chunks     []chunker.Chunk `json:"-"`
	Session    *rag.Session    `json:"-"`
}

// Store is the document registry the API layer works against.
type Store interface {
	Put(doc *Document)
	Get(id string) (*Document, bool)
	Delete(id string) bool
	List() []*Document
}

// MemoryStore is a mutex-guarded in-memory Store with per-document TTL.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*entry
	ttl  time.Duration
}

type entry struct {
	doc      *Document
	expireAt time.Time
}

// NewMemoryStore creates a store whose documents expire ttl after their
// last Put. A non-positive ttl disables expiry.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		docs: make(map[string]*entry),
		ttl:  ttl,
	}
}

// Put inserts or replaces a document and resets its expiry clock.
func (s *MemoryStore) Put(doc *Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &entry{doc: doc}
	if s.ttl > 0 {
		e.expireAt = time.Now().Add(s.ttl)
	}
	s.docs[doc.ID] = e
}

// Get returns the document if present and not expired.
func (s *MemoryStore) Get(id string) (*Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.docs[id]
	if !ok || e.expired(time.Now()) {
		return nil, false
	}
	return e.doc, true
}

// Delete removes the document and reports whether it was present.
func (s *MemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.docs[id]
	if !ok || e.expired(time.Now()) {
		delete(s.docs, id)
		return false
	}
	delete(s.docs, id)
	return true
}

// List returns live documents, newest upload first.
func (s *MemoryStore) List() []*Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := time.Now()
	out := make([]*Document, 0, len(s.docs))
	for _, e := range s.docs {
		if e.expired(now) {
			continue
		}
		out = append(out, e.doc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out
}

// Cleanup drops expired documents and returns how many were removed. Meant
// to run on a ticker from the server process.
func (s *MemoryStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	removed := 0
	for id, e := range s.docs {
		if e.expired(now) {
			delete(s.docs, id)
			removed++
		}
	}
	return removed
}

func (e *entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && now.After(e.expireAt)
}
