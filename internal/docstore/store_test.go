package docstore

import (
	"fmt"
	"testing"
	"time"
)

func TestMemoryStore_PutGetDelete(t *testing.T) {
	s := NewMemoryStore(0)

	doc := &Document{ID: "doc-1", Filename: "notes.txt", IndexState: IndexReady}
	s.Put(doc)

	got, ok := s.Get("doc-1")
	if !ok {
		t.Fatal("expected document to be present")
	}
	if got.Filename != "notes.txt" {
		t.Errorf("filename: got %q", got.Filename)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("unexpected hit for missing id")
	}

	if !s.Delete("doc-1") {
		t.Error("delete should report the document existed")
	}
	if s.Delete("doc-1") {
		t.Error("second delete should report absence")
	}
	if _, ok := s.Get("doc-1"); ok {
		t.Error("document still present after delete")
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	s := NewMemoryStore(0)
	base := time.Now()
	for i := range 3 {
		s.Put(&Document{
			ID:         fmt.Sprintf("doc-%d", i),
			UploadedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	docs := s.List()
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}
	for i := 1; i < len(docs); i++ {
		if docs[i].UploadedAt.After(docs[i-1].UploadedAt) {
			t.Error("list not ordered newest first")
		}
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	s := NewMemoryStore(10 * time.Millisecond)
	s.Put(&Document{ID: "doc-1"})

	if _, ok := s.Get("doc-1"); !ok {
		t.Fatal("document should be live immediately after Put")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := s.Get("doc-1"); ok {
		t.Error("document should have expired")
	}
	if len(s.List()) != 0 {
		t.Error("expired documents should not be listed")
	}
	if removed := s.Cleanup(); removed != 1 {
		t.Errorf("cleanup removed %d, want 1", removed)
	}
	if removed := s.Cleanup(); removed != 0 {
		t.Errorf("second cleanup removed %d, want 0", removed)
	}
}
