package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/rag"
)

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.store.List()
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(docs),
		"documents": docs,
	})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.store.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	resp := map[string]any{
		"document": doc,
	}
	if doc.Session != nil {
		resp["index_stats"] = doc.Session.Stats()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !s.store.Delete(docID) {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"doc_id": docID,
		"status": "deleted",
	})
}

// handleSaveSnapshot persists a document's index and chunks to disk so the
// session survives restarts.
func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	doc, ok := s.store.Get(docID)
	if !ok {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	if doc.Session == nil {
		jsonError(w, "document index is degraded, nothing to snapshot", http.StatusConflict)
		return
	}

	info := rag.DocInfo{
		Filename:  doc.Filename,
		Format:    doc.Format,
		Title:     doc.Title,
		WordCount: doc.WordCount,
		CharCount: doc.CharCount,
	}
	if err := doc.Session.Save(s.cfg.SnapshotDir, info); err != nil {
		s.log.Error("snapshot save failed", "doc_id", docID, "error", err)
		jsonError(w, "snapshot failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"doc_id": docID,
		"status": "saved",
	})
}

// handleRestoreSnapshot rebuilds an in-memory document from a snapshot.
// The snapshot must match the running embedding model; a mismatch is a
// conflict, not a server fault.
func (s *Server) handleRestoreSnapshot(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")
	if !rag.SnapshotExists(s.cfg.SnapshotDir, docID) {
		jsonError(w, "snapshot not found", http.StatusNotFound)
		return
	}

	session, info, err := rag.Load(r.Context(), s.embed, s.cfg.SnapshotDir, docID)
	if err != nil {
		s.log.Error("snapshot restore failed", "doc_id", docID, "error", err)
		jsonError(w, "restore failed: "+err.Error(), http.StatusConflict)
		return
	}

	stats := session.Stats()
	doc := &docstore.Document{
		ID:         docID,
		Filename:   info.Filename,
		Format:     info.Format,
		Title:      info.Title,
		UploadedAt: session.CreatedAt,
		WordCount:  info.WordCount,
		CharCount:  info.CharCount,
		ChunkStats: chunker.ComputeStats(session.Chunks),
		Chunks:     session.Chunks,
		Session:    session,
		IndexState: docstore.IndexReady,
	}
	s.store.Put(doc)

	writeJSON(w, http.StatusOK, map[string]any{
		"doc_id":      docID,
		"status":      "restored",
		"index_stats": stats,
	})
}
