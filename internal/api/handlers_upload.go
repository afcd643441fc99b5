package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/docstore"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/extractor"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/rag"
)

// handleUpload runs the full ingestion pipeline synchronously: extract
// text, chunk it, embed and index the chunks, and register the document.
// Embedding failure degrades the document rather than rejecting the
// upload; the text and chunk stats are still browsable.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !extractor.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	ext, err := extractor.ForFile(filename, extractor.Options{
		PDFFallbackPdftotext: s.cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := ext.Extract(file, filename)
	if err != nil {
		jsonError(w, "extraction failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(doc.Text) == "" {
		jsonError(w, "document contains no extractable text", http.StatusBadRequest)
		return
	}

	chunkCfg := chunker.DefaultConfig()
	chunkCfg.ChunkSize = s.cfg.ChunkSize
	chunkCfg.Overlap = s.cfg.ChunkOverlap
	if v := r.FormValue("chunk_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			chunkCfg.ChunkSize = n
		}
	}
	if v := r.FormValue("overlap"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			chunkCfg.Overlap = n
		}
	}

	docID := newDocID(filename)
	chunks := chunker.Split(doc.Text, chunkCfg, map[string]string{
		"doc_id":   docID,
		"filename": filename,
	})
	if err := chunker.Validate(chunks, chunkCfg); err != nil {
		jsonError(w, "chunking failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	record := &docstore.Document{
		ID:         docID,
		Filename:   filename,
		Format:     doc.Format,
		Title:      doc.Title,
		UploadedAt: time.Now().UTC(),
		WordCount:  doc.WordCount,
		CharCount:  doc.CharCount,
		ChunkStats: chunker.ComputeStats(chunks),
		Chunks:     chunks,
		IndexState: docstore.IndexReady,
	}

	session, err := rag.Build(r.Context(), s.embed, docID, chunks, s.log)
	if err != nil {
		s.log.Error("index build failed, storing degraded document",
			"doc_id", docID,
			"error", err,
		)
		record.IndexState = docstore.IndexDegraded
		record.IndexError = err.Error()
	} else {
		record.Session = session
	}
	s.store.Put(record)

	resp := map[string]any{
		"doc_id":      docID,
		"filename":    filename,
		"format":      doc.Format,
		"word_count":  doc.WordCount,
		"char_count":  doc.CharCount,
		"chunk_stats": record.ChunkStats,
		"index_state": record.IndexState,
	}
	if record.Title != "" {
		resp["title"] = record.Title
	}
	if record.Session != nil {
		resp["index_stats"] = record.Session.Stats()
	}
	if record.IndexError != "" {
		resp["index_error"] = record.IndexError
	}
	writeJSON(w, http.StatusCreated, resp)
}

var docIDCleanRe = regexp.MustCompile(`[^a-z0-9]+`)

// newDocID derives a stable-looking, filesystem-safe identifier from the
// upload filename plus a timestamp for uniqueness.
func newDocID(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	stem = docIDCleanRe.ReplaceAllString(strings.ToLower(stem), "-")
	stem = strings.Trim(stem, "-")
	if stem == "" {
		stem = "doc"
	}
	if len(stem) > 40 {
		stem = stem[:40]
	}
	return fmt.Sprintf("%s-%x", stem, time.Now().UnixNano())
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		jsonError(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}
