package rag

import (
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pavan-kumar-z/ai-quiz-generator/internal/chunker"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/embedding"
	"github.com/pavan-kumar-z/ai-quiz-generator/internal/vecindex"
)

const snapshotVersion = 1

// DocInfo is the upload metadata carried alongside the index so a restored
// document keeps its identity instead of degenerating to bare ids.
type DocInfo struct {
	Filename  string
	Format    string
	Title     string
	WordCount int
	CharCount int
}

// metaFile is the sidecar written next to the index. Chunks travel with the
// vectors because index IDs are positions into this exact slice.
type metaFile struct {
	Version    int
	DocID      string
	ModelName  string
	Dimensions int
	CreatedAt  time.Time
	Info       DocInfo
	Chunks     []chunker.Chunk
}

func indexPath(dir, docID string) string { return filepath.Join(dir, docID+".index") }
func metaPath(dir, docID string) string  { return filepath.Join(dir, docID+".meta") }

// Save persists the session as a <docID>.index / <docID>.meta pair under
// dir. Each file is written to a temp path and renamed into place, so a
// crash mid-write never leaves a truncated snapshot under the final name.
func (s *Session) Save(dir string, info DocInfo) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("rag: snapshot dir: %w", err)
	}

	err := writeAtomic(indexPath(dir, s.DocID), func(f *os.File) error {
		return s.index.Encode(f)
	})
	if err != nil {
		return fmt.Errorf("rag: save index for %s: %w", s.DocID, err)
	}

	meta := metaFile{
		Version:    snapshotVersion,
		DocID:      s.DocID,
		ModelName:  s.ModelName,
		Dimensions: s.index.Dimensions(),
		CreatedAt:  s.CreatedAt,
		Info:       info,
		Chunks:     s.Chunks,
	}
	err = writeAtomic(metaPath(dir, s.DocID), func(f *os.File) error {
		return gob.NewEncoder(f).Encode(meta)
	})
	if err != nil {
		return fmt.Errorf("rag: save metadata for %s: %w", s.DocID, err)
	}
	return nil
}

// Load restores a session saved with Save, along with the document
// metadata stored beside it. The snapshot must match the current embedding
// provider's model and dimensions: vectors produced by a different model
// are not comparable, so a mismatch is an error rather than a silently
// wrong index.
func Load(ctx context.Context, svc *embedding.Service, dir, docID string) (*Session, DocInfo, error) {
	provider, err := svc.Ready(ctx)
	if err != nil {
		return nil, DocInfo{}, err
	}

	mf, err := os.Open(metaPath(dir, docID))
	if err != nil {
		return nil, DocInfo{}, fmt.Errorf("rag: open metadata for %s: %w", docID, err)
	}
	defer mf.Close()

	var meta metaFile
	if err := gob.NewDecoder(mf).Decode(&meta); err != nil {
		return nil, DocInfo{}, fmt.Errorf("rag: decode metadata for %s: %w", docID, err)
	}
	if meta.Version != snapshotVersion {
		return nil, DocInfo{}, fmt.Errorf("rag: snapshot %s has version %d, want %d", docID, meta.Version, snapshotVersion)
	}
	if meta.ModelName != provider.ModelName() {
		return nil, DocInfo{}, fmt.Errorf("rag: snapshot %s built with model %q, provider uses %q", docID, meta.ModelName, provider.ModelName())
	}
	if meta.Dimensions != provider.Dimensions() {
		return nil, DocInfo{}, fmt.Errorf("rag: snapshot %s has %d dimensions, provider uses %d", docID, meta.Dimensions, provider.Dimensions())
	}

	xf, err := os.Open(indexPath(dir, docID))
	if err != nil {
		return nil, DocInfo{}, fmt.Errorf("rag: open index for %s: %w", docID, err)
	}
	defer xf.Close()

	index, err := vecindex.Decode(xf)
	if err != nil {
		return nil, DocInfo{}, fmt.Errorf("rag: decode index for %s: %w", docID, err)
	}
	if index.Size() != len(meta.Chunks) {
		return nil, DocInfo{}, fmt.Errorf("rag: snapshot %s has %d vectors but %d chunks", docID, index.Size(), len(meta.Chunks))
	}
	if index.Dimensions() != meta.Dimensions {
		return nil, DocInfo{}, fmt.Errorf("rag: snapshot %s index dimension %d does not match metadata %d", docID, index.Dimensions(), meta.Dimensions)
	}

	sess := &Session{
		DocID:     meta.DocID,
		Chunks:    meta.Chunks,
		ModelName: meta.ModelName,
		CreatedAt: meta.CreatedAt,
		index:     index,
		provider:  provider,
	}
	return sess, meta.Info, nil
}

// SnapshotExists reports whether both snapshot artifacts are present.
func SnapshotExists(dir, docID string) bool {
	if _, err := os.Stat(indexPath(dir, docID)); err != nil {
		return false
	}
	_, err := os.Stat(metaPath(dir, docID))
	return err == nil
}

func writeAtomic(path string, write func(*os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
