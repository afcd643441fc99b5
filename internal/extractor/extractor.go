// Package extractor converts uploaded document bytes into plain text plus
// basic metadata. Downstream chunking and retrieval only ever see the
// cleaned Text field.
package extractor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Document is the extraction result: whitespace-normalized text and
// format-specific counts.
type Document struct {
	Text   string `json:"-"`
	Title  string `json:"title"`
	Format string `json:"format"`

	WordCount int `json:"word_count"`
	CharCount int `json:"char_count"`

	// Format-specific, zero when not applicable.
	PageCount      int `json:"page_count,omitempty"`
	ParagraphCount int `json:"paragraph_count,omitempty"`
	LineCount      int `json:"line_count,omitempty"`
}

// Extractor converts raw document bytes into a Document.
type Extractor interface {
	Extract(r io.Reader, filename string) (*Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// Options configures format-specific extractor behavior.
type Options struct {
	// PDFFallbackPdftotext retries failed PDF extractions through the
	// pdftotext binary when it is installed.
	PDFFallbackPdftotext bool
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string, opts Options) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".csv":
		return &CSVExtractor{}, nil
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{FallbackPdftotext: opts.PDFFallbackPdftotext}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// joinParagraphs assembles cleaned paragraphs into the document text.
func joinParagraphs(paragraphs []string) string {
	var kept []string
	for _, p := range paragraphs {
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// finalize fills in the counts derived from the extracted text.
func finalize(doc *Document) *Document {
	doc.WordCount = len(strings.Fields(doc.Text))
	doc.CharCount = utf8.RuneCountInString(doc.Text)
	return doc
}

// titleFromFilename strips the extension to get a display title.
func titleFromFilename(filename string) string {
	return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
}
