package extractor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// CSVExtractor handles CSV files by rendering rows as labeled lines.
type CSVExtractor struct{}

func (e *CSVExtractor) Extract(r io.Reader, filename string) (*Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	doc := &Document{
		Title:  titleFromFilename(filename),
		Format: "csv",
	}
	if len(records) == 0 {
		return finalize(doc), nil
	}

	// First row is headers; each data row becomes one "header: cell" line.
	headers := records[0]
	var paragraphs []string
	for _, row := range records[1:] {
		var line strings.Builder
		for j, cell := range row {
			if j > 0 {
				line.WriteString(", ")
			}
			if j < len(headers) {
				line.WriteString(headers[j] + ": " + cell)
			} else {
				line.WriteString(cell)
			}
		}
		paragraphs = append(paragraphs, line.String())
	}

	doc.Text = joinParagraphs(paragraphs)
	doc.LineCount = len(records)
	return finalize(doc), nil
}
