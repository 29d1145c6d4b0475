package extract

import (
	"context"
	"os"
	"strings"
)

// TextFileSource reads a pre-extracted text document, treating form
// feeds as page boundaries. It is the plain-file counterpart to a PDF
// page source and carries no rasters, so OCR never triggers.
type TextFileSource struct {
	Path string
}

// Pages implements PageSource.
func (s TextFileSource) Pages(ctx context.Context, limit int) ([]Page, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, err
	}
	chunks := strings.Split(string(data), "\f")
	if len(chunks) > limit {
		chunks = chunks[:limit]
	}
	pages := make([]Page, len(chunks))
	for i, c := range chunks {
		pages[i] = Page{Number: i + 1, Text: c}
	}
	return pages, nil
}
