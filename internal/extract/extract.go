// Package extract turns source documents into normalised plain text
// focused on the process-flow sections a proposal needs.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrDocumentUnreadable reports that the source document itself could
// not be opened or parsed. Per-page degradations never raise it.
var ErrDocumentUnreadable = errors.New("source document unreadable")

// DefaultPageLimit caps how deep into a document extraction reads.
// RFQ documents front-load the relevant material.
const DefaultPageLimit = 15

// minUsefulRunes is the threshold below which a page's primary text is
// considered unusable and the OCR fallback is consulted.
const minUsefulRunes = 40

// Page is one page of a source document: its primary text layer and,
// when available, a rendered raster for OCR fallback.
type Page struct {
	Number int
	Text   string
	Image  []byte
}

// PageSource yields the pages of a document up to a limit. A failure
// here means the document itself is unreadable.
type PageSource interface {
	Pages(ctx context.Context, limit int) ([]Page, error)
}

// OCR recognises text from a rendered page image. Implementations are
// optional; without one, sparse pages degrade to empty text.
type OCR interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}

// Extractor runs the full pipeline: page text, OCR fallback,
// normalisation, and process-section isolation.
type Extractor struct {
	ocr       OCR
	pageLimit int
	workers   int
	log       *zap.Logger
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithOCR installs the character-recognition fallback.
func WithOCR(ocr OCR) ExtractorOption {
	return func(e *Extractor) { e.ocr = ocr }
}

// WithPageLimit overrides the page cap.
func WithPageLimit(n int) ExtractorOption {
	return func(e *Extractor) { e.pageLimit = n }
}

// WithLogger attaches a logger.
func WithLogger(log *zap.Logger) ExtractorOption {
	return func(e *Extractor) { e.log = log }
}

// NewExtractor builds an extractor with the default page limit and no
// OCR fallback.
func NewExtractor(opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		pageLimit: DefaultPageLimit,
		workers:   4,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the document and returns the normalised text, focused
// on process-flow sections when any of the known headings are present.
func (e *Extractor) Extract(ctx context.Context, src PageSource) (string, error) {
	pages, err := src.Pages(ctx, e.pageLimit)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDocumentUnreadable, err)
	}

	texts := make([]string, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, page := range pages {
		g.Go(func() error {
			texts[i] = e.pageText(gctx, page)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	var parts []string
	for _, t := range texts {
		if t != "" {
			parts = append(parts, t)
		}
	}
	blob := Normalize(strings.Join(parts, "\n\n"))
	return FocusProcessText(blob), nil
}

// pageText yields the best text for one page. Every failure on this
// path degrades to an empty string.
func (e *Extractor) pageText(ctx context.Context, page Page) string {
	text := Normalize(page.Text)
	if utf8.RuneCountInString(strings.TrimSpace(text)) >= minUsefulRunes {
		return text
	}
	if e.ocr == nil || len(page.Image) == 0 {
		return text
	}

	recognised, err := e.ocr.Recognize(ctx, page.Image)
	if err != nil {
		e.log.Debug("ocr fallback failed",
			zap.Int("page", page.Number), zap.Error(err))
		return text
	}
	recognised = Normalize(recognised)
	if utf8.RuneCountInString(strings.TrimSpace(recognised)) > utf8.RuneCountInString(strings.TrimSpace(text)) {
		e.log.Debug("ocr fallback used", zap.Int("page", page.Number))
		return recognised
	}
	return text
}
