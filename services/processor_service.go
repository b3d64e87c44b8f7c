package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"

	"github/docuchat/rag/models"
)

// DocumentProcessor turns an uploaded file into ordered chunk spans ready for
// embedding. It owns no persistence; that is the vector store's job.
type DocumentProcessor struct {
	chunkSize    int
	chunkOverlap int
}

// NewDocumentProcessor creates a processor with the given target chunk size
// and overlap window, both in characters.
func NewDocumentProcessor(chunkSize, chunkOverlap int) *DocumentProcessor {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 10
	}
	return &DocumentProcessor{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest validates the filename, extracts plain text and splits it into
// overlapping chunks. The last chunk may be shorter than the target size.
func (p *DocumentProcessor) Ingest(data []byte, filename string) ([]models.ChunkSpan, error) {
	if !IsSupportedFile(filename) {
		return nil, fmt.Errorf("%w: %q (txt, pdf, docx supported)", models.ErrUnsupportedFormat, filename)
	}

	text, err := ExtractText(data, filename)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: %q", models.ErrEmptyDocument, filename)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(p.chunkSize),
		textsplitter.WithChunkOverlap(p.chunkOverlap),
	)
	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrExtraction, err)
	}

	// The splitter returns trimmed verbatim substrings in document order, so
	// character spans are recovered with a forward scan. Overlapping chunks
	// force the scan to restart just past the previous chunk's start.
	spans := make([]models.ChunkSpan, 0, len(pieces))
	searchFrom := 0
	for _, piece := range pieces {
		if strings.TrimSpace(piece) == "" {
			continue
		}
		start := searchFrom
		if idx := strings.Index(text[searchFrom:], piece); idx >= 0 {
			start = searchFrom + idx
		}
		spans = append(spans, models.ChunkSpan{
			Text:      piece,
			CharStart: start,
			CharEnd:   start + len(piece),
		})
		searchFrom = start + 1
	}

	if len(spans) == 0 {
		return nil, fmt.Errorf("%w: %q", models.ErrEmptyDocument, filename)
	}

	log.Printf("PROCESSOR: Split %q into %d chunks.", filename, len(spans))
	return spans, nil
}
