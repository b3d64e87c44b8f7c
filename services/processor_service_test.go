package services

import (
	"archive/zip"
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/docuchat/rag/models"
)

// createTestDOCX builds a minimal valid DOCX archive in memory.
func createTestDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(documentXML))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestProcessor_Ingest_UnsupportedExtension(t *testing.T) {
	p := NewDocumentProcessor(500, 50)

	_, err := p.Ingest([]byte("hello"), "notes.exe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrUnsupportedFormat))
}

func TestProcessor_Ingest_ExtensionCaseInsensitive(t *testing.T) {
	p := NewDocumentProcessor(500, 50)

	spans, err := p.Ingest([]byte("some plain text content"), "NOTES.TXT")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "some plain text content", spans[0].Text)
}

func TestProcessor_Ingest_EmptyDocument(t *testing.T) {
	p := NewDocumentProcessor(500, 50)

	_, err := p.Ingest([]byte("   \n\t  "), "empty.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmptyDocument))
}

func TestProcessor_Ingest_SingleChunk(t *testing.T) {
	p := NewDocumentProcessor(500, 50)

	spans, err := p.Ingest([]byte("short note"), "note.txt")
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "short note", spans[0].Text)
	assert.Equal(t, 0, spans[0].CharStart)
	assert.Equal(t, len("short note"), spans[0].CharEnd)
}

func TestProcessor_Ingest_SplitsLongText(t *testing.T) {
	p := NewDocumentProcessor(100, 10)

	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 30)
	spans, err := p.Ingest([]byte(text), "long.txt")
	require.NoError(t, err)
	require.Greater(t, len(spans), 1)

	for _, span := range spans {
		assert.LessOrEqual(t, len(span.Text), 100)
		assert.NotEmpty(t, strings.TrimSpace(span.Text))
	}
}

func TestProcessor_Ingest_SpansAreVerbatim(t *testing.T) {
	p := NewDocumentProcessor(80, 8)

	text := strings.Repeat("alpha bravo charlie delta echo foxtrot golf hotel india. ", 10)
	spans, err := p.Ingest([]byte(text), "spans.txt")
	require.NoError(t, err)

	prevStart := -1
	for _, span := range spans {
		require.GreaterOrEqual(t, span.CharStart, 0)
		require.LessOrEqual(t, span.CharEnd, len(text))
		assert.Equal(t, span.Text, text[span.CharStart:span.CharEnd])
		// Spans may overlap, but each chunk starts after the previous one.
		assert.Greater(t, span.CharStart, prevStart)
		prevStart = span.CharStart
	}
}

func TestExtractText_DOCX(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<document xmlns="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <body>
    <p><r><t>First paragraph.</t></r></p>
    <p><r><t>Second </t></r><r><t>paragraph.</t></r></p>
  </body>
</document>`
	content := createTestDOCX(t, docXML)

	text, err := ExtractText(content, "report.docx")
	require.NoError(t, err)
	assert.Equal(t, "First paragraph.\nSecond paragraph.", text)
}

func TestExtractText_DOCX_InvalidArchive(t *testing.T) {
	_, err := ExtractText([]byte("not a zip archive"), "broken.docx")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExtraction))
}

func TestExtractText_PDF_InvalidBytes(t *testing.T) {
	_, err := ExtractText([]byte("definitely not a pdf"), "broken.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrExtraction))
}

func TestIsSupportedFile(t *testing.T) {
	assert.True(t, IsSupportedFile("a.txt"))
	assert.True(t, IsSupportedFile("b.PDF"))
	assert.True(t, IsSupportedFile("c.docx"))
	assert.False(t, IsSupportedFile("d.md"))
	assert.False(t, IsSupportedFile("noextension"))
}
