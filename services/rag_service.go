package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github/docuchat/rag/models"
)

// previewLength bounds the source previews returned with a chat answer. The
// full chunk text stays retrievable through the document content endpoint.
const previewLength = 100

// RAGService interface defines the operations of the engine core.
type RAGService interface {
	UploadDocument(ctx context.Context, data []byte, filename string) (*models.UploadResponse, error)
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
	ListSources(ctx context.Context) (*models.SourcesResponse, error)
	DeleteSource(ctx context.Context, docID string) error
	GetSourceContent(ctx context.Context, docID string) (*models.DocumentContentResponse, error)
}

// ragServiceImpl holds the dependencies it needs to do its job. It is
// stateless across requests; all durable state lives in the vector store and
// the provider gateway.
type ragServiceImpl struct {
	processor *DocumentProcessor
	embedder  *EmbeddingService
	store     *VectorStore
	gateway   *ProviderGateway
	topK      int
}

// NewRAGService creates a new RAG service instance.
func NewRAGService(processor *DocumentProcessor, embedder *EmbeddingService, store *VectorStore, gateway *ProviderGateway, topK int) RAGService {
	if topK <= 0 {
		topK = 3
	}
	return &ragServiceImpl{
		processor: processor,
		embedder:  embedder,
		store:     store,
		gateway:   gateway,
		topK:      topK,
	}
}

// UploadDocument runs the full ingestion pipeline: extract, chunk, embed,
// insert. Any failure aborts the whole upload; a document is never partially
// indexed.
func (r *ragServiceImpl) UploadDocument(ctx context.Context, data []byte, filename string) (*models.UploadResponse, error) {
	spans, err := r.processor.Ingest(data, filename)
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(spans))
	for i, span := range spans {
		texts[i] = span.Text
	}
	vectors, err := r.embedder.EmbedMany(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("could not embed document %q: %w", filename, err)
	}

	docID, err := r.store.Insert(filename, spans, vectors)
	if err != nil {
		return nil, err
	}

	log.Printf("SERVICE: Uploaded %q as %s (%d chunks).", filename, docID, len(spans))
	return &models.UploadResponse{
		Message: fmt.Sprintf("'%s' uploaded successfully!", filename),
		DocID:   docID,
		Chunks:  len(spans),
	}, nil
}

// Chat answers a question from the indexed documents. Each question is
// answered independently; no conversation history is kept.
func (r *ragServiceImpl) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	if r.store.TotalChunks() == 0 {
		log.Printf("SERVICE: Chat with empty store, returning no-documents answer.")
		return &models.ChatResponse{
			Answer:  noDocumentsAnswer,
			Sources: []models.ChatSource{},
		}, nil
	}

	queryVector, err := r.embedder.Embed(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("could not embed question: %w", err)
	}

	results := r.store.Search(queryVector, r.topK)

	prompt := r.buildGroundedPrompt(req.Message, results)
	answer, err := r.gateway.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	sources := make([]models.ChatSource, 0, len(results))
	for _, res := range results {
		sources = append(sources, models.ChatSource{
			Source:         r.documentName(res.Chunk.DocumentID),
			ContentPreview: truncatePreview(res.Chunk.Text),
		})
	}

	return &models.ChatResponse{Answer: answer, Sources: sources}, nil
}

// buildGroundedPrompt assembles instructions, the retrieved chunks tagged
// with their source document names, and the question.
func (r *ragServiceImpl) buildGroundedPrompt(question string, results []models.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString(systemPrompt)
	sb.WriteString("\n\n### Reference documents:\n")
	if len(results) == 0 {
		sb.WriteString("(no documents matched the question)\n")
	}
	for i, res := range results {
		fmt.Fprintf(&sb, "\n[Document %d: %s]\n%s\n", i+1, r.documentName(res.Chunk.DocumentID), res.Chunk.Text)
	}
	sb.WriteString("\n### Question:\n")
	sb.WriteString(question)
	sb.WriteString("\n\n### Answer:")
	return sb.String()
}

// ListSources returns the uploaded documents with their chunk counts.
func (r *ragServiceImpl) ListSources(_ context.Context) (*models.SourcesResponse, error) {
	docs := r.store.ListDocuments()
	sources := make([]models.SourceInfo, 0, len(docs))
	for _, d := range docs {
		sources = append(sources, models.SourceInfo{ID: d.ID, Name: d.Name, Chunks: d.ChunkCount})
	}
	return &models.SourcesResponse{Total: len(sources), Sources: sources}, nil
}

// DeleteSource removes a document and all of its chunks.
func (r *ragServiceImpl) DeleteSource(_ context.Context, docID string) error {
	return r.store.Delete(docID)
}

// GetSourceContent returns a document's chunks in reading order plus the
// reassembled full text, for the viewer.
func (r *ragServiceImpl) GetSourceContent(_ context.Context, docID string) (*models.DocumentContentResponse, error) {
	doc, err := r.store.GetDocument(docID)
	if err != nil {
		return nil, err
	}
	chunks, err := r.store.GetDocumentChunks(docID)
	if err != nil {
		return nil, err
	}

	details := make([]models.ChunkContent, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		details = append(details, models.ChunkContent{Index: c.Index, Content: c.Text})
		texts = append(texts, c.Text)
	}

	return &models.DocumentContentResponse{
		DocID:        doc.ID,
		Name:         doc.Name,
		Chunks:       len(chunks),
		ChunksDetail: details,
		FullContent:  strings.Join(texts, "\n\n"),
	}, nil
}

func (r *ragServiceImpl) documentName(docID string) string {
	doc, err := r.store.GetDocument(docID)
	if err != nil {
		return "Unknown"
	}
	return doc.Name
}

func truncatePreview(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLength {
		return text
	}
	return string(runes[:previewLength]) + "..."
}
