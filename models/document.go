package models

import "time"

// Document represents one uploaded file registered in the vector store.
// Deleting a document removes every chunk referencing it.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UploadTime time.Time `json:"upload_time"`
	ChunkCount int       `json:"chunk_count"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval. Embeddings are never mutated after creation.
type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
}

// ChunkSpan is an extracted chunk before embedding: the verbatim text plus
// the character range of the source it was drawn from. Spans of neighbouring
// chunks may overlap; index numbering never does.
type ChunkSpan struct {
	Text      string
	CharStart int
	CharEnd   int
}

// ScoredChunk pairs a stored chunk with its cosine similarity to a query.
type ScoredChunk struct {
	Chunk Chunk
	Score float64
}
