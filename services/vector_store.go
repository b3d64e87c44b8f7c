package services

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github/docuchat/rag/models"
)

// VectorStore is the authoritative, durable registry of documents and their
// chunk vectors. The persisted snapshot is the single source of truth; the
// in-memory state is exactly what the snapshot deserializes to. Mutations
// build the next state, persist it with a write-then-rename swap, and only
// then make it visible, so a failed write leaves the prior durable state
// untouched.
//
// Search is a brute-force cosine scan over all chunk vectors. At the target
// scale (tens to low thousands of chunks) this beats the bookkeeping cost of
// an approximate index.
type VectorStore struct {
	mu          sync.RWMutex
	path        string
	documents   []models.Document
	chunks      []models.Chunk
	nextChunkID int64
}

// storeSnapshot is the on-disk format: the full document registry plus every
// chunk with its embedding.
type storeSnapshot struct {
	Documents   []models.Document `json:"documents"`
	Chunks      []models.Chunk    `json:"chunks"`
	NextChunkID int64             `json:"next_chunk_id"`
}

// NewVectorStore opens the store at path, loading the existing snapshot if
// one is present.
func NewVectorStore(path string) (*VectorStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &VectorStore{path: path, nextChunkID: 1}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap storeSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	s.documents = snap.Documents
	s.chunks = snap.Chunks
	s.nextChunkID = snap.NextChunkID
	if s.nextChunkID < 1 {
		s.nextChunkID = 1
	}

	log.Printf("STORE: Loaded snapshot with %d documents, %d chunks.", len(s.documents), len(s.chunks))
	return s, nil
}

// Insert atomically registers a new document and all of its chunks, returning
// the fresh document id. Either everything is registered and durable, or
// nothing is.
func (s *VectorStore) Insert(name string, spans []models.ChunkSpan, vectors [][]float32) (string, error) {
	if len(spans) == 0 {
		return "", fmt.Errorf("%w: document has no chunks", models.ErrPartialWrite)
	}
	if len(spans) != len(vectors) {
		return "", fmt.Errorf("%w: %d chunks but %d vectors", models.ErrPartialWrite, len(spans), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dimensionLocked()
	for i, v := range vectors {
		if len(v) == 0 {
			return "", fmt.Errorf("%w: chunk %d has an empty vector", models.ErrPartialWrite, i)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return "", fmt.Errorf("%w: chunk %d has dimension %d, want %d", models.ErrPartialWrite, i, len(v), dim)
		}
	}

	doc := models.Document{
		ID:         uuid.New().String(),
		Name:       name,
		UploadTime: time.Now().UTC(),
		ChunkCount: len(spans),
	}

	nextDocs := append(append([]models.Document{}, s.documents...), doc)
	nextChunks := append([]models.Chunk{}, s.chunks...)
	nextID := s.nextChunkID
	for i, span := range spans {
		nextChunks = append(nextChunks, models.Chunk{
			ID:         nextID,
			DocumentID: doc.ID,
			Index:      i,
			Text:       span.Text,
			Embedding:  vectors[i],
		})
		nextID++
	}

	if err := s.persist(storeSnapshot{Documents: nextDocs, Chunks: nextChunks, NextChunkID: nextID}); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrPartialWrite, err)
	}

	s.documents = nextDocs
	s.chunks = nextChunks
	s.nextChunkID = nextID
	log.Printf("STORE: Inserted document %q (%s) with %d chunks.", name, doc.ID, len(spans))
	return doc.ID, nil
}

// Delete removes the document and every chunk referencing it.
func (s *VectorStore) Delete(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	nextDocs := make([]models.Document, 0, len(s.documents))
	for _, d := range s.documents {
		if d.ID == docID {
			found = true
			continue
		}
		nextDocs = append(nextDocs, d)
	}
	if !found {
		return fmt.Errorf("%w: %s", models.ErrNotFound, docID)
	}

	nextChunks := make([]models.Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		if c.DocumentID != docID {
			nextChunks = append(nextChunks, c)
		}
	}

	if err := s.persist(storeSnapshot{Documents: nextDocs, Chunks: nextChunks, NextChunkID: s.nextChunkID}); err != nil {
		return fmt.Errorf("failed to persist deletion: %w", err)
	}

	s.documents = nextDocs
	s.chunks = nextChunks
	log.Printf("STORE: Deleted document %s.", docID)
	return nil
}

// Search returns the top k stored chunks by cosine similarity to the query
// vector, descending. Ties break by ascending chunk id so repeated searches
// over unchanged state return identical results. An empty store yields an
// empty result, not an error.
func (s *VectorStore) Search(query []float32, k int) []models.ScoredChunk {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.chunks) == 0 || k <= 0 {
		return []models.ScoredChunk{}
	}

	scored := make([]models.ScoredChunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		scored = append(scored, models.ScoredChunk{Chunk: c, Score: cosineSimilarity(c.Embedding, query)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.ID < scored[j].Chunk.ID
	})

	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k]
}

// ListDocuments returns every registered document in upload order.
func (s *VectorStore) ListDocuments() []models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]models.Document, len(s.documents))
	copy(docs, s.documents)
	return docs
}

// GetDocument returns a single document by id.
func (s *VectorStore) GetDocument(docID string) (models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.documents {
		if d.ID == docID {
			return d, nil
		}
	}
	return models.Document{}, fmt.Errorf("%w: %s", models.ErrNotFound, docID)
}

// FindDocumentByName returns the first document with the given name.
func (s *VectorStore) FindDocumentByName(name string) (models.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.documents {
		if d.Name == name {
			return d, true
		}
	}
	return models.Document{}, false
}

// GetDocumentChunks returns the document's chunks in reading order.
func (s *VectorStore) GetDocumentChunks(docID string) ([]models.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := false
	for _, d := range s.documents {
		if d.ID == docID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, docID)
	}

	var chunks []models.Chunk
	for _, c := range s.chunks {
		if c.DocumentID == docID {
			chunks = append(chunks, c)
		}
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].Index < chunks[j].Index })
	return chunks, nil
}

// TotalChunks reports the number of chunks across all documents.
func (s *VectorStore) TotalChunks() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// persist serializes the snapshot to a temp file and renames it over the
// store path. The rename is the commit point; a crash before it leaves the
// previous snapshot intact.
func (s *VectorStore) persist(snap storeSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to swap snapshot: %w", err)
	}
	return nil
}

// dimensionLocked returns the embedding dimension of the stored chunks, or 0
// when the store is empty. Caller must hold the lock.
func (s *VectorStore) dimensionLocked() int {
	if len(s.chunks) == 0 {
		return 0
	}
	return len(s.chunks[0].Embedding)
}

// cosineSimilarity is the dot product of the two vectors scaled by their
// magnitudes. Bounded in [-1, 1]; zero vectors and vectors of differing
// dimension score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := 0; i < len(a); i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
