package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/docuchat/rag/models"
)

// keywordVector embeds text as keyword counts so tests get predictable
// similarity rankings without a real embedding model.
func keywordVector(text string) []float32 {
	lower := strings.ToLower(text)
	return []float32{
		float32(strings.Count(lower, "alpha")),
		float32(strings.Count(lower, "beta")),
		float32(strings.Count(lower, "gamma")),
		1,
	}
}

// newFakeBackend serves both the embedding and the generation API.
func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/embeddings", func(w http.ResponseWriter, r *http.Request) {
		var req models.OllamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(models.OllamaEmbedResponse{Embedding: keywordVector(req.Prompt)})
	})
	mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.OllamaGenerateResponse{Response: "generated answer", Done: true})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestRAG(t *testing.T, backendURL string) (RAGService, *VectorStore) {
	t.Helper()
	store, err := NewVectorStore(filepath.Join(t.TempDir(), "vector_store.json"))
	require.NoError(t, err)

	client := &http.Client{}
	embedder := NewEmbeddingService(client, backendURL, "nomic-embed-text")
	processor := NewDocumentProcessor(120, 0)
	local := NewLocalProvider(client, backendURL, "llama3.2")
	hosted := NewHostedProvider("", "gemini-2.5-flash")
	gateway, err := NewProviderGateway(local, hosted, ProviderLocal, time.Minute)
	require.NoError(t, err)

	return NewRAGService(processor, embedder, store, gateway, 3), store
}

const threeTopicNotes = `Alpha procedures cover the morning checklist. Alpha work begins with the alpha review.

Beta procedures cover the afternoon handover. Beta work requires the beta logbook entry.

Gamma procedures cover the evening shutdown. Gamma work ends with the gamma report.`

func TestRAGService_Upload(t *testing.T) {
	backend := newFakeBackend(t)
	rag, store := newTestRAG(t, backend.URL)

	resp, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.NoError(t, err)
	require.NotEmpty(t, resp.DocID)
	assert.Equal(t, 3, resp.Chunks)
	assert.Contains(t, resp.Message, "notes.txt")
	assert.Equal(t, 3, store.TotalChunks())

	list, err := rag.ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "notes.txt", list.Sources[0].Name)
	assert.Equal(t, 3, list.Sources[0].Chunks)
}

func TestRAGService_Upload_EmbeddingFailureAbortsWhole(t *testing.T) {
	rag, store := newTestRAG(t, "http://127.0.0.1:1")

	_, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))

	// Nothing may be partially indexed.
	assert.Equal(t, 0, store.TotalChunks())
	assert.Empty(t, store.ListDocuments())
}

func TestRAGService_Chat_EmptyStoreFallback(t *testing.T) {
	backend := newFakeBackend(t)
	rag, _ := newTestRAG(t, backend.URL)

	resp, err := rag.Chat(context.Background(), models.ChatRequest{Message: "anything?"})
	require.NoError(t, err)
	assert.Equal(t, noDocumentsAnswer, resp.Answer)
	assert.Empty(t, resp.Sources)
}

func TestRAGService_Chat_ReturnsAnswerWithRankedSources(t *testing.T) {
	backend := newFakeBackend(t)
	rag, _ := newTestRAG(t, backend.URL)

	_, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.NoError(t, err)

	resp, err := rag.Chat(context.Background(), models.ChatRequest{Message: "What do the beta procedures say?"})
	require.NoError(t, err)
	assert.Equal(t, "generated answer", resp.Answer)
	require.NotEmpty(t, resp.Sources)

	// The best-matching chunk is the beta paragraph.
	assert.Equal(t, "notes.txt", resp.Sources[0].Source)
	assert.Contains(t, strings.ToLower(resp.Sources[0].ContentPreview), "beta")
}

func TestRAGService_Chat_EmbeddingUnavailable(t *testing.T) {
	backend := newFakeBackend(t)
	rag, store := newTestRAG(t, backend.URL)

	_, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.NoError(t, err)

	// Point a fresh service at a dead embedder but keep the populated store.
	client := &http.Client{}
	deadEmbedder := NewEmbeddingService(client, "http://127.0.0.1:1", "nomic-embed-text")
	local := NewLocalProvider(client, backend.URL, "llama3.2")
	gateway, err := NewProviderGateway(local, NewHostedProvider("", "gemini-2.5-flash"), ProviderLocal, time.Minute)
	require.NoError(t, err)
	broken := NewRAGService(NewDocumentProcessor(120, 0), deadEmbedder, store, gateway, 3)

	_, err = broken.Chat(context.Background(), models.ChatRequest{Message: "beta?"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrEmbeddingUnavailable))
}

func TestRAGService_Chat_PreviewTruncated(t *testing.T) {
	backend := newFakeBackend(t)
	rag, _ := newTestRAG(t, backend.URL)

	long := "beta " + strings.Repeat("the beta logbook entry must be signed. ", 3)
	_, err := rag.UploadDocument(context.Background(), []byte(long), "long.txt")
	require.NoError(t, err)

	resp, err := rag.Chat(context.Background(), models.ChatRequest{Message: "beta?"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Sources)
	for _, src := range resp.Sources {
		assert.LessOrEqual(t, len([]rune(src.ContentPreview)), previewLength+len("..."))
	}
}

func TestTruncatePreview_MultibyteText(t *testing.T) {
	korean := strings.Repeat("문서 내용 ", 40)
	preview := truncatePreview(korean)

	assert.True(t, utf8.ValidString(preview))
	assert.Len(t, []rune(preview), previewLength+len("..."))
	assert.Equal(t, string([]rune(korean)[:previewLength])+"...", preview)

	short := "짧은 글"
	assert.Equal(t, short, truncatePreview(short))
}

func TestRAGService_GetSourceContent(t *testing.T) {
	backend := newFakeBackend(t)
	rag, _ := newTestRAG(t, backend.URL)

	up, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.NoError(t, err)

	content, err := rag.GetSourceContent(context.Background(), up.DocID)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", content.Name)
	assert.Equal(t, 3, content.Chunks)
	require.Len(t, content.ChunksDetail, 3)
	for i, detail := range content.ChunksDetail {
		assert.Equal(t, i, detail.Index)
	}
	assert.Contains(t, content.FullContent, "Alpha procedures")
	assert.Contains(t, content.FullContent, "Gamma procedures")

	_, err = rag.GetSourceContent(context.Background(), "no-such-id")
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestRAGService_DeleteThenChatFallsBack(t *testing.T) {
	backend := newFakeBackend(t)
	rag, store := newTestRAG(t, backend.URL)

	up, err := rag.UploadDocument(context.Background(), []byte(threeTopicNotes), "notes.txt")
	require.NoError(t, err)

	require.NoError(t, rag.DeleteSource(context.Background(), up.DocID))
	assert.Equal(t, 0, store.TotalChunks())

	resp, err := rag.Chat(context.Background(), models.ChatRequest{Message: "beta?"})
	require.NoError(t, err)
	assert.Equal(t, noDocumentsAnswer, resp.Answer)
}
