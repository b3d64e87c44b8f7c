package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexer_ScanDirectory(t *testing.T) {
	backend := newFakeBackend(t)
	rag, store := newTestRAG(t, backend.URL)
	indexer := NewFileIndexingService(rag, store)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("alpha notes about alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "beta.txt"), []byte("beta notes about beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.exe"), []byte("binary"), 0o644))

	indexer.ScanDirectory(context.Background(), dir)

	docs := store.ListDocuments()
	require.Len(t, docs, 2)
	names := []string{docs[0].Name, docs[1].Name}
	assert.Contains(t, names, "alpha.txt")
	assert.Contains(t, names, "beta.txt")
}

func TestIndexer_ScanDirectory_SkipsAlreadyIndexed(t *testing.T) {
	backend := newFakeBackend(t)
	rag, store := newTestRAG(t, backend.URL)
	indexer := NewFileIndexingService(rag, store)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "alpha.txt"), []byte("alpha notes"), 0o644))

	indexer.ScanDirectory(context.Background(), dir)
	indexer.ScanDirectory(context.Background(), dir)

	assert.Len(t, store.ListDocuments(), 1)
}
