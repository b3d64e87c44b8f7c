package services

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FileIndexingService keeps an optional watch directory in sync with the
// vector store: files dropped there go through the same ingestion pipeline
// as uploads. Documents are keyed by filename, so a rewrite replaces the
// previous version.
type FileIndexingService struct {
	ragService RAGService
	store      *VectorStore
}

// NewFileIndexingService creates a new indexing service.
func NewFileIndexingService(ragService RAGService, store *VectorStore) *FileIndexingService {
	return &FileIndexingService{
		ragService: ragService,
		store:      store,
	}
}

// ScanDirectory ingests every supported file in dirPath that is not already
// indexed. Called once at startup before the watcher takes over.
func (s *FileIndexingService) ScanDirectory(ctx context.Context, dirPath string) {
	log.Printf("INDEXER: Starting directory scan for: %s", dirPath)

	err := filepath.Walk(dirPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !IsSupportedFile(path) {
			return nil
		}
		if _, exists := s.store.FindDocumentByName(filepath.Base(path)); exists {
			return nil
		}
		if err := s.ingestFile(ctx, path); err != nil {
			log.Printf("INDEXER ERROR: Failed to ingest %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", dirPath, err)
	}
	log.Println("INDEXER: Directory scan finished.")
}

// WatchDirectory starts a long-running process to watch for file changes in
// real-time. Blocks until the context is cancelled.
func (s *FileIndexingService) WatchDirectory(ctx context.Context, dirPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !IsSupportedFile(event.Name) {
					continue
				}

				// Many editors write by creating a temp file and renaming, which
				// can fire several events. Create and Write are handled the same.
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-indexing...", event.Name)
					s.removeByName(ctx, filepath.Base(event.Name))
					if err := s.ingestFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to ingest %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing from index...", event.Name)
					s.removeByName(ctx, filepath.Base(event.Name))
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", dirPath)
	if err := watcher.Add(dirPath); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (s *FileIndexingService) ingestFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = s.ragService.UploadDocument(ctx, data, filepath.Base(path))
	return err
}

func (s *FileIndexingService) removeByName(_ context.Context, name string) {
	doc, ok := s.store.FindDocumentByName(name)
	if !ok {
		return
	}
	if err := s.store.Delete(doc.ID); err != nil {
		log.Printf("WATCHER WARN: Could not delete document %q: %v", name, err)
	}
}
