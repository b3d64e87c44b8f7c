package models

type UploadResponse struct {
	Message string `json:"message"`
	DocID   string `json:"doc_id"`
	Chunks  int    `json:"chunks"`
}

// SourceInfo is one entry of the GET /sources listing.
type SourceInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

type SourcesResponse struct {
	Total   int          `json:"total"`
	Sources []SourceInfo `json:"sources"`
}

// ChunkContent is one chunk of a document in reading order.
type ChunkContent struct {
	Index   int    `json:"index"`
	Content string `json:"content"`
}

type DocumentContentResponse struct {
	DocID        string         `json:"doc_id"`
	Name         string         `json:"name"`
	Chunks       int            `json:"chunks"`
	ChunksDetail []ChunkContent `json:"chunks_detail"`
	FullContent  string         `json:"full_content"`
}

// ChatSource identifies where part of an answer came from. ContentPreview is
// truncated for display; the full chunk text stays available via
// /sources/{id}/content.
type ChatSource struct {
	Source         string `json:"source"`
	ContentPreview string `json:"content_preview"`
}

type ChatResponse struct {
	Answer  string       `json:"answer"`
	Sources []ChatSource `json:"sources"`
}

type SwitchProviderResponse struct {
	Message  string `json:"message"`
	Provider string `json:"current_provider"`
}

type ProviderStatusResponse struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

// ModelInfo describes one model available on the local model service.
type ModelInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type ModelsResponse struct {
	CurrentModel string      `json:"current_model"`
	Models       []ModelInfo `json:"models"`
	Total        int         `json:"total"`
}

type SetModelResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CurrentModel string `json:"current_model"`
}
