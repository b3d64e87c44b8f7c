package models

// OllamaEmbedRequest is used to structure the request to the Ollama embedding API.
type OllamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// OllamaEmbedResponse is used to parse the embedding from the Ollama API response.
type OllamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// OllamaGenerateRequest is the /api/generate request format.
type OllamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// OllamaGenerateResponse is the /api/generate response format.
type OllamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaTagsResponse is the /api/tags response listing installed models.
type OllamaTagsResponse struct {
	Models []OllamaTagModel `json:"models"`
}

// OllamaTagModel is one installed model as reported by /api/tags.
type OllamaTagModel struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}
