package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the engine, loaded once at startup.
type Config struct {
	Port string

	// Provider defaults. Provider is "local" or "hosted".
	Provider     string
	OllamaHost   string
	OllamaModel  string
	EmbedModel   string
	GeminiAPIKey string
	GeminiModel  string
	LLMTimeout   time.Duration

	// Vector store snapshot file.
	DataPath string

	// Document processing.
	ChunkSize    int
	ChunkOverlap int

	// Retrieval.
	TopK int

	// Optional directory watched for auto-ingest. Empty disables the watcher.
	WatchDir string
}

// Load reads .env if present, then the environment, falling back to defaults
// that match a local Ollama setup.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables.")
	}

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Provider:     getEnv("LLM_PROVIDER", "local"),
		OllamaHost:   getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:  getEnv("OLLAMA_MODEL", "llama3.2"),
		EmbedModel:   getEnv("OLLAMA_EMBED_MODEL", "nomic-embed-text"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		LLMTimeout:   time.Duration(getEnvInt("LLM_TIMEOUT_SECS", 120)) * time.Second,
		DataPath:     getEnv("DATA_PATH", "./data/vector_store.json"),
		ChunkSize:    getEnvInt("CHUNK_SIZE", 500),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 50),
		TopK:         getEnvInt("TOP_K", 3),
		WatchDir:     getEnv("WATCH_DIR", ""),
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("CONFIG: invalid value for %s: %q, using default %d", key, v, def)
		return def
	}
	return n
}
