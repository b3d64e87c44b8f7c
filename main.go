package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github/docuchat/rag/config"
	"github/docuchat/rag/controller"
	"github/docuchat/rag/services"
)

func main() {
	cfg := config.Load()

	// Short-timeout client for embedding calls; generation gets its own
	// budget from the gateway's per-request context.
	embedClient := &http.Client{Timeout: 30 * time.Second}
	llmClient := &http.Client{}

	store, err := services.NewVectorStore(cfg.DataPath)
	if err != nil {
		log.Fatalf("FATAL: Failed to open vector store: %v", err)
	}

	embedder := services.NewEmbeddingService(embedClient, cfg.OllamaHost, cfg.EmbedModel)
	processor := services.NewDocumentProcessor(cfg.ChunkSize, cfg.ChunkOverlap)

	local := services.NewLocalProvider(llmClient, cfg.OllamaHost, cfg.OllamaModel)
	hosted := services.NewHostedProvider(cfg.GeminiAPIKey, cfg.GeminiModel)
	gateway, err := services.NewProviderGateway(local, hosted, cfg.Provider, cfg.LLMTimeout)
	if err != nil {
		log.Fatalf("FATAL: Invalid provider configuration: %v", err)
	}

	ragService := services.NewRAGService(processor, embedder, store, gateway, cfg.TopK)
	ragController := controller.NewRAGController(ragService, gateway)

	// Optional watch directory: files dropped there are ingested through the
	// same pipeline as uploads.
	if cfg.WatchDir != "" {
		indexer := services.NewFileIndexingService(ragService, store)
		go func() {
			ctx := context.Background()
			indexer.ScanDirectory(ctx, cfg.WatchDir)
			indexer.WatchDirectory(ctx, cfg.WatchDir)
		}()
	}

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware so the browser UI can call the API
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		provider, _ := gateway.Status()
		c.JSON(200, gin.H{
			"status":       "running",
			"service":      "docuchat RAG API",
			"llm_provider": provider,
		})
	})

	router.GET("/health", func(c *gin.Context) {
		provider, _ := gateway.Status()
		c.JSON(200, gin.H{
			"status":       "healthy",
			"llm_provider": provider,
		})
	})

	router.POST("/upload", ragController.Upload)
	router.GET("/sources", ragController.ListSources)
	router.DELETE("/sources/:id", ragController.DeleteSource)
	router.GET("/sources/:id/content", ragController.GetSourceContent)
	router.POST("/chat", ragController.Chat)
	router.POST("/llm/switch", ragController.SwitchProvider)
	router.GET("/llm/status", ragController.ProviderStatus)
	router.GET("/ollama/models", ragController.ListModels)
	router.POST("/ollama/model", ragController.SetModel)

	log.Printf("docuchat backend starting on http://localhost:%s (provider: %s)", cfg.Port, cfg.Provider)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
