package controller

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github/docuchat/rag/models"
	"github/docuchat/rag/services"
)

// RAGController handles the HTTP requests for the RAG API. It depends on the
// RAGService for the pipeline and on the ProviderGateway for provider
// administration.
type RAGController struct {
	ragService services.RAGService
	gateway    *services.ProviderGateway
}

// NewRAGController is a constructor function that creates a new RAGController.
// This is called from main.go to inject the dependencies.
func NewRAGController(service services.RAGService, gateway *services.ProviderGateway) *RAGController {
	return &RAGController{
		ragService: service,
		gateway:    gateway,
	}
}

// statusFromError maps the engine's failure taxonomy to HTTP statuses.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat),
		errors.Is(err, models.ErrEmptyDocument),
		errors.Is(err, models.ErrExtraction):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, models.ErrModelNotLoaded),
		errors.Is(err, models.ErrEmbeddingUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, models.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, models.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(ctx *gin.Context, err error) {
	ctx.JSON(statusFromError(err), gin.H{"detail": err.Error()})
}

// Upload is the handler for POST /upload. It accepts one multipart file and
// runs it through the full ingestion pipeline.
func (c *RAGController) Upload(ctx *gin.Context) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "missing multipart file: " + err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "could not open uploaded file: " + err.Error()})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "could not read uploaded file: " + err.Error()})
		return
	}

	response, err := c.ragService.UploadDocument(ctx.Request.Context(), data, fileHeader.Filename)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Chat is the handler for POST /chat.
func (c *RAGController) Chat(ctx *gin.Context) {
	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.ragService.Chat(ctx.Request.Context(), req)
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// ListSources is the handler for GET /sources.
func (c *RAGController) ListSources(ctx *gin.Context) {
	response, err := c.ragService.ListSources(ctx.Request.Context())
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// DeleteSource is the handler for DELETE /sources/:id.
func (c *RAGController) DeleteSource(ctx *gin.Context) {
	docID := ctx.Param("id")
	if err := c.ragService.DeleteSource(ctx.Request.Context(), docID); err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Source '%s' deleted", docID),
	})
}

// GetSourceContent is the handler for GET /sources/:id/content.
func (c *RAGController) GetSourceContent(ctx *gin.Context) {
	response, err := c.ragService.GetSourceContent(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// SwitchProvider is the handler for POST /llm/switch.
func (c *RAGController) SwitchProvider(ctx *gin.Context) {
	var req models.SwitchProviderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	if err := c.gateway.SwitchProvider(req.Provider); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	provider, _ := c.gateway.Status()
	ctx.JSON(http.StatusOK, models.SwitchProviderResponse{
		Message:  fmt.Sprintf("Provider switched to %s", provider),
		Provider: provider,
	})
}

// ProviderStatus is the handler for GET /llm/status.
func (c *RAGController) ProviderStatus(ctx *gin.Context) {
	provider, model := c.gateway.Status()
	ctx.JSON(http.StatusOK, models.ProviderStatusResponse{
		Provider: provider,
		Model:    model,
	})
}

// ListModels is the handler for GET /ollama/models. An unreachable model
// service yields an empty list with the error attached rather than a failure,
// so the UI can still render the selector.
func (c *RAGController) ListModels(ctx *gin.Context) {
	current := c.gateway.Local().Model()

	installed, err := c.gateway.Local().ListModels(ctx.Request.Context())
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{
			"current_model": current,
			"models":        []models.ModelInfo{},
			"total":         0,
			"error":         err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, models.ModelsResponse{
		CurrentModel: current,
		Models:       installed,
		Total:        len(installed),
	})
}

// SetModel is the handler for POST /ollama/model.
func (c *RAGController) SetModel(ctx *gin.Context) {
	var req models.SetModelRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"detail": "Invalid request body: " + err.Error()})
		return
	}

	old := c.gateway.Local().Model()
	c.gateway.Local().SetModel(req.Model)

	ctx.JSON(http.StatusOK, models.SetModelResponse{
		Success:      true,
		Message:      fmt.Sprintf("Model changed from '%s' to '%s'", old, req.Model),
		CurrentModel: req.Model,
	})
}
