package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github/docuchat/rag/models"
)

// Provider kinds accepted by the gateway.
const (
	ProviderLocal  = "local"
	ProviderHosted = "hosted"
)

// Generator is the one capability every provider variant exposes. Adding a
// backend means adding a variant, not touching the orchestrator.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// LocalProvider talks to a locally hosted Ollama process. The selected model
// can be changed live; generation without a selected or reachable model
// fails with ErrModelNotLoaded.
type LocalProvider struct {
	httpClient *http.Client
	baseURL    string

	mu    sync.RWMutex
	model string
}

// NewLocalProvider creates a local provider for the Ollama API at baseURL.
func NewLocalProvider(client *http.Client, baseURL, model string) *LocalProvider {
	return &LocalProvider{
		httpClient: client,
		baseURL:    baseURL,
		model:      model,
	}
}

// SetModel selects the model used for subsequent generate calls.
func (p *LocalProvider) SetModel(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.model = name
}

// Model returns the currently selected model name.
func (p *LocalProvider) Model() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// ListModels returns the models installed on the local service.
func (p *LocalProvider) ListModels(ctx context.Context) ([]models.ModelInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create tags request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrModelNotLoaded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", models.ErrModelNotLoaded, resp.StatusCode, string(body))
	}

	var tags models.OllamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, fmt.Errorf("%w: failed to decode tags: %v", models.ErrModelNotLoaded, err)
	}

	infos := make([]models.ModelInfo, 0, len(tags.Models))
	for _, m := range tags.Models {
		infos = append(infos, models.ModelInfo{Name: m.Name, Size: m.Size})
	}
	return infos, nil
}

// Generate produces a completion from the selected model, non-streaming.
func (p *LocalProvider) Generate(ctx context.Context, prompt string) (string, error) {
	model := p.Model()
	if model == "" {
		return "", fmt.Errorf("%w: no model selected", models.ErrModelNotLoaded)
	}

	reqBody, err := json.Marshal(models.OllamaGenerateRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
			return "", fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", models.ErrModelNotLoaded, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		// Ollama answers 404 for a model that is not pulled.
		if resp.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: model %q: %s", models.ErrModelNotLoaded, model, string(body))
		}
		return "", fmt.Errorf("%w: ollama returned status %d: %s", models.ErrUpstream, resp.StatusCode, string(body))
	}

	var genResp models.OllamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", models.ErrUpstream, err)
	}
	return genResp.Response, nil
}

// HostedProvider talks to the Gemini API with a configured credential. The
// client is created on first use so a missing key is a chat-time AuthError,
// not a startup crash.
type HostedProvider struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

// NewHostedProvider creates a hosted provider. An empty apiKey is allowed;
// generation will fail with ErrAuth until one is configured.
func NewHostedProvider(apiKey, model string) *HostedProvider {
	return &HostedProvider{apiKey: apiKey, model: model}
}

// Model returns the hosted model name.
func (p *HostedProvider) Model() string {
	return p.model
}

func (p *HostedProvider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		return p.client, nil
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", models.ErrAuth)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrAuth, err)
	}
	p.client = client
	return client, nil
}

// Generate produces a completion from the hosted model.
func (p *HostedProvider) Generate(ctx context.Context, prompt string) (string, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return "", err
	}

	resp, err := client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), nil)
	if err != nil {
		return "", classifyHostedError(err)
	}
	if resp == nil {
		return "", fmt.Errorf("%w: empty response", models.ErrUpstream)
	}

	answer := strings.TrimSpace(resp.Text())
	if answer == "" {
		return "", fmt.Errorf("%w: model returned empty text", models.ErrUpstream)
	}
	return answer, nil
}

// classifyHostedError folds API failures into the gateway taxonomy.
func classifyHostedError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", models.ErrAuth, err)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", models.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %v", models.ErrUpstream, err)
}

// ProviderGateway holds the active provider selection. It is the only
// process-wide mutable provider state: initialized from configuration at
// startup, mutated by explicit switch operations, read by every chat request.
// A request that resolved its generator keeps it even if a switch lands
// mid-call.
type ProviderGateway struct {
	mu       sync.RWMutex
	provider string

	local   *LocalProvider
	hosted  *HostedProvider
	timeout time.Duration
}

// NewProviderGateway creates the gateway with the given default selection.
func NewProviderGateway(local *LocalProvider, hosted *HostedProvider, defaultProvider string, timeout time.Duration) (*ProviderGateway, error) {
	if defaultProvider != ProviderLocal && defaultProvider != ProviderHosted {
		return nil, fmt.Errorf("unknown provider %q (local or hosted)", defaultProvider)
	}
	return &ProviderGateway{
		provider: defaultProvider,
		local:    local,
		hosted:   hosted,
		timeout:  timeout,
	}, nil
}

// SwitchProvider changes the active variant without a restart.
func (g *ProviderGateway) SwitchProvider(kind string) error {
	if kind != ProviderLocal && kind != ProviderHosted {
		return fmt.Errorf("unknown provider %q (local or hosted)", kind)
	}
	g.mu.Lock()
	g.provider = kind
	g.mu.Unlock()
	log.Printf("GATEWAY: Switched provider to %s.", kind)
	return nil
}

// Status reports the active provider and its selected model.
func (g *ProviderGateway) Status() (provider, model string) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.provider == ProviderHosted {
		return ProviderHosted, g.hosted.Model()
	}
	return ProviderLocal, g.local.Model()
}

// Local exposes the local variant for model listing and selection.
func (g *ProviderGateway) Local() *LocalProvider {
	return g.local
}

// Generate dispatches to the active variant, bounded by the gateway timeout.
// Timeouts are reported, never silently retried.
func (g *ProviderGateway) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.RLock()
	var gen Generator = g.local
	if g.provider == ProviderHosted {
		gen = g.hosted
	}
	g.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	answer, err := gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, models.ErrTimeout) {
			return "", fmt.Errorf("%w: %v", models.ErrTimeout, err)
		}
		return "", err
	}
	return answer, nil
}
