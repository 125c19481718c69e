// Package httpembed provides an embedding.Provider backed by a remote
// HTTP embeddings endpoint, following the same header/context/JSON
// shape as the inference package's HTTP-based providers.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ar4mirez/vectord/internal/embedding"
)

const (
	defaultTimeout = 30 * time.Second
)

// Provider implements embedding.Provider against a remote HTTP service
// speaking an OpenAI-compatible /embeddings endpoint.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	closed     bool
	mu         sync.RWMutex
}

// Config configures a Provider.
type Config struct {
	BaseURL   string
	APIKey    string
	Model     string
	Dimension int
	Timeout   time.Duration
}

// New creates an HTTP-backed embedding provider.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpembed: base URL is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("httpembed: dimension must be positive")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return &Provider{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Embed implements embedding.Provider.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, embedding.ErrEmptyText
	}

	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 embedding, got %d", embedding.ErrEmbeddingUnavailable, len(vectors))
	}
	return vectors[0], nil
}

// EmbedBatch implements embedding.Provider.
func (p *Provider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if t == "" {
			return nil, embedding.ErrEmptyText
		}
	}
	return p.embed(ctx, texts)
}

// Dimension implements embedding.Provider.
func (p *Provider) Dimension() int {
	return p.dimension
}

// Close implements embedding.Provider.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Provider) embed(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, embedding.ErrProviderClosed
	}
	p.mu.RUnlock()

	reqBody := embeddingsRequest{
		Model: p.model,
		Input: texts,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", embedding.ErrEmbeddingUnavailable, err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/embeddings",
		bytes.NewReader(body),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", embedding.ErrEmbeddingUnavailable, err)
	}
	p.setHeaders(httpReq)

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", embedding.ErrEmbeddingUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, p.handleErrorResponse(resp)
	}

	var result embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", embedding.ErrEmbeddingUnavailable, err)
	}

	vectors := make([][]float32, len(result.Data))
	for i, d := range result.Data {
		if len(d.Embedding) != p.dimension {
			return nil, fmt.Errorf("%w: %w", embedding.ErrEmbeddingUnavailable, embedding.ErrDimensionMismatch)
		}
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// setHeaders sets the required headers for the embeddings endpoint.
func (p *Provider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
}

// handleErrorResponse extracts error information from a non-200 response.
func (p *Provider) handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != nil {
		return fmt.Errorf("%w: %s (%d): %s", embedding.ErrEmbeddingUnavailable, errResp.Error.Code, resp.StatusCode, errResp.Error.Message)
	}

	return fmt.Errorf("%w: status %d: %s", embedding.ErrEmbeddingUnavailable, resp.StatusCode, string(body))
}

type embeddingsRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingsResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Index     int       `json:"index"`
	Embedding []float32 `json:"embedding"`
}

type errorResponse struct {
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
