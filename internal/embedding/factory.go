package embedding

import (
	"fmt"

	"github.com/ar4mirez/vectord/internal/embedding/httpembed"
)

// ProviderType represents the type of embedding provider.
type ProviderType string

const (
	// ProviderTypeMock uses deterministic mock embeddings (for testing).
	ProviderTypeMock ProviderType = "mock"

	// ProviderTypeHTTP calls a remote HTTP embeddings endpoint.
	ProviderTypeHTTP ProviderType = "http"
)

// NewProvider creates a new embedding provider based on configuration.
func NewProvider(cfg Config) (Provider, error) {
	switch ProviderType(cfg.Provider) {
	case ProviderTypeMock, "":
		dim := cfg.Dimension
		if dim == 0 {
			dim = 384
		}
		return NewMockProvider(dim), nil

	case ProviderTypeHTTP:
		dim := cfg.Dimension
		if dim == 0 {
			dim = 384
		}
		return httpembed.New(httpembed.Config{
			BaseURL:   cfg.BaseURL,
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			Dimension: dim,
		})

	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Provider)
	}
}
