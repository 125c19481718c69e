package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
)

// MockProvider is a deterministic embedding provider for local runs and
// tests: it never calls out to a network service, so chunk content maps
// to the same vector every time, which is what makes index rebuild
// tests reproducible across runs.
type MockProvider struct {
	dimension int
	closed    bool
	mu        sync.RWMutex
}

// NewMockProvider creates a new mock embedding provider with the given
// vector dimension.
func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 384
	}
	return &MockProvider{
		dimension: dimension,
	}
}

// Embed returns a unit vector derived from text's content.
func (p *MockProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrProviderClosed
	}
	p.mu.RUnlock()

	if text == "" {
		return nil, ErrEmptyText
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return p.vectorFor(text), nil
}

// EmbedBatch embeds each of texts independently, in order.
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, ErrProviderClosed
	}
	p.mu.RUnlock()

	results := make([][]float32, len(texts))
	for i, text := range texts {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if text == "" {
			return nil, ErrEmptyText
		}
		results[i] = p.vectorFor(text)
	}
	return results, nil
}

// Dimension returns the embedding dimension.
func (p *MockProvider) Dimension() int {
	return p.dimension
}

// Close marks the provider closed; further calls return ErrProviderClosed.
func (p *MockProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// vectorFor maps text to a reproducible unit vector. The FNV-1a digest
// of text (mixed with the configured dimension, so two MockProviders of
// different size never alias the same stream) seeds a splitmix64
// generator; splitmix64's output is then folded into [-1, 1] components
// and renormalized.
func (p *MockProvider) vectorFor(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64() ^ (uint64(p.dimension) * splitmixIncrement)

	out := make([]float32, p.dimension)
	for i := 0; i < p.dimension; i++ {
		seed, out[i] = nextSplitmixComponent(seed)
	}
	return Normalize(out)
}

// splitmixIncrement is splitmix64's golden-ratio odd increment.
const splitmixIncrement = 0x9E3779B97F4A7C15

// nextSplitmixComponent advances a splitmix64 state by one step and
// folds the scrambled output into a float32 component in [-1, 1].
func nextSplitmixComponent(state uint64) (uint64, float32) {
	state += splitmixIncrement
	z := state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)

	normalized := float64(z>>11) / float64(1<<53)
	return state, float32(normalized*2 - 1)
}

// SimilarText returns a unit vector blended between text's embedding and
// an independent perturbation vector, controllable via similarity in
// [0, 1]. Useful for exercising top-k ranking with a known ordering.
func (p *MockProvider) SimilarText(text string, similarity float64) []float32 {
	base := p.vectorFor(text)
	perturbation := p.vectorFor(text + "\x00perturbation")

	result := make([]float32, p.dimension)
	factor := float32(math.Sqrt(1 - similarity*similarity))
	for i := range result {
		result[i] = float32(similarity)*base[i] + factor*perturbation[i]
	}

	return Normalize(result)
}
