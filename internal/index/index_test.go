package index

import (
	"context"
	"errors"
)

// stubEmbedder maps known query strings to fixed vectors, giving tests
// exact control over similarity ordering instead of relying on a hash.
type stubEmbedder struct {
	vectors map[string][]float32
}

var errUnknownQuery = errors.New("stubEmbedder: unknown query")

func newStubEmbedder(vectors map[string][]float32) *stubEmbedder {
	return &stubEmbedder{vectors: vectors}
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	v, ok := e.vectors[text]
	if !ok {
		return nil, errUnknownQuery
	}
	return v, nil
}
