package httpembed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ar4mirez/vectord/internal/embedding"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg:  Config{BaseURL: "http://localhost:9000", Dimension: 8},
		},
		{
			name:    "missing base URL",
			cfg:     Config{Dimension: 8},
			wantErr: true,
		},
		{
			name:    "missing dimension",
			cfg:     Config{BaseURL: "http://localhost:9000"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Dimension, p.Dimension())
		})
	}
}

func TestProvider_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 1)

		resp := embeddingsResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{0.1, 0.2, 0.3}},
		}}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, APIKey: "test-key", Dimension: 3})
	require.NoError(t, err)

	vec, err := p.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestProvider_Embed_EmptyText(t *testing.T) {
	p, err := New(Config{BaseURL: "http://localhost:9000", Dimension: 3})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "")
	assert.ErrorIs(t, err, embedding.ErrEmptyText)
}

func TestProvider_EmbedBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input, 2)

		resp := embeddingsResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{1, 0}},
			{Index: 1, Embedding: []float32{0, 1}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Dimension: 2})
	require.NoError(t, err)

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0}, vecs[0])
	assert.Equal(t, []float32{0, 1}, vecs[1])
}

func TestProvider_EmbedBatch_Empty(t *testing.T) {
	p, err := New(Config{BaseURL: "http://localhost:9000", Dimension: 2})
	require.NoError(t, err)

	vecs, err := p.EmbedBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestProvider_Embed_DimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := embeddingsResponse{Data: []embeddingData{
			{Index: 0, Embedding: []float32{1, 0, 0, 0}},
		}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Dimension: 3})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)
}

func TestProvider_Embed_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(errorResponse{Error: &apiError{Code: "internal", Message: "boom"}})
	}))
	defer srv.Close()

	p, err := New(Config{BaseURL: srv.URL, Dimension: 3})
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, embedding.ErrEmbeddingUnavailable)
	assert.Contains(t, err.Error(), "boom")
}

func TestProvider_Close(t *testing.T) {
	p, err := New(Config{BaseURL: "http://localhost:9000", Dimension: 3})
	require.NoError(t, err)

	require.NoError(t, p.Close())

	_, err = p.Embed(context.Background(), "hello")
	assert.ErrorIs(t, err, embedding.ErrProviderClosed)
}
