// Package index provides the three approximate-nearest-neighbor index
// implementations (brute-force cosine, IVF, NSW) at the heart of vectord's
// multi-index vector search engine.
package index

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Common errors for index operations.
var (
	// ErrIndexClosed is returned once Close has been called on an index.
	ErrIndexClosed = errors.New("index is closed")
	// ErrDimensionMismatch is returned when a vector's length does not
	// match the dimension an index was first trained/seeded with.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidK is returned when Search is called with a non-positive k.
	ErrInvalidK = errors.New("k must be positive")
)

// SearchResult represents a single ranked hit returned by Search.
type SearchResult struct {
	ID    uuid.UUID
	Score float32 // cosine similarity; higher is more similar.
}

// Record is the minimal view of a record store entry an index needs:
// an identity and the embedding to index. Indexes never see content or
// metadata — those live solely in the record store, per spec §4.
type Record struct {
	ID        uuid.UUID
	Embedding []float32
}

// Embedder maps query text to a vector. It is the same capability as
// internal/embedding.Provider, declared narrowly here so this package has
// no import-time dependency on the embedding package's full surface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the shared capability surface for all three ANN variants:
// rebuild from a full snapshot, incremental add/remove, and top-k search.
// Spec §9 recommends this over a deep type hierarchy, since the surface
// is small and closed to exactly three implementations.
type Index interface {
	// Rebuild discards all state and reconstructs the index from the
	// given snapshot of records. Records without a well-dimensioned
	// embedding are skipped.
	Rebuild(ctx context.Context, records []Record) error

	// Add inserts or replaces the vector for id. Re-adding an existing
	// id replaces its prior vector.
	Add(ctx context.Context, id uuid.UUID, vector []float32) error

	// Remove deletes the vector for id, if present. Missing ids are
	// tolerated silently.
	Remove(ctx context.Context, id uuid.UUID) error

	// Search embeds text and returns up to k ranked results. An empty
	// index or a zero-norm query vector yields an empty, non-error
	// result.
	Search(ctx context.Context, text string, k int) ([]SearchResult, error)

	// Len returns the number of vectors currently held.
	Len() int

	// Close releases resources held by the index.
	Close() error
}
