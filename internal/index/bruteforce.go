package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// BruteForceCosine is an exact dense-scan cosine index. Grounded on the
// teacher's vector.BruteForceIndex, generalized to own its embedder so
// Search takes query text directly (spec §4.2).
type BruteForceCosine struct {
	embedder  Embedder
	dimension int
	hasDim    bool

	mu      sync.RWMutex
	vectors map[uuid.UUID][]float32
	closed  bool
}

// NewBruteForceCosine creates a new brute-force cosine index. dimension
// may be 0 if unknown up front; it is then pinned by the first Add and
// enforced thereafter. Every Rebuild discards the pinned dimension and
// re-pins it from the first embedded record of its snapshot.
func NewBruteForceCosine(embedder Embedder, dimension int) *BruteForceCosine {
	return &BruteForceCosine{
		embedder:  embedder,
		dimension: dimension,
		hasDim:    dimension > 0,
		vectors:   make(map[uuid.UUID][]float32),
	}
}

// Rebuild discards state and re-inserts every well-embedded record.
func (idx *BruteForceCosine) Rebuild(ctx context.Context, records []Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	idx.vectors = make(map[uuid.UUID][]float32, len(records))
	idx.hasDim = false

	for _, r := range records {
		if len(r.Embedding) == 0 {
			continue
		}
		if !idx.hasDim {
			idx.dimension = len(r.Embedding)
			idx.hasDim = true
		}
		if len(r.Embedding) != idx.dimension {
			continue
		}
		v := make([]float32, len(r.Embedding))
		copy(v, r.Embedding)
		idx.vectors[r.ID] = v
	}

	return nil
}

// Add stores or replaces the vector for id.
func (idx *BruteForceCosine) Add(ctx context.Context, id uuid.UUID, vector []float32) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !idx.hasDim {
		idx.dimension = len(vector)
		idx.hasDim = true
	}
	if len(vector) != idx.dimension {
		return ErrDimensionMismatch
	}

	v := make([]float32, len(vector))
	copy(v, vector)
	idx.vectors[id] = v
	return nil
}

// Remove deletes id's vector, if present. Missing ids are tolerated.
func (idx *BruteForceCosine) Remove(ctx context.Context, id uuid.UUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}
	delete(idx.vectors, id)
	return nil
}

// Search embeds text once, scores every stored vector with non-zero
// norm, and returns the top min(k, n) by descending cosine similarity.
func (idx *BruteForceCosine) Search(ctx context.Context, text string, k int) ([]SearchResult, error) {
	if k <= 0 {
		return nil, ErrInvalidK
	}

	query, err := idx.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.closed {
		return nil, ErrIndexClosed
	}

	if len(idx.vectors) == 0 || Norm(query) == 0 {
		return []SearchResult{}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	results := make([]SearchResult, 0, len(idx.vectors))
	for id, v := range idx.vectors {
		if Norm(v) == 0 {
			continue
		}
		results = append(results, SearchResult{ID: id, Score: CosineSimilarity(query, v)})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored vectors.
func (idx *BruteForceCosine) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases the index's state.
func (idx *BruteForceCosine) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.vectors = nil
	return nil
}
