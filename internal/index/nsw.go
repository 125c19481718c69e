package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const (
	defaultNSWNeighbors      = 5
	defaultNSWEfConstruction = 100
)

// NSW is a flat (single-layer) Navigable Small World graph index, grounded
// on original_source/src/models/nsw_index.py. Unlike the teacher's
// hierarchical HNSWIndex, the source builds one proximity graph rather than
// layered ones — an intentional departure from the teacher's algorithm,
// kept because it is what this index is specified to be.
type NSW struct {
	embedder       Embedder
	nNeighbors     int
	efConstruction int
	dimension      int
	hasDim         bool

	mu      sync.RWMutex
	vectors map[uuid.UUID][]float32
	graph   map[uuid.UUID]map[uuid.UUID]struct{}
	closed  bool
}

// NewNSW creates an empty NSW index. nNeighbors controls how many edges
// each node gets on insertion (spec default 5); efConstruction is carried
// for parity with the source's constructor but does not otherwise bound
// construction-time search, matching original_source's own unused field.
func NewNSW(embedder Embedder, nNeighbors, efConstruction int) *NSW {
	if nNeighbors <= 0 {
		nNeighbors = defaultNSWNeighbors
	}
	if efConstruction <= 0 {
		efConstruction = defaultNSWEfConstruction
	}
	return &NSW{
		embedder:       embedder,
		nNeighbors:     nNeighbors,
		efConstruction: efConstruction,
		vectors:        make(map[uuid.UUID][]float32),
		graph:          make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Rebuild discards the graph and reconnects every well-embedded record to
// its n nearest neighbors by cosine similarity.
func (idx *NSW) Rebuild(ctx context.Context, records []Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	idx.vectors = make(map[uuid.UUID][]float32, len(records))
	idx.graph = make(map[uuid.UUID]map[uuid.UUID]struct{}, len(records))
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

	for id, v := range idx.vectors {
		neighbors := idx.nearestNeighbors(id, v, idx.nNeighbors)
		edges := make(map[uuid.UUID]struct{}, len(neighbors))
		for _, n := range neighbors {
			edges[n.ID] = struct{}{}
		}
		idx.graph[id] = edges
	}

	return nil
}

// Add inserts id's vector and connects it to its n nearest neighbors,
// wiring reciprocal edges into any neighbor that already has a graph
// entry.
func (idx *NSW) Add(ctx context.Context, id uuid.UUID, vector []float32) error {
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

	neighbors := idx.nearestNeighbors(id, v, idx.nNeighbors)
	edges := make(map[uuid.UUID]struct{}, len(neighbors))
	for _, n := range neighbors {
		edges[n.ID] = struct{}{}
	}
	idx.graph[id] = edges

	for _, n := range neighbors {
		if existing, ok := idx.graph[n.ID]; ok {
			existing[id] = struct{}{}
		}
	}

	return nil
}

// Remove deletes id's vector and node, pruning any edges pointing at it
// from its former neighbors.
func (idx *NSW) Remove(ctx context.Context, id uuid.UUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	if _, ok := idx.vectors[id]; !ok {
		return nil
	}
	delete(idx.vectors, id)

	if edges, ok := idx.graph[id]; ok {
		for neighborID := range edges {
			if neighborEdges, ok := idx.graph[neighborID]; ok {
				delete(neighborEdges, id)
			}
		}
		delete(idx.graph, id)
	}

	return nil
}

// Search performs greedy best-first traversal of the graph from an
// arbitrary entry point, stopping when no candidates remain, or once it
// holds at least k results and every unexplored candidate scores lower
// than the last one accepted.
func (idx *NSW) Search(ctx context.Context, text string, k int) ([]SearchResult, error) {
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

	var entryPoint uuid.UUID
	for id := range idx.graph {
		entryPoint = id
		break
	}

	visited := map[uuid.UUID]struct{}{entryPoint: {}}
	candidates := []SearchResult{{ID: entryPoint, Score: CosineSimilarity(query, idx.vectors[entryPoint])}}
	best := make([]SearchResult, 0, k*2)

	for len(candidates) > 0 {
		maxIdx := 0
		for i := 1; i < len(candidates); i++ {
			if candidates[i].Score > candidates[maxIdx].Score {
				maxIdx = i
			}
		}
		current := candidates[maxIdx]
		candidates = append(candidates[:maxIdx], candidates[maxIdx+1:]...)
		best = append(best, current)

		if len(best) >= k {
			if len(candidates) == 0 {
				break
			}
			remMax := candidates[0].Score
			for _, c := range candidates[1:] {
				if c.Score > remMax {
					remMax = c.Score
				}
			}
			if remMax < current.Score {
				break
			}
		}

		for neighborID := range idx.graph[current.ID] {
			if _, ok := visited[neighborID]; ok {
				continue
			}
			visited[neighborID] = struct{}{}
			candidates = append(candidates, SearchResult{
				ID:    neighborID,
				Score: CosineSimilarity(query, idx.vectors[neighborID]),
			})
		}
	}

	sort.Slice(best, func(i, j int) bool { return best[i].Score > best[j].Score })
	if k > len(best) {
		k = len(best)
	}
	return best[:k], nil
}

// Len returns the number of stored vectors.
func (idx *NSW) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases the index's state.
func (idx *NSW) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.vectors = nil
	idx.graph = nil
	return nil
}

// nearestNeighbors returns the k nearest vectors to v by cosine similarity,
// excluding selfID and any zero-norm candidate. idx.mu must be held.
func (idx *NSW) nearestNeighbors(selfID uuid.UUID, v []float32, k int) []SearchResult {
	results := make([]SearchResult, 0, len(idx.vectors))
	for id, other := range idx.vectors {
		if id == selfID {
			continue
		}
		if Norm(other) == 0 {
			continue
		}
		results = append(results, SearchResult{ID: id, Score: CosineSimilarity(v, other)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
