package index

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

const defaultNProbe = 3

// IVF is a k-means-partitioned, multi-probe approximate index, grounded
// on original_source/src/models/ivf_index.py for exact semantics (fixed
// seed 42, nprobe = min(3, num_clusters), trivial one-centroid
// partitioner on the first Add before any Rebuild) and on the teacher's
// HNSWIndex for Go structuring.
type IVF struct {
	embedder  Embedder
	nClusters int
	dimension int
	hasDim    bool

	mu       sync.RWMutex
	model    *kmeansModel
	clusters map[int][]uuid.UUID
	vectors  map[uuid.UUID][]float32
	trained  bool
	closed   bool
}

// NewIVF creates an untrained IVF index targeting nClusters partitions
// (spec default 100).
func NewIVF(embedder Embedder, nClusters int) *IVF {
	if nClusters <= 0 {
		nClusters = 100
	}
	return &IVF{
		embedder:  embedder,
		nClusters: nClusters,
		clusters:  make(map[int][]uuid.UUID),
		vectors:   make(map[uuid.UUID][]float32),
	}
}

// Rebuild trains k-means on the full embedding matrix and assigns every
// vector to its nearest centroid. An empty or fully-unembedded snapshot
// leaves the index empty and untrained.
func (idx *IVF) Rebuild(ctx context.Context, records []Record) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	idx.clusters = make(map[int][]uuid.UUID)
	idx.vectors = make(map[uuid.UUID][]float32)
	idx.model = nil
	idx.trained = false
	idx.hasDim = false

	ids := make([]uuid.UUID, 0, len(records))
	vectors := make([][]float32, 0, len(records))
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
		ids = append(ids, r.ID)
		vectors = append(vectors, v)
	}

	if len(vectors) == 0 {
		return nil
	}

	k := idx.nClusters
	if k > len(vectors) {
		k = len(vectors)
	}
	idx.model = trainKMeans(vectors, k)
	idx.trained = true

	for i, v := range vectors {
		c := idx.model.predict(v)
		idx.clusters[c] = append(idx.clusters[c], ids[i])
		idx.vectors[ids[i]] = v
	}

	return nil
}

// Add inserts a single vector. If the index has never been trained, it
// trains a trivial one-centroid partitioner seeded by this vector — a
// known fidelity issue preserved verbatim from the source (spec §9 Open
// Question): centroids drift out of alignment under long sequences of
// incremental adds without a full Rebuild.
func (idx *IVF) Add(ctx context.Context, id uuid.UUID, vector []float32) error {
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

	if !idx.trained {
		idx.model = trainKMeans([][]float32{v}, 1)
		idx.trained = true
	}

	c := idx.model.predict(v)
	idx.clusters[c] = append(idx.clusters[c], id)
	idx.vectors[id] = v
	return nil
}

// Remove deletes id from its cluster's member list and drops its
// embedding. Empty clusters are retained with their centroid unchanged.
func (idx *IVF) Remove(ctx context.Context, id uuid.UUID) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.closed {
		return ErrIndexClosed
	}

	if _, ok := idx.vectors[id]; !ok {
		return nil
	}

	for c, members := range idx.clusters {
		for i, m := range members {
			if m == id {
				idx.clusters[c] = append(members[:i], members[i+1:]...)
				break
			}
		}
	}
	delete(idx.vectors, id)
	return nil
}

// Search probes the nprobe nearest clusters by centroid distance and
// ranks their union by cosine similarity to the query.
func (idx *IVF) Search(ctx context.Context, text string, k int) ([]SearchResult, error) {
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

	if !idx.trained || len(idx.vectors) == 0 {
		return []SearchResult{}, nil
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	type centroidDist struct {
		id   int
		dist float32
	}
	dists := make([]centroidDist, len(idx.model.centroids))
	for i, c := range idx.model.centroids {
		dists[i] = centroidDist{id: i, dist: EuclideanDistance(query, c)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	nprobe := defaultNProbe
	if nprobe > len(dists) {
		nprobe = len(dists)
	}

	candidates := make(map[uuid.UUID]struct{})
	for i := 0; i < nprobe; i++ {
		for _, id := range idx.clusters[dists[i].id] {
			candidates[id] = struct{}{}
		}
	}

	results := make([]SearchResult, 0, len(candidates))
	for id := range candidates {
		v, ok := idx.vectors[id]
		if !ok {
			continue
		}
		results = append(results, SearchResult{ID: id, Score: CosineSimilarity(query, v)})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Len returns the number of stored vectors.
func (idx *IVF) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.vectors)
}

// Close releases the index's state.
func (idx *IVF) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.closed = true
	idx.clusters = nil
	idx.vectors = nil
	idx.model = nil
	return nil
}
