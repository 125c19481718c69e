package index

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNSW_RebuildAndSearch(t *testing.T) {
	ctx := context.Background()
	idA, idB, idC := uuid.New(), uuid.New(), uuid.New()
	embedder := newStubEmbedder(map[string][]float32{"q": {1, 0}})
	// nNeighbors >= n-1 makes the graph fully connected, so the result
	// is independent of which node traversal happens to start from.
	idx := NewNSW(embedder, 5, 100)
	defer idx.Close()

	require.NoError(t, idx.Rebuild(ctx, []Record{
		{ID: idA, Embedding: []float32{1, 0}},
		{ID: idB, Embedding: []float32{0, 1}},
		{ID: idC, Embedding: []float32{-1, 0}},
	}))
	assert.Equal(t, 3, idx.Len())

	results, err := idx.Search(ctx, "q", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, idA, results[0].ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)
}

func TestNSW_SelfExcludedFromNeighbors(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	idx := NewNSW(newStubEmbedder(nil), 5, 100)
	defer idx.Close()

	require.NoError(t, idx.Add(ctx, id, []float32{1, 0}))
	assert.Empty(t, idx.graph[id])
}

func TestNSW_AddWiresReciprocalEdges(t *testing.T) {
	ctx := context.Background()
	idA, idB := uuid.New(), uuid.New()
	idx := NewNSW(newStubEmbedder(nil), 1, 100)
	defer idx.Close()

	require.NoError(t, idx.Add(ctx, idA, []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, idB, []float32{0, 1}))

	_, aToB := idx.graph[idA][idB]
	_, bToA := idx.graph[idB][idA]
	assert.True(t, aToB)
	assert.True(t, bToA)
}

func TestNSW_RebuildConnectivity(t *testing.T) {
	ctx := context.Background()
	const nNeighbors = 2
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	records := make([]Record, len(ids))
	for i, id := range ids {
		v := make([]float32, len(ids))
		v[i] = 1
		records[i] = Record{ID: id, Embedding: v}
	}

	idx := NewNSW(newStubEmbedder(nil), nNeighbors, 100)
	defer idx.Close()

	require.NoError(t, idx.Rebuild(ctx, records))

	want := nNeighbors
	if n := len(ids) - 1; n < want {
		want = n
	}
	for _, id := range ids {
		assert.GreaterOrEqualf(t, len(idx.graph[id]), want, "node %s has too few out-edges", id)
	}
}

func TestNSW_RemovePrunesEdges(t *testing.T) {
	ctx := context.Background()
	idA, idB := uuid.New(), uuid.New()
	idx := NewNSW(newStubEmbedder(nil), 5, 100)
	defer idx.Close()

	require.NoError(t, idx.Add(ctx, idA, []float32{1, 0}))
	require.NoError(t, idx.Add(ctx, idB, []float32{0, 1}))
	require.NoError(t, idx.Remove(ctx, idA))

	assert.Equal(t, 1, idx.Len())
	_, ok := idx.graph[idA]
	assert.False(t, ok)
	_, bToA := idx.graph[idB][idA]
	assert.False(t, bToA)

	assert.NoError(t, idx.Remove(ctx, uuid.New()))
}

func TestNSW_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	idx := NewNSW(newStubEmbedder(nil), 5, 100)
	defer idx.Close()

	require.NoError(t, idx.Add(ctx, uuid.New(), []float32{1, 0, 0}))
	err := idx.Add(ctx, uuid.New(), []float32{1, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestNSW_EmptyIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewNSW(newStubEmbedder(map[string][]float32{"q": {1, 0}}), 5, 100)
	defer idx.Close()

	results, err := idx.Search(ctx, "q", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNSW_InvalidK(t *testing.T) {
	ctx := context.Background()
	idx := NewNSW(newStubEmbedder(nil), 5, 100)
	defer idx.Close()

	_, err := idx.Search(ctx, "q", 0)
	assert.ErrorIs(t, err, ErrInvalidK)
}

func TestNSW_ClosedIndex(t *testing.T) {
	ctx := context.Background()
	idx := NewNSW(newStubEmbedder(nil), 5, 100)
	require.NoError(t, idx.Close())

	assert.ErrorIs(t, idx.Add(ctx, uuid.New(), []float32{1}), ErrIndexClosed)
	assert.ErrorIs(t, idx.Remove(ctx, uuid.New()), ErrIndexClosed)
	_, err := idx.Search(ctx, "q", 1)
	assert.ErrorIs(t, err, ErrIndexClosed)
}
