package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainKMeans_ClampsKToVectorCount(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}}
	model := trainKMeans(vectors, 10)
	assert.Len(t, model.centroids, 2)
}

func TestTrainKMeans_ZeroOrNegativeK(t *testing.T) {
	model := trainKMeans([][]float32{{1, 0}}, 0)
	assert.Empty(t, model.centroids)

	model = trainKMeans([][]float32{{1, 0}}, -1)
	assert.Empty(t, model.centroids)
}

func TestTrainKMeans_DeterministicAcrossRuns(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0.9, 0.1}, {0, 1}, {-1, 0}, {-0.9, -0.1}}
	a := trainKMeans(vectors, 2)
	b := trainKMeans(vectors, 2)
	require.Equal(t, len(a.centroids), len(b.centroids))
	assert.Equal(t, a.centroids, b.centroids)
}

func TestKMeansModel_PredictAssignsNearestCentroid(t *testing.T) {
	model := &kmeansModel{centroids: [][]float32{{0, 0}, {10, 10}}}
	assert.Equal(t, 0, model.predict([]float32{1, 1}))
	assert.Equal(t, 1, model.predict([]float32{9, 9}))
}
