package index

import "math/rand"

// kmeansSeed pins k-means initialization for reproducibility across
// rebuilds with identical input, per spec §4.3: "Uses a fixed random seed
// (42) for reproducible initialisation." No third-party k-means package
// appears anywhere in the retrieved corpus — every example repo that
// clusters vectors (e.g. oasisdb's internal/index/ivf.go,
// distill's pkg/dedup/kmeans.go) hand-rolls Lloyd's algorithm in pure Go,
// so this file follows the same ecosystem convention rather than reaching
// for the standard library as a fallback.
const kmeansSeed = 42

const kmeansMaxIterations = 100

// kmeansModel is a trained set of centroids plus the machinery to assign
// a new vector to its nearest one.
type kmeansModel struct {
	centroids [][]float32
}

// trainKMeans runs Lloyd's algorithm to convergence (centroid assignments
// stop changing) or kmeansMaxIterations, whichever comes first. k is
// clamped to len(vectors). Initialization draws k distinct vectors using
// a seeded PRNG so the same input and seed always yield the same run.
func trainKMeans(vectors [][]float32, k int) *kmeansModel {
	if k > len(vectors) {
		k = len(vectors)
	}
	if k <= 0 {
		return &kmeansModel{}
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	perm := rng.Perm(len(vectors))

	centroids := make([][]float32, k)
	for i := 0; i < k; i++ {
		v := vectors[perm[i]]
		c := make([]float32, len(v))
		copy(c, v)
		centroids[i] = c
	}

	assignments := make([]int, len(vectors))
	for iter := 0; iter < kmeansMaxIterations; iter++ {
		changed := false

		for i, v := range vectors {
			nearest := nearestCentroid(centroids, v)
			if assignments[i] != nearest {
				assignments[i] = nearest
				changed = true
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		dim := len(centroids[0])
		for c := range sums {
			sums[c] = make([]float64, dim)
		}

		for i, v := range vectors {
			c := assignments[i]
			counts[c]++
			for d, x := range v {
				sums[c][d] += float64(x)
			}
		}

		for c := range centroids {
			if counts[c] == 0 {
				continue // retain prior centroid for an empty cluster.
			}
			updated := make([]float32, dim)
			for d := range updated {
				updated[d] = float32(sums[c][d] / float64(counts[c]))
			}
			centroids[c] = updated
		}

		if !changed && iter > 0 {
			break
		}
	}

	return &kmeansModel{centroids: centroids}
}

// predict returns the id of the nearest centroid to v, ties broken on the
// smaller cluster id per spec §4.3.
func (m *kmeansModel) predict(v []float32) int {
	return nearestCentroid(m.centroids, v)
}

func nearestCentroid(centroids [][]float32, v []float32) int {
	best := 0
	bestDist := EuclideanDistance(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		d := EuclideanDistance(v, centroids[i])
		if d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
