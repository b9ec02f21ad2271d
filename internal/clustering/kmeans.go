package clustering

import (
	"log/slog"
	"math"
	"math/rand"
	"sync"

	"gonum.org/v1/gonum/floats"
)

// KMeans performs k-means clustering with several k-means++ restarts
type KMeans struct {
	K         int     // Number of clusters
	NInit     int     // Number of restarts
	MaxIter   int     // Maximum iterations per restart
	Tolerance float64 // Convergence threshold on squared centroid movement
	Seed      int64   // Seed for every restart
	Workers   int     // Goroutines for the assignment step

	Centroids  [][]float64
	Labels     []int // 1..K, relabeled by first appearance
	Inertia    float64
	Converged  bool
	Iterations int
}

// NewKMeans creates a new K-means clusterer
func NewKMeans(k int) *KMeans {
	return &KMeans{
		K:         k,
		NInit:     20,
		MaxIter:   25,
		Tolerance: 1e-8,
		Seed:      1,
		Workers:   1,
	}
}

type kmeansRun struct {
	centroids  [][]float64
	labels     []int
	inertia    float64
	converged  bool
	iterations int
}

// Fit clusters the rows and returns 1-based cluster assignments. The
// restart with the lowest inertia wins; the same seed and restart count
// always give the same labels.
func (km *KMeans) Fit(data [][]float64) []int {
	n := len(data)
	if n == 0 || km.K <= 0 {
		return []int{}
	}

	// Adjust k if necessary
	k := km.K
	if k > n {
		k = n
	}
	nInit := km.NInit
	if nInit <= 0 {
		nInit = 1
	}

	rng := rand.New(rand.NewSource(km.Seed))

	var best *kmeansRun
	for r := 0; r < nInit; r++ {
		run := km.lloyd(data, kMeansPlusPlusInit(data, k, rng))
		slog.Debug("k-means restart",
			"restart", r+1,
			"inertia", run.inertia,
			"iterations", run.iterations,
			"converged", run.converged,
		)
		if best == nil || run.inertia < best.inertia {
			best = run
		}
	}

	km.Labels, km.Centroids = relabel(best.labels, best.centroids)
	km.Inertia = best.inertia
	km.Converged = best.converged
	km.Iterations = best.iterations

	if !km.Converged {
		slog.Warn("k-means did not converge", "k", k, "max_iter", km.MaxIter, "inertia", km.Inertia)
	}
	return km.Labels
}

func (km *KMeans) lloyd(data [][]float64, centroids [][]float64) *kmeansRun {
	n := len(data)
	k := len(centroids)
	dim := len(data[0])

	run := &kmeansRun{centroids: centroids, labels: make([]int, n)}
	dists := make([]float64, n)

	for iter := 0; iter < km.MaxIter; iter++ {
		run.iterations = iter + 1

		// Assign points to nearest centroid
		km.assign(data, run.centroids, run.labels, dists)

		// Update centroids
		counts := make([]int, k)
		newCentroids := make([][]float64, k)
		for i := range newCentroids {
			newCentroids[i] = make([]float64, dim)
		}

		for i, label := range run.labels {
			counts[label]++
			floats.Add(newCentroids[label], data[i])
		}

		for i := range newCentroids {
			if counts[i] > 0 {
				floats.Scale(1.0/float64(counts[i]), newCentroids[i])
			} else {
				// Reseed an empty cluster with the worst-fitting point
				far := floats.MaxIdx(dists)
				copy(newCentroids[i], data[far])
				dists[far] = 0
			}
		}

		shift := 0.0
		for i := range newCentroids {
			shift += squaredEuclideanDistance(newCentroids[i], run.centroids[i])
		}
		run.centroids = newCentroids

		if shift <= km.Tolerance {
			run.converged = true
			break
		}
	}

	run.inertia = km.assign(data, run.centroids, run.labels, dists)
	return run
}

// assign writes the nearest centroid of every point into labels and its
// squared distance into dists, and returns the total. Workers split the
// rows into disjoint ranges; the total is summed in row order afterwards.
func (km *KMeans) assign(data, centroids [][]float64, labels []int, dists []float64) float64 {
	n := len(data)
	workers := km.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				labels[i], dists[i] = nearest(data[i], centroids)
			}
		}(start, end)
	}
	wg.Wait()

	inertia := 0.0
	for _, d := range dists {
		inertia += d
	}
	return inertia
}

func nearest(point []float64, centroids [][]float64) (int, float64) {
	minDist := math.MaxFloat64
	minIdx := 0
	for j, centroid := range centroids {
		dist := squaredEuclideanDistance(point, centroid)
		if dist < minDist {
			minDist = dist
			minIdx = j
		}
	}
	return minIdx, minDist
}

// relabel renumbers clusters 1..K in order of first appearance and
// reorders the centroids to match. Clusters that own no point go last.
func relabel(labels []int, centroids [][]float64) ([]int, [][]float64) {
	mapping := make(map[int]int, len(centroids))
	for _, l := range labels {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}
	for l := range centroids {
		if _, ok := mapping[l]; !ok {
			mapping[l] = len(mapping)
		}
	}

	out := make([]int, len(labels))
	for i, l := range labels {
		out[i] = mapping[l] + 1
	}
	ordered := make([][]float64, len(centroids))
	for l, c := range centroids {
		ordered[mapping[l]] = c
	}
	return out, ordered
}

// kMeansPlusPlusInit initializes centroids using k-means++ algorithm
func kMeansPlusPlusInit(data [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(data)
	centroids := make([][]float64, 0, k)

	// Choose first centroid randomly
	firstIdx := rng.Intn(n)
	centroids = append(centroids, copySlice(data[firstIdx]))

	// Choose remaining centroids with probability proportional to distance squared
	distances := make([]float64, n)
	for i := 1; i < k; i++ {
		totalDist := 0.0
		for j, point := range data {
			_, distances[j] = nearest(point, centroids)
			totalDist += distances[j]
		}

		// Fewer distinct points than k
		if totalDist == 0 {
			centroids = append(centroids, copySlice(data[rng.Intn(n)]))
			continue
		}

		r := rng.Float64() * totalDist
		cumSum := 0.0
		chosen := -1
		for j, d := range distances {
			cumSum += d
			if d > 0 && cumSum > r {
				chosen = j
				break
			}
		}
		if chosen < 0 {
			chosen = floats.MaxIdx(distances)
		}
		centroids = append(centroids, copySlice(data[chosen]))
	}

	return centroids
}

func squaredEuclideanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return sum
}

func copySlice(s []float64) []float64 {
	result := make([]float64, len(s))
	copy(result, s)
	return result
}

// ElbowMethod returns the best inertia for k = 1..maxK. Every fit uses the
// restarts, iteration limit, tolerance, seed and workers of opts; opts.K is
// ignored.
func ElbowMethod(data [][]float64, maxK int, opts KMeans) []float64 {
	if maxK <= 0 {
		maxK = 10
	}
	if maxK > len(data) {
		maxK = len(data)
	}

	inertias := make([]float64, maxK)
	for k := 1; k <= maxK; k++ {
		km := &KMeans{
			K:         k,
			NInit:     opts.NInit,
			MaxIter:   opts.MaxIter,
			Tolerance: opts.Tolerance,
			Seed:      opts.Seed,
			Workers:   opts.Workers,
		}
		km.Fit(data)
		inertias[k-1] = km.Inertia
	}

	return inertias
}
