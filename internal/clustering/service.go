package clustering

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/todmy/moments-analyzer/internal/vectorize"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// Config holds clustering service configuration
type Config struct {
	K                  int // 0 picks k with the elbow method
	MaxK               int
	NInit              int
	MaxIter            int
	Tolerance          float64
	Seed               int64
	Workers            int
	KeywordsPerCluster int
	TFIDF              vectorize.TFIDFOptions
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		K:                  4,
		MaxK:               10,
		NInit:              20,
		MaxIter:            25,
		Tolerance:          1e-8,
		Seed:               1,
		Workers:            1,
		KeywordsPerCluster: 10,
		TFIDF:              vectorize.DefaultTFIDFOptions(),
	}
}

// Service partitions documents with k-means over TF-IDF vectors
type Service struct {
	config Config
}

// NewService creates a new clustering service
func NewService(config Config) *Service {
	defaults := DefaultConfig()
	if config.MaxK <= 0 {
		config.MaxK = defaults.MaxK
	}
	if config.NInit <= 0 {
		config.NInit = defaults.NInit
	}
	if config.MaxIter <= 0 {
		config.MaxIter = defaults.MaxIter
	}
	if config.Tolerance <= 0 {
		config.Tolerance = defaults.Tolerance
	}
	if config.KeywordsPerCluster <= 0 {
		config.KeywordsPerCluster = defaults.KeywordsPerCluster
	}

	return &Service{config: config}
}

// ClusterResult represents the result of clustering
type ClusterResult struct {
	Assignments []models.Assignment // one per DTM row, in row order
	Clusters    []Cluster
	K           int
	Inertia     float64
	Converged   bool
	Iterations  int

	// Weights holds the TF-IDF rows that were clustered, aligned with DocIDs
	// and Labels; its columns follow Terms
	Weights *mat.Dense
	Terms   []string
	DocIDs  []int
	Labels  []int
}

// Cluster represents a single cluster with its metadata
type Cluster struct {
	ID       int
	Centroid []float64
	Size     int
	Keywords []Keyword
	Density  float64
}

// Partition weights the non-empty rows of dtm by TF-IDF, clusters them and
// joins the labels back onto every row. Rows without surviving terms come
// back unassigned.
func (s *Service) Partition(dtm *vectorize.DTM) (*ClusterResult, error) {
	sub := dtm.NonEmpty()
	n, _ := sub.Dims()
	if n == 0 {
		return nil, fmt.Errorf("no documents with terms to cluster")
	}

	weights := vectorize.TFIDF(sub, s.config.TFIDF)
	data := make([][]float64, n)
	for i := range data {
		data[i] = weights.RawRowView(i)
	}

	k := s.config.K
	if k <= 0 {
		k = findElbow(ElbowMethod(data, s.config.MaxK, *s.kmeans(0)))
		slog.Info("k chosen by elbow method", "k", k)
	}
	if k > n {
		k = n
	}

	km := s.kmeans(k)
	labels := km.Fit(data)

	result := &ClusterResult{
		K:          k,
		Inertia:    km.Inertia,
		Converged:  km.Converged,
		Iterations: km.Iterations,
		Weights:    weights,
		Terms:      sub.Terms,
		DocIDs:     sub.DocIDs,
		Labels:     labels,
	}

	byDoc := make(map[int]int, n)
	for i, id := range sub.DocIDs {
		byDoc[id] = labels[i]
	}
	result.Assignments = make([]models.Assignment, len(dtm.DocIDs))
	for i, id := range dtm.DocIDs {
		label, ok := byDoc[id]
		result.Assignments[i] = models.Assignment{DocID: id, Cluster: label, Assigned: ok}
	}

	// Build cluster metadata
	clusterKeywords := NewKeywordExtractor(sub.Terms).ExtractClusterKeywords(weights, labels, s.config.KeywordsPerCluster)
	clusterSizes := make([]int, k+1)
	for _, label := range labels {
		clusterSizes[label]++
	}

	result.Clusters = make([]Cluster, k)
	for i := 0; i < k; i++ {
		id := i + 1
		result.Clusters[i] = Cluster{
			ID:       id,
			Centroid: km.Centroids[i],
			Size:     clusterSizes[id],
			Keywords: clusterKeywords[id],
			Density:  computeDensity(data, labels, id, km.Centroids[i]),
		}
	}

	slog.Info("documents clustered",
		"k", k,
		"clustered", n,
		"unassigned", len(dtm.DocIDs)-n,
		"inertia", km.Inertia,
		"converged", km.Converged,
		"iterations", km.Iterations,
	)
	return result, nil
}

// kmeans builds a clusterer with the service's restart, iteration and
// worker settings
func (s *Service) kmeans(k int) *KMeans {
	return &KMeans{
		K:         k,
		NInit:     s.config.NInit,
		MaxIter:   s.config.MaxIter,
		Tolerance: s.config.Tolerance,
		Seed:      s.config.Seed,
		Workers:   s.config.Workers,
	}
}

// computeDensity calculates the inverse mean squared distance of cluster
// members to their centroid
func computeDensity(data [][]float64, labels []int, clusterID int, centroid []float64) float64 {
	totalDist := 0.0
	count := 0

	for i, label := range labels {
		if label == clusterID {
			totalDist += squaredEuclideanDistance(data[i], centroid)
			count++
		}
	}

	if count == 0 {
		return 0
	}

	// Return inverse of average distance (higher = denser)
	avgDist := totalDist / float64(count)
	if avgDist == 0 {
		return 1.0
	}
	return 1.0 / avgDist
}

// findElbow finds the elbow point in inertia curve
func findElbow(inertias []float64) int {
	if len(inertias) <= 2 {
		return len(inertias)
	}

	// Find point with maximum distance to line from first to last point
	n := len(inertias)

	x1, y1 := 0.0, inertias[0]
	x2, y2 := float64(n-1), inertias[n-1]

	maxDist := 0.0
	elbow := 1

	xRange := x2 - x1
	yRange := y1 - y2
	if yRange == 0 {
		return 1
	}

	for i := 1; i < n-1; i++ {
		// Point on curve, normalized to the unit square
		x0 := float64(i) / xRange
		y0 := (inertias[i] - y2) / yRange

		// Distance from point to the line from (0,1) to (1,0)
		dist := math.Abs(x0+y0-1) / math.Sqrt2
		if dist > maxDist {
			maxDist = dist
			elbow = i + 1 // k is 1-indexed
		}
	}

	return elbow
}
