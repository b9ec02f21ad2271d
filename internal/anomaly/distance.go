package anomaly

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DistanceAnomalyDetector scores rows by their mean Euclidean distance to
// the k nearest reference rows. With Reference > 0 and more rows than that,
// the reference set is a seeded sample of Reference rows, which keeps the
// cost linear in the corpus size.
type DistanceAnomalyDetector struct {
	Reference int
	Seed      int64
}

// NewDistanceAnomalyDetector creates a new distance-based anomaly detector.
// reference <= 0 compares every row with every other row.
func NewDistanceAnomalyDetector(reference int, seed int64) *DistanceAnomalyDetector {
	return &DistanceAnomalyDetector{Reference: reference, Seed: seed}
}

// Detect returns one score per row, min-max scaled to [0,1] (higher = more
// anomalous)
func (d *DistanceAnomalyDetector) Detect(rows [][]float64, k int) []float64 {
	n := len(rows)
	if n == 0 {
		return []float64{}
	}

	ref := d.reference(n)
	if k <= 0 {
		k = 5
	}
	if k >= len(ref) {
		k = len(ref) - 1
	}

	scores := make([]float64, n)
	distances := make([]float64, 0, len(ref))
	for i, row := range rows {
		distances = distances[:0]
		for _, j := range ref {
			if j != i {
				distances = append(distances, floats.Distance(row, rows[j], 2))
			}
		}
		sort.Float64s(distances)

		m := min(k, len(distances))
		if m > 0 {
			scores[i] = floats.Sum(distances[:m]) / float64(m)
		}
	}

	return normalizeScores(scores)
}

// reference returns the sorted indices of the rows distances are measured to
func (d *DistanceAnomalyDetector) reference(n int) []int {
	if d.Reference <= 0 || n <= d.Reference {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}

	idx := rand.New(rand.NewSource(d.Seed)).Perm(n)[:d.Reference]
	sort.Ints(idx)
	return idx
}

// normalizeScores normalizes scores to 0-1 range using min-max normalization
func normalizeScores(scores []float64) []float64 {
	if len(scores) == 0 {
		return scores
	}

	minScore := floats.Min(scores)
	scoreRange := floats.Max(scores) - minScore

	normalized := make([]float64, len(scores))
	if scoreRange == 0 || math.IsNaN(scoreRange) {
		// All scores are the same
		for i := range normalized {
			normalized[i] = 0.5
		}
		return normalized
	}

	for i, score := range scores {
		normalized[i] = (score - minScore) / scoreRange
	}
	return normalized
}
