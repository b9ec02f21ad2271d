package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// CosineSimilarity calculates the cosine similarity between two vectors.
// Returns 0 when the lengths differ or either vector is zero.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	magA := math.Sqrt(floats.Dot(a, a))
	magB := math.Sqrt(floats.Dot(b, b))

	// Avoid division by zero
	if magA == 0 || magB == 0 {
		return 0
	}

	return floats.Dot(a, b) / (magA * magB)
}

// CosineSimilarityMatrix calculates pairwise cosine similarity for all vectors.
// The matrix is symmetric; the diagonal is 1 for non-zero vectors.
func CosineSimilarityMatrix(vectors [][]float64) [][]float64 {
	n := len(vectors)
	matrix := make([][]float64, n)
	for i := range matrix {
		matrix[i] = make([]float64, n)
	}

	// Only compute upper triangle since matrix is symmetric
	for i := 0; i < n; i++ {
		matrix[i][i] = CosineSimilarity(vectors[i], vectors[i])
		for j := i + 1; j < n; j++ {
			sim := CosineSimilarity(vectors[i], vectors[j])
			matrix[i][j] = sim
			matrix[j][i] = sim
		}
	}

	return matrix
}

// Phi returns the phi coefficient of two binary variables observed over
// total documents: both is the number containing both terms, first and
// second the number containing each. Returns 0 when either term is
// present in none or all of the documents.
func Phi(both, first, second, total int) float64 {
	n := float64(total)
	n11 := float64(both)
	n1 := float64(first)
	n2 := float64(second)

	denom := n1 * (n - n1) * n2 * (n - n2)
	if denom <= 0 {
		return 0
	}
	return (n*n11 - n1*n2) / math.Sqrt(denom)
}
