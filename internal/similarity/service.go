package similarity

import (
	"gonum.org/v1/gonum/mat"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// Service finds terms used in similar documents.
type Service struct {
	threshold float64
}

// NewService creates a new similarity service with the specified threshold.
// If threshold is 0 or negative, uses DefaultThreshold.
func NewService(threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{
		threshold: threshold,
	}
}

// SimilarTerms compares the term columns of a documents x terms weight
// matrix and returns the term pairs whose cosine similarity reaches the
// threshold. Count is the number of documents in which both terms carry
// weight.
func (s *Service) SimilarTerms(weights mat.Matrix, terms []string, threshold float64) []models.TermPair {
	if threshold <= 0 {
		threshold = s.threshold
	}

	_, cols := weights.Dims()
	if cols != len(terms) {
		return []models.TermPair{}
	}

	vectors := make([][]float64, cols)
	for j := range vectors {
		vectors[j] = mat.Col(nil, j, weights)
	}

	pairs := FindSimilarPairs(vectors, threshold)

	results := make([]models.TermPair, len(pairs))
	for i, pair := range pairs {
		results[i] = models.TermPair{
			Term1:       terms[pair.Idx1],
			Term2:       terms[pair.Idx2],
			Count:       coPresent(vectors[pair.Idx1], vectors[pair.Idx2]),
			Correlation: pair.Similarity,
		}
	}

	return results
}

func coPresent(a, b []float64) int {
	count := 0
	for i := range a {
		if a[i] != 0 && b[i] != 0 {
			count++
		}
	}
	return count
}
