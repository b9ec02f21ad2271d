package similarity

import (
	"sort"
)

// SimilarPair represents a pair of similar items with their similarity score.
type SimilarPair struct {
	Idx1       int     // Index of first item
	Idx2       int     // Index of second item
	Similarity float64 // Similarity score
}

const DefaultThreshold = 0.5

// FindSimilarPairs finds all pairs of vectors with similarity at or above
// the threshold, keeping only (i,j) with i < j. Pairs are sorted by
// similarity descending, then by index.
func FindSimilarPairs(vectors [][]float64, threshold float64) []SimilarPair {
	return FindSimilarPairsFromMatrix(CosineSimilarityMatrix(vectors), threshold)
}

// FindSimilarPairsFromMatrix finds similar pairs from a precomputed similarity matrix.
func FindSimilarPairsFromMatrix(matrix [][]float64, threshold float64) []SimilarPair {
	if len(matrix) == 0 {
		return []SimilarPair{}
	}

	// Use default threshold if not specified
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	pairs := []SimilarPair{}

	// Only iterate upper triangle to avoid duplicates and self-pairs
	for i := 0; i < len(matrix); i++ {
		for j := i + 1; j < len(matrix[i]); j++ {
			if matrix[i][j] >= threshold {
				pairs = append(pairs, SimilarPair{
					Idx1:       i,
					Idx2:       j,
					Similarity: matrix[i][j],
				})
			}
		}
	}

	sortPairs(pairs)
	return pairs
}

func sortPairs(pairs []SimilarPair) {
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a].Similarity != pairs[b].Similarity {
			return pairs[a].Similarity > pairs[b].Similarity
		}
		if pairs[a].Idx1 != pairs[b].Idx1 {
			return pairs[a].Idx1 < pairs[b].Idx1
		}
		return pairs[a].Idx2 < pairs[b].Idx2
	})
}
