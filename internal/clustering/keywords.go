package clustering

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Keyword represents a term with its weight inside a cluster
type Keyword struct {
	Word  string
	Score float64
}

// KeywordExtractor ranks the terms of each cluster by mean TF-IDF weight
type KeywordExtractor struct {
	terms []string
}

// NewKeywordExtractor creates an extractor over the DTM vocabulary
func NewKeywordExtractor(terms []string) *KeywordExtractor {
	return &KeywordExtractor{terms: terms}
}

// ExtractKeywords returns the top-k terms of the given rows
func (ke *KeywordExtractor) ExtractKeywords(weights mat.Matrix, rows []int, topK int) []Keyword {
	if len(rows) == 0 {
		return []Keyword{}
	}

	_, cols := weights.Dims()
	scores := make([]float64, cols)
	for _, i := range rows {
		for j := 0; j < cols; j++ {
			scores[j] += weights.At(i, j)
		}
	}

	keywords := make([]Keyword, 0, cols)
	for j, score := range scores {
		if score > 0 {
			keywords = append(keywords, Keyword{Word: ke.terms[j], Score: score / float64(len(rows))})
		}
	}

	// Sort by score, then term for stable output
	sort.Slice(keywords, func(i, j int) bool {
		if keywords[i].Score != keywords[j].Score {
			return keywords[i].Score > keywords[j].Score
		}
		return keywords[i].Word < keywords[j].Word
	})

	// Return top-k
	if topK > 0 && topK < len(keywords) {
		keywords = keywords[:topK]
	}

	return keywords
}

// ExtractClusterKeywords extracts keywords for each cluster. labels are
// 1-based and index the rows of weights.
func (ke *KeywordExtractor) ExtractClusterKeywords(weights mat.Matrix, labels []int, topK int) map[int][]Keyword {
	rows, _ := weights.Dims()
	if rows != len(labels) {
		return nil
	}

	// Group rows by cluster
	clusterRows := make(map[int][]int)
	for i, label := range labels {
		clusterRows[label] = append(clusterRows[label], i)
	}

	result := make(map[int][]Keyword)
	for cluster, members := range clusterRows {
		result[cluster] = ke.ExtractKeywords(weights, members, topK)
	}

	return result
}
