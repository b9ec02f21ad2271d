package visualization

import (
	"sort"
	"strings"

	"github.com/todmy/moments-analyzer/internal/similarity"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// TermCounts returns the corpus frequency of every term, most frequent
// first and ties by term. top <= 0 returns all terms.
func TermCounts(docs []models.ProcessedDocument, top int) []models.TermCount {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, term := range strings.Fields(doc.Text) {
			counts[term]++
		}
	}

	out := make([]models.TermCount, 0, len(counts))
	for term, count := range counts {
		out = append(out, models.TermCount{Term: term, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Term < out[j].Term
	})

	if top > 0 && top < len(out) {
		out = out[:top]
	}
	return out
}

type termPair struct {
	t1, t2 string
}

// CooccurrencePairs counts, for every pair of terms, the documents that
// contain both, and keeps pairs seen in at least minCount documents.
// Correlation is the phi coefficient over the documents with any term.
// Pairs are sorted by count, then correlation, then terms.
func CooccurrencePairs(docs []models.ProcessedDocument, minCount int) []models.TermPair {
	if minCount < 1 {
		minCount = 1
	}

	total := 0
	df := make(map[string]int)
	pairs := make(map[termPair]int)
	for _, doc := range docs {
		unique := uniqueSorted(strings.Fields(doc.Text))
		if len(unique) == 0 {
			continue
		}
		total++
		for _, t := range unique {
			df[t]++
		}
		for i := 0; i < len(unique); i++ {
			for j := i + 1; j < len(unique); j++ {
				pairs[termPair{t1: unique[i], t2: unique[j]}]++
			}
		}
	}

	out := make([]models.TermPair, 0, len(pairs))
	for pair, count := range pairs {
		if count < minCount {
			continue
		}
		out = append(out, models.TermPair{
			Term1:       pair.t1,
			Term2:       pair.t2,
			Count:       count,
			Correlation: similarity.Phi(count, df[pair.t1], df[pair.t2], total),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Correlation != b.Correlation {
			return a.Correlation > b.Correlation
		}
		if a.Term1 != b.Term1 {
			return a.Term1 < b.Term1
		}
		return a.Term2 < b.Term2
	})
	return out
}

func uniqueSorted(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
