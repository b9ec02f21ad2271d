package similarity

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 1}, []float64{-1, -1}, -1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1}, []float64{1, 1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityMatrixIsSymmetric(t *testing.T) {
	m := CosineSimilarityMatrix([][]float64{{1, 0}, {1, 1}, {0, 1}})
	for i := range m {
		for j := range m {
			if m[i][j] != m[j][i] {
				t.Errorf("m[%d][%d] = %v, m[%d][%d] = %v", i, j, m[i][j], j, i, m[j][i])
			}
		}
		if math.Abs(m[i][i]-1) > 1e-12 {
			t.Errorf("diagonal %d = %v", i, m[i][i])
		}
	}
}

func TestPhi(t *testing.T) {
	// always together
	if got := Phi(3, 3, 3, 6); math.Abs(got-1) > 1e-12 {
		t.Errorf("Phi perfect = %v, want 1", got)
	}
	// never together, complementary
	if got := Phi(0, 3, 3, 6); math.Abs(got+1) > 1e-12 {
		t.Errorf("Phi exclusive = %v, want -1", got)
	}
	// present everywhere
	if got := Phi(4, 4, 2, 4); got != 0 {
		t.Errorf("Phi ubiquitous = %v, want 0", got)
	}
}

func TestFindSimilarPairs(t *testing.T) {
	vectors := [][]float64{{1, 0}, {0.9, 0.1}, {0, 1}}
	pairs := FindSimilarPairs(vectors, 0.9)
	if len(pairs) != 1 || pairs[0].Idx1 != 0 || pairs[0].Idx2 != 1 {
		t.Errorf("unexpected pairs %+v", pairs)
	}

	all := FindSimilarPairs(vectors, 1e-12)
	if len(all) != 2 || all[0].Similarity < all[1].Similarity {
		t.Errorf("expected 2 positive pairs sorted by similarity, got %+v", all)
	}
}

func TestSimilarTerms(t *testing.T) {
	// documents x terms
	weights := mat.NewDense(3, 3, []float64{
		1, 1, 0,
		1, 1, 0,
		0, 0, 1,
	})

	pairs := NewService(0).SimilarTerms(weights, []string{"dog", "park", "work"}, 0)
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %+v", pairs)
	}
	p := pairs[0]
	if p.Term1 != "dog" || p.Term2 != "park" || p.Count != 2 || math.Abs(p.Correlation-1) > 1e-12 {
		t.Errorf("unexpected pair %+v", p)
	}

	if got := NewService(0).SimilarTerms(weights, []string{"dog"}, 0); len(got) != 0 {
		t.Errorf("expected no pairs for mismatched terms, got %+v", got)
	}
}
