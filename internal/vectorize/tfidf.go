package vectorize

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// TFIDFOptions controls weighting.
//
// IDF is log(N/df) with N the number of non-empty documents. A term found
// in every such document gets IDF 0 and vanishes from the weighted matrix.
// IDFFloor, when positive, replaces any smaller IDF so ubiquitous terms keep
// a little weight. The default leaves IDF unfloored.
type TFIDFOptions struct {
	NormalizeRows bool
	IDFFloor      float64
}

// DefaultTFIDFOptions returns unit-norm rows with no IDF floor
func DefaultTFIDFOptions() TFIDFOptions {
	return TFIDFOptions{NormalizeRows: true}
}

// TFIDF reweights raw counts by IDF and optionally scales each row to unit
// L2 norm. Zero counts stay zero and all-zero rows stay all-zero.
func TFIDF(dtm *DTM, opts TFIDFOptions) *mat.Dense {
	docs, terms := dtm.Dims()
	idf := IDF(dtm, opts.IDFFloor)

	weights := mat.NewDense(docs, terms, nil)
	dtm.DoNonZero(func(i, j int, v float64) {
		weights.Set(i, j, v*idf[j])
	})

	if opts.NormalizeRows {
		for i := 0; i < docs; i++ {
			row := weights.RawRowView(i)
			if norm := floats.Norm(row, 2); norm > 0 {
				floats.Scale(1/norm, row)
			}
		}
	}
	return weights
}

// IDF returns log(N/df) for every term, raised to floor when floor is
// positive. DocFreq only counts non-empty rows, so N does too.
func IDF(dtm *DTM, floor float64) []float64 {
	n := float64(len(dtm.NonEmptyRows()))
	idf := make([]float64, len(dtm.Terms))
	for j, df := range dtm.DocFreq {
		if df > 0 {
			idf[j] = math.Log(n / float64(df))
		}
		if floor > 0 && idf[j] < floor {
			idf[j] = floor
		}
	}
	return idf
}
