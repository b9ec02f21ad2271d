package visualization

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// TermAxis is a plot dimension given by the weight of one vocabulary term
type TermAxis struct {
	Term   string `json:"term"`
	Column int    `json:"-"`
}

// FindTermAxes resolves axis words against the vocabulary
func FindTermAxes(terms []string, words []string) ([]TermAxis, error) {
	index := make(map[string]int, len(terms))
	for j, term := range terms {
		index[term] = j
	}

	axes := make([]TermAxis, 0, len(words))
	for _, word := range words {
		j, ok := index[word]
		if !ok {
			return nil, fmt.Errorf("axis term %q not in vocabulary", word)
		}
		axes = append(axes, TermAxis{Term: word, Column: j})
	}
	return axes, nil
}

// TermAxisReducer implements Reducer by reading the weights of chosen terms
type TermAxisReducer struct {
	axes []TermAxis
}

// NewTermAxisReducer creates a reducer over term axes
func NewTermAxisReducer(axes []TermAxis) *TermAxisReducer {
	return &TermAxisReducer{axes: axes}
}

// Name returns the reducer name
func (r *TermAxisReducer) Name() string {
	return MethodTerms
}

// Reduce projects rows onto the term axes
func (r *TermAxisReducer) Reduce(rows mat.Matrix, dims int) ([][]float64, error) {
	if len(r.axes) == 0 {
		return nil, fmt.Errorf("no term axes defined")
	}

	// Use only the requested number of dimensions
	axes := r.axes
	if dims > 0 && dims < len(axes) {
		axes = axes[:dims]
	}

	n, d := rows.Dims()
	result := make([][]float64, n)
	for i := range result {
		result[i] = make([]float64, len(axes))
		for k, axis := range axes {
			if axis.Column >= d {
				return nil, fmt.Errorf("axis %q column %d outside %d columns", axis.Term, axis.Column, d)
			}
			result[i][k] = rows.At(i, axis.Column)
		}
	}

	return normalizeCoordinates(result), nil
}
