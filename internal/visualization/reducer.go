package visualization

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Reducer defines the interface for dimensionality reduction
type Reducer interface {
	Reduce(rows mat.Matrix, dims int) ([][]float64, error)
	Name() string
}

// PCAReducer implements PCA dimensionality reduction
type PCAReducer struct{}

// NewPCAReducer creates a new PCA reducer
func NewPCAReducer() *PCAReducer {
	return &PCAReducer{}
}

// Name returns the reducer name
func (r *PCAReducer) Name() string {
	return MethodPCA
}

// Reduce projects the rows onto their first dims principal components
func (r *PCAReducer) Reduce(rows mat.Matrix, dims int) ([][]float64, error) {
	n, d := rows.Dims()
	if n == 0 || d == 0 {
		return nil, nil
	}

	if dims > d {
		dims = d
	}
	if dims > n {
		dims = n
	}

	// Center the data
	centered := mat.NewDense(n, d, nil)
	centered.Copy(rows)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, centered)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, col[i]-mean)
		}
	}

	// Compute SVD
	var svd mat.SVD
	ok := svd.Factorize(centered, mat.SVDThin)
	if !ok {
		return nil, fmt.Errorf("SVD factorization failed")
	}

	// Get V matrix (right singular vectors)
	var v mat.Dense
	svd.VTo(&v)

	// Project onto first dims components
	_, vc := v.Dims()
	if dims > vc {
		dims = vc
	}
	vReduced := v.Slice(0, d, 0, dims)
	result := mat.NewDense(n, dims, nil)
	result.Mul(centered, vReduced)

	reduced := make([][]float64, n)
	for i := 0; i < n; i++ {
		reduced[i] = mat.Row(nil, i, result)
	}

	// Normalize to [-1, 1] range for plotting
	return normalizeCoordinates(reduced), nil
}

// normalizeCoordinates scales coordinates to [-1, 1] range
func normalizeCoordinates(coords [][]float64) [][]float64 {
	if len(coords) == 0 {
		return coords
	}

	dims := len(coords[0])
	mins := make([]float64, dims)
	maxs := make([]float64, dims)

	for j := 0; j < dims; j++ {
		mins[j] = math.MaxFloat64
		maxs[j] = -math.MaxFloat64
	}

	for _, coord := range coords {
		for j, v := range coord {
			if v < mins[j] {
				mins[j] = v
			}
			if v > maxs[j] {
				maxs[j] = v
			}
		}
	}

	normalized := make([][]float64, len(coords))
	for i, coord := range coords {
		normalized[i] = make([]float64, dims)
		for j, v := range coord {
			rng := maxs[j] - mins[j]
			if rng == 0 {
				normalized[i][j] = 0
			} else {
				normalized[i][j] = 2*(v-mins[j])/rng - 1
			}
		}
	}

	return normalized
}
