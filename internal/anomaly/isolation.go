package anomaly

import (
	"math"
	"math/rand"
)

// IsolationForest isolates documents with random axis-aligned cuts over
// their TF-IDF columns. A node only cuts on columns whose weights vary
// among its documents; on sparse rows that skips the terms none of them
// use, so every cut separates something.
type IsolationForest struct {
	NumTrees   int
	SampleSize int
	Seed       int64

	trees []*isolationNode
	norm  float64 // average path length for the sample size
	rng   *rand.Rand
}

// isolationNode is a cut (left/right set) or a leaf holding size rows
type isolationNode struct {
	column      int
	cut         float64
	left, right *isolationNode
	size        int
}

func (n *isolationNode) leaf() bool {
	return n.left == nil
}

// NewIsolationForest creates a new isolation forest. The same seed grows
// the same trees.
func NewIsolationForest(numTrees, sampleSize int, seed int64) *IsolationForest {
	if numTrees <= 0 {
		numTrees = 100
	}
	if sampleSize <= 0 {
		sampleSize = 256
	}
	return &IsolationForest{NumTrees: numTrees, SampleSize: sampleSize, Seed: seed}
}

// Fit grows the trees, each on its own sample of rows
func (f *IsolationForest) Fit(rows [][]float64) {
	f.trees = nil
	if len(rows) == 0 {
		return
	}
	f.rng = rand.New(rand.NewSource(f.Seed))

	psi := min(f.SampleSize, len(rows))
	maxDepth := int(math.Ceil(math.Log2(float64(psi))))
	f.norm = averagePathLength(psi)
	if f.norm == 0 {
		f.norm = 1
	}

	all := make([]int, len(rows[0]))
	for j := range all {
		all[j] = j
	}

	f.trees = make([]*isolationNode, f.NumTrees)
	for t := range f.trees {
		sample := f.sample(rows, psi)
		f.trees[t] = f.grow(sample, varyingColumns(sample, all), 0, maxDepth)
	}
}

// Score returns 2^(-E[h(x)]/c(psi)) per row (higher = more anomalous)
func (f *IsolationForest) Score(rows [][]float64) []float64 {
	if len(rows) == 0 || len(f.trees) == 0 {
		return []float64{}
	}

	scores := make([]float64, len(rows))
	for i, row := range rows {
		depth := 0.0
		for _, root := range f.trees {
			depth += pathLength(row, root)
		}
		depth /= float64(len(f.trees))
		scores[i] = math.Pow(2, -depth/f.norm)
	}
	return scores
}

// grow cuts rows on a random varying column until each leaf holds one row
// or maxDepth is reached. cols are the columns that vary among rows.
func (f *IsolationForest) grow(rows [][]float64, cols []int, depth, maxDepth int) *isolationNode {
	if len(rows) <= 1 || depth >= maxDepth || len(cols) == 0 {
		return &isolationNode{size: len(rows)}
	}

	column := cols[f.rng.Intn(len(cols))]
	lo, hi := columnRange(rows, column)
	cut := lo + f.rng.Float64()*(hi-lo)

	var left, right [][]float64
	for _, row := range rows {
		if row[column] < cut {
			left = append(left, row)
		} else {
			right = append(right, row)
		}
	}
	// cut == lo when the draw is 0
	if len(left) == 0 || len(right) == 0 {
		return &isolationNode{size: len(rows)}
	}

	return &isolationNode{
		column: column,
		cut:    cut,
		left:   f.grow(left, varyingColumns(left, cols), depth+1, maxDepth),
		right:  f.grow(right, varyingColumns(right, cols), depth+1, maxDepth),
	}
}

// sample draws psi rows without replacement
func (f *IsolationForest) sample(rows [][]float64, psi int) [][]float64 {
	if psi >= len(rows) {
		return rows
	}
	out := make([][]float64, psi)
	for i, j := range f.rng.Perm(len(rows))[:psi] {
		out[i] = rows[j]
	}
	return out
}

// varyingColumns keeps the columns of cols that take more than one value in
// rows. A column constant in a node stays constant in its children.
func varyingColumns(rows [][]float64, cols []int) []int {
	var out []int
	for _, j := range cols {
		if lo, hi := columnRange(rows, j); lo < hi {
			out = append(out, j)
		}
	}
	return out
}

func columnRange(rows [][]float64, column int) (lo, hi float64) {
	lo, hi = rows[0][column], rows[0][column]
	for _, row := range rows[1:] {
		lo = math.Min(lo, row[column])
		hi = math.Max(hi, row[column])
	}
	return lo, hi
}

func pathLength(row []float64, node *isolationNode) float64 {
	depth := 0.0
	for !node.leaf() {
		if row[node.column] < node.cut {
			node = node.left
		} else {
			node = node.right
		}
		depth++
	}
	return depth + averagePathLength(node.size)
}

// averagePathLength is c(n) = 2H(n-1) - 2(n-1)/n, the mean depth of an
// unsuccessful search in a binary search tree of n keys
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	}
	x := float64(n)
	return 2*(math.Log(x-1)+0.5772156649) - 2*(x-1)/x
}
