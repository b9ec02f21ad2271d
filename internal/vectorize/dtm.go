// Package vectorize builds document-term matrices and TF-IDF weights.
package vectorize

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/james-bowman/sparse"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// ErrEmptyVocabulary is returned when the document-frequency bounds leave no terms
var ErrEmptyVocabulary = errors.New("document-frequency bounds leave an empty vocabulary")

// DTMOptions bounds the vocabulary by document frequency
type DTMOptions struct {
	MinDocFraction float64 // keep terms in at least ceil(f*N) documents
	MaxDocFraction float64 // keep terms in at most floor(f*N) documents; 0 disables
}

// DefaultDTMOptions returns the default bounds
func DefaultDTMOptions() DTMOptions {
	return DTMOptions{MinDocFraction: 0.01}
}

// DTM is a sparse document-term count matrix. Rows follow the input
// document order, columns are sorted lexicographically.
type DTM struct {
	DocIDs  []int
	Terms   []string
	DocFreq []int
	counts  *sparse.CSR
	rowNNZ  []int
}

// BuildDTM counts whitespace-delimited terms per document and keeps the
// terms whose document frequency falls inside the bounds
func BuildDTM(docs []models.ProcessedDocument, opts DTMOptions) (*DTM, error) {
	if opts.MinDocFraction < 0 || opts.MinDocFraction > 1 {
		return nil, fmt.Errorf("min document fraction %v outside [0,1]", opts.MinDocFraction)
	}
	if opts.MaxDocFraction < 0 || opts.MaxDocFraction > 1 {
		return nil, fmt.Errorf("max document fraction %v outside [0,1]", opts.MaxDocFraction)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents", ErrEmptyVocabulary)
	}

	n := len(docs)
	tf := make([]map[string]int, n)
	df := make(map[string]int)
	for i, doc := range docs {
		counts := make(map[string]int)
		for _, term := range strings.Fields(doc.Text) {
			counts[term]++
		}
		for term := range counts {
			df[term]++
		}
		tf[i] = counts
	}

	minDF := int(math.Ceil(opts.MinDocFraction * float64(n)))
	if minDF < 1 {
		minDF = 1
	}
	maxDF := n
	if opts.MaxDocFraction > 0 {
		maxDF = int(math.Floor(opts.MaxDocFraction * float64(n)))
	}

	terms := make([]string, 0, len(df))
	for term, count := range df {
		if count >= minDF && count <= maxDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: %d distinct terms, none within df [%d,%d] over %d documents",
			ErrEmptyVocabulary, len(df), minDF, maxDF, n)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for j, term := range terms {
		index[term] = j
	}

	dok := sparse.NewDOK(n, len(terms))
	dtm := &DTM{
		DocIDs:  make([]int, n),
		Terms:   terms,
		DocFreq: make([]int, len(terms)),
		rowNNZ:  make([]int, n),
	}
	for i, doc := range docs {
		dtm.DocIDs[i] = doc.ID
		for term, count := range tf[i] {
			j, ok := index[term]
			if !ok {
				continue
			}
			dok.Set(i, j, float64(count))
			dtm.DocFreq[j]++
			dtm.rowNNZ[i]++
		}
	}
	dtm.counts = dok.ToCSR()

	return dtm, nil
}

// Dims returns the number of documents and terms
func (d *DTM) Dims() (docs, terms int) {
	return len(d.DocIDs), len(d.Terms)
}

// At returns the raw count of term j in document i
func (d *DTM) At(i, j int) float64 {
	return d.counts.At(i, j)
}

// DoNonZero calls fn for every non-zero count
func (d *DTM) DoNonZero(fn func(i, j int, v float64)) {
	d.counts.DoNonZero(fn)
}

// IsEmpty reports whether row i has no surviving terms
func (d *DTM) IsEmpty(i int) bool {
	return d.rowNNZ[i] == 0
}

// EmptyRows returns the row indices without any surviving term
func (d *DTM) EmptyRows() []int {
	var rows []int
	for i, nnz := range d.rowNNZ {
		if nnz == 0 {
			rows = append(rows, i)
		}
	}
	return rows
}

// NonEmptyRows returns the row indices with at least one term
func (d *DTM) NonEmptyRows() []int {
	rows := make([]int, 0, len(d.rowNNZ))
	for i, nnz := range d.rowNNZ {
		if nnz > 0 {
			rows = append(rows, i)
		}
	}
	return rows
}

// NonEmpty returns a DTM restricted to the non-empty rows. The vocabulary
// is unchanged.
func (d *DTM) NonEmpty() *DTM {
	rows := d.NonEmptyRows()
	if len(rows) == len(d.DocIDs) {
		return d
	}

	pos := make(map[int]int, len(rows))
	for k, i := range rows {
		pos[i] = k
	}

	dok := sparse.NewDOK(len(rows), len(d.Terms))
	sub := &DTM{
		DocIDs:  make([]int, len(rows)),
		Terms:   d.Terms,
		DocFreq: d.DocFreq,
		rowNNZ:  make([]int, len(rows)),
	}
	for k, i := range rows {
		sub.DocIDs[k] = d.DocIDs[i]
		sub.rowNNZ[k] = d.rowNNZ[i]
	}
	d.counts.DoNonZero(func(i, j int, v float64) {
		if k, ok := pos[i]; ok {
			dok.Set(k, j, v)
		}
	})
	sub.counts = dok.ToCSR()
	return sub
}

// TermsByDocs returns the counts transposed to terms x documents, the
// orientation topic models expect
func (d *DTM) TermsByDocs() *sparse.CSR {
	docs, terms := d.Dims()
	dok := sparse.NewDOK(terms, docs)
	d.counts.DoNonZero(func(i, j int, v float64) {
		dok.Set(j, i, v)
	})
	return dok.ToCSR()
}

// Row returns the dense counts of document i
func (d *DTM) Row(i int) []float64 {
	row := make([]float64, len(d.Terms))
	for j := range row {
		row[j] = d.counts.At(i, j)
	}
	return row
}
