// Package topics fits LDA topic models over a document-term matrix.
package topics

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/james-bowman/nlp"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/todmy/moments-analyzer/internal/vectorize"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// ErrNoDocuments is returned when no row of the DTM has a surviving term
var ErrNoDocuments = errors.New("no documents with terms to model")

// Options configures the topic model
type Options struct {
	K                    int
	Iterations           int
	TransformationPasses int
	Alpha                float64 // document-topic prior
	Eta                  float64 // topic-word prior
	Seed                 int64
}

// DefaultOptions returns default options
func DefaultOptions() Options {
	return Options{
		K:                    4,
		Iterations:           1000,
		TransformationPasses: 500,
		Alpha:                0.1,
		Eta:                  0.01,
		Seed:                 1,
	}
}

// Model is a fitted LDA model
type Model struct {
	K     int
	Terms []string

	lda  *nlp.LatentDirichletAllocation
	beta *mat.Dense // topics x terms, rows sum to 1
	docs []models.DocumentTopics
}

// Fit trains LDA on the raw counts of the non-empty rows of dtm. Rows
// without terms are excluded and come back unassigned from DocumentTopics.
func Fit(dtm *vectorize.DTM, opts Options) (*Model, error) {
	defaults := DefaultOptions()
	if opts.K < 1 {
		return nil, fmt.Errorf("topic count must be positive, got %d", opts.K)
	}
	if opts.Iterations <= 0 {
		opts.Iterations = defaults.Iterations
	}
	if opts.TransformationPasses <= 0 {
		opts.TransformationPasses = defaults.TransformationPasses
	}
	if opts.Alpha <= 0 {
		opts.Alpha = defaults.Alpha
	}
	if opts.Eta <= 0 {
		opts.Eta = defaults.Eta
	}

	sub := dtm.NonEmpty()
	n, terms := sub.Dims()
	if n == 0 {
		return nil, ErrNoDocuments
	}

	lda := nlp.NewLatentDirichletAllocation(opts.K)
	lda.Iterations = opts.Iterations
	lda.TransformationPasses = opts.TransformationPasses
	lda.Alpha = opts.Alpha
	lda.Eta = opts.Eta
	lda.Rnd = rand.New(rand.NewSource(uint64(opts.Seed)))
	lda.Processes = 1

	docsOverTopics, err := lda.FitTransform(sub.TermsByDocs())
	if err != nil {
		return nil, fmt.Errorf("fit lda: %w", err)
	}

	m := &Model{
		K:     opts.K,
		Terms: dtm.Terms,
		lda:   lda,
		beta:  rowStochastic(lda.Components(), opts.K, terms),
	}
	m.docs = mixtures(dtm, sub.DocIDs, docsOverTopics, opts.K)

	slog.Info("topic model fitted",
		"topics", opts.K,
		"terms", terms,
		"documents", n,
		"excluded", len(dtm.DocIDs)-n,
	)
	return m, nil
}

// rowStochastic copies a topics x terms matrix and scales each row to sum to 1
func rowStochastic(components mat.Matrix, k, terms int) *mat.Dense {
	beta := mat.NewDense(k, terms, nil)
	beta.Copy(components)
	for t := 0; t < k; t++ {
		row := beta.RawRowView(t)
		if sum := floats.Sum(row); sum > 0 {
			floats.Scale(1/sum, row)
		}
	}
	return beta
}

// mixtures joins the per-document topic distributions of the modelled rows
// back onto every row of dtm
func mixtures(dtm *vectorize.DTM, modelled []int, topicsOverDocs mat.Matrix, k int) []models.DocumentTopics {
	byDoc := make(map[int][]float64, len(modelled))
	for col, id := range modelled {
		gamma := make([]float64, k)
		for t := range gamma {
			gamma[t] = topicsOverDocs.At(t, col)
		}
		if sum := floats.Sum(gamma); sum > 0 {
			floats.Scale(1/sum, gamma)
		}
		byDoc[id] = gamma
	}

	out := make([]models.DocumentTopics, len(dtm.DocIDs))
	for i, id := range dtm.DocIDs {
		gamma, ok := byDoc[id]
		out[i] = models.DocumentTopics{DocID: id, Gamma: gamma, Assigned: ok}
	}
	return out
}

// Beta returns the topic-term probabilities as a flat table, topic-major
// with terms in vocabulary order
func (m *Model) Beta() []models.TopicTerm {
	out := make([]models.TopicTerm, 0, m.K*len(m.Terms))
	for t := 0; t < m.K; t++ {
		for j, term := range m.Terms {
			out = append(out, models.TopicTerm{Topic: t + 1, Term: term, Beta: m.beta.At(t, j)})
		}
	}
	return out
}

// DocumentTopics returns one mixture per row of the fitted DTM
func (m *Model) DocumentTopics() []models.DocumentTopics {
	return m.docs
}

// TopTerms returns the n most probable terms of every topic, ties broken
// by term
func (m *Model) TopTerms(n int) [][]models.TopicTerm {
	out := make([][]models.TopicTerm, m.K)
	for t := 0; t < m.K; t++ {
		row := make([]models.TopicTerm, len(m.Terms))
		for j, term := range m.Terms {
			row[j] = models.TopicTerm{Topic: t + 1, Term: term, Beta: m.beta.At(t, j)}
		}
		sort.Slice(row, func(a, b int) bool {
			if row[a].Beta != row[b].Beta {
				return row[a].Beta > row[b].Beta
			}
			return row[a].Term < row[b].Term
		})
		if n > 0 && n < len(row) {
			row = row[:n]
		}
		out[t] = row
	}
	return out
}

// Transform infers topic mixtures for the rows of dtm with the fitted
// model. dtm must share the model's vocabulary.
func (m *Model) Transform(dtm *vectorize.DTM) ([]models.DocumentTopics, error) {
	if len(dtm.Terms) != len(m.Terms) {
		return nil, fmt.Errorf("vocabulary has %d terms, model has %d", len(dtm.Terms), len(m.Terms))
	}
	for j, term := range dtm.Terms {
		if m.Terms[j] != term {
			return nil, fmt.Errorf("vocabulary mismatch at column %d: %q != %q", j, term, m.Terms[j])
		}
	}

	sub := dtm.NonEmpty()
	if n, _ := sub.Dims(); n == 0 {
		return nil, ErrNoDocuments
	}

	topicsOverDocs, err := m.lda.Transform(sub.TermsByDocs())
	if err != nil {
		return nil, fmt.Errorf("transform lda: %w", err)
	}
	return mixtures(dtm, sub.DocIDs, topicsOverDocs, m.K), nil
}
