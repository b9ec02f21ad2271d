package visualization

import (
	"fmt"

	"github.com/todmy/moments-analyzer/internal/clustering"
	"github.com/todmy/moments-analyzer/internal/similarity"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// Reduction methods
const (
	MethodPCA   = "pca"
	MethodTerms = "terms"
)

// Feeds holds the tables consumed by external plotting: bar charts and
// word clouds (TermCounts), network graphs (Pairs, SimilarTerms) and the
// cluster plot (Points)
type Feeds struct {
	TermCounts   []models.TermCount    `json:"term_counts"`
	Pairs        []models.TermPair     `json:"pairs"`
	SimilarTerms []models.TermPair     `json:"similar_terms,omitempty"`
	Points       []models.ClusterPoint `json:"points,omitempty"`
	Method       string                `json:"method,omitempty"`
	Axes         []TermAxis            `json:"axes,omitempty"`
}

// Config holds visualization configuration
type Config struct {
	Method       string
	TopTerms     int
	MinPairCount int
	AxisTerms    []string // required by MethodTerms

	// SimilarityThreshold is the minimum cosine between two TF-IDF term
	// columns for the pair to enter SimilarTerms
	SimilarityThreshold float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Method:       MethodPCA,
		TopTerms:     50,
		MinPairCount: 2,

		SimilarityThreshold: similarity.DefaultThreshold,
	}
}

// Service builds visualization feeds
type Service struct {
	config Config
}

// NewService creates a new visualization service
func NewService(config Config) *Service {
	if config.Method == "" {
		config.Method = MethodPCA
	}
	return &Service{config: config}
}

// Build derives the frequency and co-occurrence tables from the processed
// documents and, when clusters is not nil, the 2-D cluster plot
func (s *Service) Build(docs []models.ProcessedDocument, clusters *clustering.ClusterResult) (*Feeds, error) {
	feeds := &Feeds{
		TermCounts: TermCounts(docs, s.config.TopTerms),
		Pairs:      CooccurrencePairs(docs, s.config.MinPairCount),
	}
	if clusters == nil {
		return feeds, nil
	}

	points, axes, err := s.ClusterPoints(clusters)
	if err != nil {
		return nil, err
	}
	feeds.Points = points
	feeds.Method = s.config.Method
	feeds.Axes = axes
	feeds.SimilarTerms = similarity.NewService(s.config.SimilarityThreshold).
		SimilarTerms(clusters.Weights, clusters.Terms, 0)
	return feeds, nil
}

// ClusterPoints positions every clustered document on two dimensions
func (s *Service) ClusterPoints(clusters *clustering.ClusterResult) ([]models.ClusterPoint, []TermAxis, error) {
	var reducer Reducer
	var axes []TermAxis

	switch s.config.Method {
	case MethodPCA:
		reducer = NewPCAReducer()
	case MethodTerms:
		if len(s.config.AxisTerms) == 0 {
			return nil, nil, fmt.Errorf("terms method requires axis terms")
		}

		var err error
		axes, err = FindTermAxes(clusters.Terms, s.config.AxisTerms)
		if err != nil {
			return nil, nil, fmt.Errorf("find term axes: %w", err)
		}
		reducer = NewTermAxisReducer(axes)
	default:
		return nil, nil, fmt.Errorf("unknown method: %s", s.config.Method)
	}

	coords, err := reducer.Reduce(clusters.Weights, 2)
	if err != nil {
		return nil, nil, fmt.Errorf("reduce: %w", err)
	}

	points := make([]models.ClusterPoint, len(coords))
	for i, coord := range coords {
		p := models.ClusterPoint{
			DocID:   clusters.DocIDs[i],
			Cluster: clusters.Labels[i],
		}
		if len(coord) > 0 {
			p.X = coord[0]
		}
		if len(coord) > 1 {
			p.Y = coord[1]
		}
		points[i] = p
	}

	return points, axes, nil
}
