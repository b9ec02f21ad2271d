// Package anomaly scores documents that sit far from the rest of the corpus
// in TF-IDF space.
package anomaly

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// DetectorType represents the type of anomaly detector to use
type DetectorType string

const (
	DetectorDistance  DetectorType = "distance"
	DetectorIsolation DetectorType = "isolation"
	DetectorEnsemble  DetectorType = "ensemble"
)

// ParseDetector validates a detector name
func ParseDetector(name string) (DetectorType, error) {
	switch d := DetectorType(name); d {
	case DetectorDistance, DetectorIsolation, DetectorEnsemble:
		return d, nil
	}
	return "", fmt.Errorf("unknown outlier detector %q", name)
}

// Config holds anomaly detection service configuration
type Config struct {
	Detector   DetectorType
	K          int     // For distance-based (number of neighbors)
	NumTrees   int     // For isolation forest
	SampleSize int     // Isolation forest sample, and the distance reference set
	Threshold  float64 // Anomaly threshold (0-1)
	Seed       int64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Detector:   DetectorEnsemble,
		K:          5,
		NumTrees:   100,
		SampleSize: 256,
		Threshold:  0.7,
		Seed:       1,
	}
}

// Service provides anomaly detection functionality
type Service struct {
	config Config
}

// NewService creates a new anomaly detection service
func NewService(config Config) *Service {
	defaults := DefaultConfig()
	if config.Detector == "" {
		config.Detector = defaults.Detector
	}
	if config.K <= 0 {
		config.K = defaults.K
	}
	if config.NumTrees <= 0 {
		config.NumTrees = defaults.NumTrees
	}
	if config.SampleSize <= 0 {
		config.SampleSize = defaults.SampleSize
	}
	if config.Threshold <= 0 {
		config.Threshold = defaults.Threshold
	}

	return &Service{config: config}
}

// Score rates every row of weights, whose rows belong to docIDs
func (s *Service) Score(docIDs []int, weights mat.Matrix) []models.Outlier {
	n, _ := weights.Dims()
	if n == 0 || n != len(docIDs) {
		return []models.Outlier{}
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, weights)
	}

	var scores []float64
	switch s.config.Detector {
	case DetectorDistance:
		scores = s.distanceScore(rows)
	case DetectorIsolation:
		scores = s.isolationScore(rows)
	default:
		scores = s.ensembleScore(rows)
	}

	results := make([]models.Outlier, n)
	for i, id := range docIDs {
		results[i] = models.Outlier{
			DocID:     id,
			Score:     scores[i],
			IsOutlier: scores[i] >= s.config.Threshold,
			Assigned:  true,
		}
	}

	slog.Info("outliers scored",
		"detector", s.config.Detector,
		"documents", n,
		"flagged", len(Outliers(results)),
		"threshold", s.config.Threshold,
	)
	return results
}

// Outliers returns only the flagged rows
func Outliers(results []models.Outlier) []models.Outlier {
	var out []models.Outlier
	for _, r := range results {
		if r.IsOutlier {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) distanceScore(rows [][]float64) []float64 {
	return NewDistanceAnomalyDetector(s.config.SampleSize, s.config.Seed).Detect(rows, s.config.K)
}

func (s *Service) isolationScore(rows [][]float64) []float64 {
	forest := NewIsolationForest(s.config.NumTrees, s.config.SampleSize, s.config.Seed)
	forest.Fit(rows)
	return forest.Score(rows)
}

// ensembleScore combines distance and isolation scores
func (s *Service) ensembleScore(rows [][]float64) []float64 {
	distScores := s.distanceScore(rows)
	isoScores := s.isolationScore(rows)

	// Combine with equal weights
	combined := make([]float64, len(rows))
	for i := range rows {
		combined[i] = (distScores[i] + isoScores[i]) / 2.0
	}
	return combined
}
