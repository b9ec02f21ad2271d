// Package config loads analysis settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/todmy/moments-analyzer/internal/anomaly"
	"github.com/todmy/moments-analyzer/internal/storage"
	"github.com/todmy/moments-analyzer/internal/textproc"
	"github.com/todmy/moments-analyzer/internal/visualization"
)

// ErrInvalidConfig is returned by Validate
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the full set of analysis parameters
type Config struct {
	Seed          int64               `yaml:"seed"`
	Input         InputConfig         `yaml:"input"`
	Text          TextConfig          `yaml:"text"`
	DTM           DTMConfig           `yaml:"dtm"`
	Clustering    ClusteringConfig    `yaml:"clustering"`
	Topics        TopicsConfig        `yaml:"topics"`
	Visualization VisualizationConfig `yaml:"visualization"`
	Outliers      OutliersConfig      `yaml:"outliers"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
}

// InputConfig locates the text in the raw table
type InputConfig struct {
	TextColumn string   `yaml:"text_column"`
	Delimiter  string   `yaml:"delimiter"`
	NullValues []string `yaml:"null_values"`
}

// TextConfig controls cleaning
type TextConfig struct {
	Stemmer      string   `yaml:"stemmer"`
	Lexicon      string   `yaml:"lexicon"`
	Stopwords    []string `yaml:"stopwords"`
	StoplistPath string   `yaml:"stoplist"`
}

// DTMConfig bounds the vocabulary
type DTMConfig struct {
	MinDocFraction float64 `yaml:"min_doc_fraction"`
	MaxDocFraction float64 `yaml:"max_doc_fraction"`
}

// ClusteringConfig controls k-means
type ClusteringConfig struct {
	K             int     `yaml:"k"`
	MaxK          int     `yaml:"max_k"`
	NInit         int     `yaml:"n_init"`
	MaxIter       int     `yaml:"max_iter"`
	Tolerance     float64 `yaml:"tolerance"`
	Workers       int     `yaml:"workers"`
	Keywords      int     `yaml:"keywords"`
	IDFFloor      float64 `yaml:"idf_floor"`
	NormalizeRows bool    `yaml:"normalize_rows"`
}

// TopicsConfig controls LDA
type TopicsConfig struct {
	K                    int     `yaml:"k"`
	Iterations           int     `yaml:"iterations"`
	TransformationPasses int     `yaml:"transformation_passes"`
	Alpha                float64 `yaml:"alpha"`
	Eta                  float64 `yaml:"eta"`
	TopTerms             int     `yaml:"top_terms"`
}

// VisualizationConfig controls the plot feeds
type VisualizationConfig struct {
	Method       string   `yaml:"method"`
	TopTerms     int      `yaml:"top_terms"`
	MinPairCount int      `yaml:"min_pair_count"`
	AxisTerms    []string `yaml:"axis_terms"`

	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// OutliersConfig controls outlier scoring of the clustered documents. The
// stage is off unless enabled.
type OutliersConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Detector   string  `yaml:"detector"`
	Neighbors  int     `yaml:"neighbors"`
	Trees      int     `yaml:"trees"`
	SampleSize int     `yaml:"sample_size"`
	Threshold  float64 `yaml:"threshold"`
}

// OutputConfig names the output directory
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// StoreConfig selects the optional results database. An empty driver
// disables storage.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		Seed: 1,
		Input: InputConfig{
			TextColumn: "cleaned_hm",
			Delimiter:  ",",
			NullValues: []string{"NA"},
		},
		Text: TextConfig{
			Stemmer:   textproc.StemmerSnowball,
			Lexicon:   textproc.LexiconSnowball,
			Stopwords: slices.Clone(textproc.CorpusStopwords),
		},
		DTM: DTMConfig{
			MinDocFraction: 0.01,
		},
		Clustering: ClusteringConfig{
			K:             4,
			MaxK:          10,
			NInit:         20,
			MaxIter:       25,
			Tolerance:     1e-8,
			Workers:       1,
			Keywords:      10,
			NormalizeRows: true,
		},
		Topics: TopicsConfig{
			K:                    4,
			Iterations:           1000,
			TransformationPasses: 500,
			Alpha:                0.1,
			Eta:                  0.01,
			TopTerms:             10,
		},
		Visualization: VisualizationConfig{
			Method:       visualization.MethodPCA,
			TopTerms:     50,
			MinPairCount: 2,

			SimilarityThreshold: 0.5,
		},
		Outliers: OutliersConfig{
			Enabled:    false,
			Detector:   string(anomaly.DetectorEnsemble),
			Neighbors:  5,
			Trees:      100,
			SampleSize: 256,
			Threshold:  0.7,
		},
		Output: OutputConfig{
			Dir: "out",
		},
	}
}

// Load reads a YAML file over the defaults
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks ranges and names
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(len([]rune(c.Input.Delimiter)) <= 1, "input.delimiter must be a single character, got %q", c.Input.Delimiter)
	check(slices.Contains(textproc.StemmerNames(), textproc.CanonicalStemmerName(c.Text.Stemmer)),
		"text.stemmer %q not one of %v", c.Text.Stemmer, textproc.StemmerNames())
	check(c.DTM.MinDocFraction >= 0 && c.DTM.MinDocFraction <= 1, "dtm.min_doc_fraction %v outside [0,1]", c.DTM.MinDocFraction)
	check(c.DTM.MaxDocFraction >= 0 && c.DTM.MaxDocFraction <= 1, "dtm.max_doc_fraction %v outside [0,1]", c.DTM.MaxDocFraction)
	check(c.DTM.MaxDocFraction == 0 || c.DTM.MaxDocFraction >= c.DTM.MinDocFraction,
		"dtm.max_doc_fraction %v below min_doc_fraction %v", c.DTM.MaxDocFraction, c.DTM.MinDocFraction)
	check(c.Clustering.K >= 0, "clustering.k must not be negative, got %d", c.Clustering.K)
	check(c.Clustering.NInit >= 0, "clustering.n_init must not be negative, got %d", c.Clustering.NInit)
	check(c.Clustering.MaxIter >= 0, "clustering.max_iter must not be negative, got %d", c.Clustering.MaxIter)
	check(c.Clustering.IDFFloor >= 0, "clustering.idf_floor must not be negative, got %v", c.Clustering.IDFFloor)
	check(c.Topics.K >= 1, "topics.k must be positive, got %d", c.Topics.K)
	check(c.Topics.Alpha >= 0 && c.Topics.Eta >= 0, "topics priors must not be negative")
	check(c.Visualization.Method == visualization.MethodPCA || c.Visualization.Method == visualization.MethodTerms,
		"visualization.method %q not one of [%s %s]", c.Visualization.Method, visualization.MethodPCA, visualization.MethodTerms)
	check(c.Visualization.SimilarityThreshold >= 0 && c.Visualization.SimilarityThreshold <= 1,
		"visualization.similarity_threshold %v outside [0,1]", c.Visualization.SimilarityThreshold)
	if c.Outliers.Enabled {
		_, err := anomaly.ParseDetector(c.Outliers.Detector)
		check(err == nil, "outliers.detector: %v", err)
		check(c.Outliers.Threshold > 0 && c.Outliers.Threshold <= 1, "outliers.threshold %v outside (0,1]", c.Outliers.Threshold)
	}
	if c.Store.Driver != "" {
		_, err := storage.DialectFor(c.Store.Driver)
		check(err == nil, "store.driver: %v", err)
		check(c.Store.DSN != "", "store.dsn is required with driver %q", c.Store.Driver)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
