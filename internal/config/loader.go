package config

import (
	"fmt"

	"github.com/todmy/moments-analyzer/internal/anomaly"
	"github.com/todmy/moments-analyzer/internal/clustering"
	"github.com/todmy/moments-analyzer/internal/corpus"
	"github.com/todmy/moments-analyzer/internal/textproc"
	"github.com/todmy/moments-analyzer/internal/topics"
	"github.com/todmy/moments-analyzer/internal/vectorize"
	"github.com/todmy/moments-analyzer/internal/visualization"
)

// Stemmer builds the configured stemmer
func (c *Config) Stemmer() (textproc.Stemmer, error) {
	s, err := textproc.NewStemmer(c.Text.Stemmer)
	if err != nil {
		return nil, fmt.Errorf("load stemmer: %w", err)
	}
	return s, nil
}

// Stopwords builds the stopword set from the lexicon, the configured words
// and the optional stoplist file
func (c *Config) Stopwords() (*textproc.StopwordSet, error) {
	set, err := textproc.NewStopwordSet(c.Text.Lexicon, c.Text.Stopwords...)
	if err != nil {
		return nil, fmt.Errorf("load stopwords: %w", err)
	}

	if c.Text.StoplistPath != "" {
		sl, err := LoadStoplist(c.Text.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		set = set.With(sl.Terms...)
	}
	return set, nil
}

// ReadOptions returns the raw table options
func (c *Config) ReadOptions() corpus.ReadOptions {
	opts := corpus.ReadOptions{
		TextColumn: c.Input.TextColumn,
		NullValues: c.Input.NullValues,
	}
	if r := []rune(c.Input.Delimiter); len(r) == 1 {
		opts.Comma = r[0]
	}
	return opts
}

// DTMOptions returns the vocabulary bounds
func (c *Config) DTMOptions() vectorize.DTMOptions {
	return vectorize.DTMOptions{
		MinDocFraction: c.DTM.MinDocFraction,
		MaxDocFraction: c.DTM.MaxDocFraction,
	}
}

// ClusterOptions returns the k-means service configuration
func (c *Config) ClusterOptions() clustering.Config {
	return clustering.Config{
		K:                  c.Clustering.K,
		MaxK:               c.Clustering.MaxK,
		NInit:              c.Clustering.NInit,
		MaxIter:            c.Clustering.MaxIter,
		Tolerance:          c.Clustering.Tolerance,
		Seed:               c.Seed,
		Workers:            c.Clustering.Workers,
		KeywordsPerCluster: c.Clustering.Keywords,
		TFIDF: vectorize.TFIDFOptions{
			NormalizeRows: c.Clustering.NormalizeRows,
			IDFFloor:      c.Clustering.IDFFloor,
		},
	}
}

// TopicOptions returns the LDA options
func (c *Config) TopicOptions() topics.Options {
	return topics.Options{
		K:                    c.Topics.K,
		Iterations:           c.Topics.Iterations,
		TransformationPasses: c.Topics.TransformationPasses,
		Alpha:                c.Topics.Alpha,
		Eta:                  c.Topics.Eta,
		Seed:                 c.Seed,
	}
}

// FeedOptions returns the visualization configuration
func (c *Config) FeedOptions() visualization.Config {
	return visualization.Config{
		Method:       c.Visualization.Method,
		TopTerms:     c.Visualization.TopTerms,
		MinPairCount: c.Visualization.MinPairCount,
		AxisTerms:    c.Visualization.AxisTerms,

		SimilarityThreshold: c.Visualization.SimilarityThreshold,
	}
}

// OutlierOptions returns the outlier scoring configuration
func (c *Config) OutlierOptions() anomaly.Config {
	return anomaly.Config{
		Detector:   anomaly.DetectorType(c.Outliers.Detector),
		K:          c.Outliers.Neighbors,
		NumTrees:   c.Outliers.Trees,
		SampleSize: c.Outliers.SampleSize,
		Threshold:  c.Outliers.Threshold,
		Seed:       c.Seed,
	}
}
