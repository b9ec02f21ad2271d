package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/todmy/moments-analyzer/internal/corpus"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// Output file names
const (
	FileProcessed      = "processed.csv"
	FileAssignments    = "assignments.csv"
	FileDocumentTopics = "document_topics.csv"
	FileTopicTerms     = "topic_terms.csv"
	FileTopTerms       = "top_terms.csv"
	FileTermCounts     = "term_counts.csv"
	FileTermPairs      = "term_pairs.csv"
	FileClusterPoints  = "cluster_points.csv"
	FileOutliers       = "outliers.csv"
	FileSimilarTerms   = "similar_terms.csv"
)

// WriteProcessed writes the cleaning stage table into dir
func WriteProcessed(dir string, metaHeader []string, docs []models.ProcessedDocument) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return corpus.WriteFile(filepath.Join(dir, FileProcessed), func(w io.Writer) error {
		return corpus.WriteProcessed(w, metaHeader, docs)
	})
}

// WriteAnalysis writes every table of a into dir. topTerms bounds the
// per-topic term list.
func WriteAnalysis(dir string, a *Analysis, topTerms int) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	files := map[string]func(io.Writer) error{
		FileAssignments: func(w io.Writer) error { return corpus.WriteAssignments(w, a.Assignments) },
	}
	if a.Topics != nil {
		files[FileTopicTerms] = func(w io.Writer) error { return corpus.WriteTopicTerms(w, a.Topics.Beta()) }
		files[FileDocumentTopics] = func(w io.Writer) error {
			return corpus.WriteDocumentTopics(w, a.DocumentTopics, a.Topics.K)
		}
		files[FileTopTerms] = func(w io.Writer) error {
			var flat []models.TopicTerm
			for _, terms := range a.Topics.TopTerms(topTerms) {
				flat = append(flat, terms...)
			}
			return corpus.WriteTopicTerms(w, flat)
		}
	}
	if a.Outliers != nil {
		files[FileOutliers] = func(w io.Writer) error { return corpus.WriteOutliers(w, a.Outliers) }
	}
	if a.Feeds != nil {
		files[FileTermCounts] = func(w io.Writer) error { return corpus.WriteTermCounts(w, a.Feeds.TermCounts) }
		files[FileTermPairs] = func(w io.Writer) error { return corpus.WriteTermPairs(w, a.Feeds.Pairs) }
		if a.Feeds.SimilarTerms != nil {
			files[FileSimilarTerms] = func(w io.Writer) error { return corpus.WriteTermPairs(w, a.Feeds.SimilarTerms) }
		}
		if a.Feeds.Points != nil {
			files[FileClusterPoints] = func(w io.Writer) error { return corpus.WriteClusterPoints(w, a.Feeds.Points) }
		}
	}

	for name, write := range files {
		if err := corpus.WriteFile(filepath.Join(dir, name), write); err != nil {
			return err
		}
	}
	slog.Info("results written", "dir", dir, "files", len(files))
	return nil
}
