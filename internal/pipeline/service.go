// Package pipeline runs the cleaning, partitioning and topic stages over a
// corpus and hands the results to the output writers and the store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/todmy/moments-analyzer/internal/anomaly"
	"github.com/todmy/moments-analyzer/internal/clustering"
	"github.com/todmy/moments-analyzer/internal/config"
	"github.com/todmy/moments-analyzer/internal/storage"
	"github.com/todmy/moments-analyzer/internal/textproc"
	"github.com/todmy/moments-analyzer/internal/topics"
	"github.com/todmy/moments-analyzer/internal/vectorize"
	"github.com/todmy/moments-analyzer/internal/visualization"
	"github.com/todmy/moments-analyzer/pkg/models"
)

// Commands recorded with stored runs
const (
	CommandClean   = "clean"
	CommandCluster = "cluster"
	CommandRun     = "run"
)

// Analysis holds every table produced for one corpus. Assignments and
// DocumentTopics have one row per document, in document order.
type Analysis struct {
	RunID          uuid.UUID
	Documents      []models.ProcessedDocument
	DTM            *vectorize.DTM
	Clusters       *clustering.ClusterResult
	Assignments    []models.Assignment
	Topics         *topics.Model
	DocumentTopics []models.DocumentTopics
	Feeds          *visualization.Feeds
	Outliers       []models.Outlier
}

// Service runs the analysis stages with one configuration
type Service struct {
	cfg   *config.Config
	store storage.ResultRepository
}

// NewService creates a new pipeline service. store may be nil.
func NewService(cfg *config.Config, store storage.ResultRepository) *Service {
	return &Service{cfg: cfg, store: store}
}

// Clean normalizes, stems and stem-completes the raw documents
func (s *Service) Clean(docs []models.Document) (*textproc.Completion, error) {
	stemmer, err := s.cfg.Stemmer()
	if err != nil {
		return nil, err
	}
	stops, err := s.cfg.Stopwords()
	if err != nil {
		return nil, err
	}

	completion, err := textproc.NewProcessor(stemmer, stops).Process(docs)
	if err != nil {
		return nil, fmt.Errorf("clean: %w", err)
	}
	return completion, nil
}

// Cluster builds the DTM over the documents with text and partitions them
// with k-means. Documents without text, or whose terms all fall outside the
// vocabulary, are unassigned.
func (s *Service) Cluster(docs []models.ProcessedDocument) (*Analysis, error) {
	dtm, err := vectorize.BuildDTM(nonEmpty(docs), s.cfg.DTMOptions())
	if err != nil {
		return nil, fmt.Errorf("build dtm: %w", err)
	}

	clusters, err := clustering.NewService(s.cfg.ClusterOptions()).Partition(dtm)
	if err != nil {
		return nil, fmt.Errorf("cluster: %w", err)
	}

	a := &Analysis{
		Documents:   docs,
		DTM:         dtm,
		Clusters:    clusters,
		Assignments: joinAssignments(docs, clusters.Assignments),
	}
	logExclusions("clustering", a.Assignments, func(x models.Assignment) (int, bool) { return x.DocID, x.Assigned })
	return a, nil
}

// Model fits the topic model on the analysis DTM
func (s *Service) Model(a *Analysis) error {
	model, err := topics.Fit(a.DTM, s.cfg.TopicOptions())
	if err != nil {
		return fmt.Errorf("topics: %w", err)
	}

	a.Topics = model
	a.DocumentTopics = joinTopics(a.Documents, model.DocumentTopics())
	logExclusions("topics", a.DocumentTopics, func(x models.DocumentTopics) (int, bool) { return x.DocID, x.Assigned })
	return nil
}

// Visualize derives the plot feeds
func (s *Service) Visualize(a *Analysis) error {
	feeds, err := visualization.NewService(s.cfg.FeedOptions()).Build(a.Documents, a.Clusters)
	if err != nil {
		return fmt.Errorf("visualize: %w", err)
	}
	a.Feeds = feeds
	return nil
}

// Score rates how far each clustered document sits from the rest of the
// corpus in TF-IDF space
func (s *Service) Score(a *Analysis) {
	if a.Clusters == nil {
		return
	}
	scored := anomaly.NewService(s.cfg.OutlierOptions()).Score(a.Clusters.DocIDs, a.Clusters.Weights)
	a.Outliers = joinOutliers(a.Documents, scored)

	if flagged := anomaly.Outliers(scored); len(flagged) > 0 {
		ids := make([]int, len(flagged))
		for i, o := range flagged {
			ids[i] = o.DocID
		}
		slog.Debug("outlier document ids", "ids", ids)
	}
}

// Analyze clusters processed documents, optionally fits topics, scores
// outliers, builds the feeds and stores the run when a store is configured
func (s *Service) Analyze(ctx context.Context, command string, docs []models.ProcessedDocument, withTopics bool) (*Analysis, error) {
	a, err := s.Cluster(docs)
	if err != nil {
		return nil, err
	}
	if withTopics {
		if err := s.Model(a); err != nil {
			return nil, err
		}
	}
	if s.cfg.Outliers.Enabled {
		s.Score(a)
	}
	if err := s.Visualize(a); err != nil {
		return nil, err
	}
	if err := s.Save(ctx, command, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Run cleans raw documents and analyzes them
func (s *Service) Run(ctx context.Context, docs []models.Document) (*Analysis, error) {
	completion, err := s.Clean(docs)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ctx, CommandRun, completion.Documents, true)
}

// Save stores the analysis and sets its run id. It does nothing without a
// store.
func (s *Service) Save(ctx context.Context, command string, a *Analysis) error {
	if s.store == nil {
		return nil
	}

	run := &storage.Run{
		Command:        command,
		Stemmer:        s.cfg.Text.Stemmer,
		Seed:           s.cfg.Seed,
		MinDocFraction: s.cfg.DTM.MinDocFraction,
		Documents:      len(a.Documents),
		CreatedAt:      time.Now().UTC(),
	}
	results := &storage.Results{
		Run:         run,
		Documents:   a.Documents,
		Assignments: a.Assignments,
	}
	if a.Clusters != nil {
		run.K = a.Clusters.K
		run.Inertia = a.Clusters.Inertia
		run.Converged = a.Clusters.Converged
		for _, c := range a.Clusters.Clusters {
			results.Centroids = append(results.Centroids, storage.Centroid{
				Cluster: c.ID,
				Size:    c.Size,
				Vector:  c.Centroid,
			})
		}
	}
	if a.Topics != nil {
		run.Topics = a.Topics.K
		results.TopicTerms = a.Topics.Beta()
	}

	if err := s.store.Save(ctx, results); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	a.RunID = run.ID
	slog.Info("run stored", "run_id", run.ID, "command", command)
	return nil
}

func nonEmpty(docs []models.ProcessedDocument) []models.ProcessedDocument {
	out := make([]models.ProcessedDocument, 0, len(docs))
	for _, d := range docs {
		if d.Text != "" {
			out = append(out, d)
		}
	}
	return out
}

func joinAssignments(docs []models.ProcessedDocument, partial []models.Assignment) []models.Assignment {
	byDoc := make(map[int]models.Assignment, len(partial))
	for _, a := range partial {
		byDoc[a.DocID] = a
	}

	out := make([]models.Assignment, len(docs))
	for i, d := range docs {
		a, ok := byDoc[d.ID]
		if !ok {
			a = models.Assignment{DocID: d.ID}
		}
		out[i] = a
	}
	return out
}

func joinTopics(docs []models.ProcessedDocument, partial []models.DocumentTopics) []models.DocumentTopics {
	byDoc := make(map[int]models.DocumentTopics, len(partial))
	for _, d := range partial {
		byDoc[d.DocID] = d
	}

	out := make([]models.DocumentTopics, len(docs))
	for i, d := range docs {
		t, ok := byDoc[d.ID]
		if !ok {
			t = models.DocumentTopics{DocID: d.ID}
		}
		out[i] = t
	}
	return out
}

func joinOutliers(docs []models.ProcessedDocument, partial []models.Outlier) []models.Outlier {
	byDoc := make(map[int]models.Outlier, len(partial))
	for _, o := range partial {
		byDoc[o.DocID] = o
	}

	out := make([]models.Outlier, len(docs))
	for i, d := range docs {
		o, ok := byDoc[d.ID]
		if !ok {
			o = models.Outlier{DocID: d.ID}
		}
		out[i] = o
	}
	return out
}

func logExclusions[T any](stage string, rows []T, key func(T) (int, bool)) {
	var excluded []int
	for _, r := range rows {
		if id, ok := key(r); !ok {
			excluded = append(excluded, id)
		}
	}
	if len(excluded) > 0 {
		slog.Info("documents unassigned", "stage", stage, "count", len(excluded))
		slog.Debug("unassigned document ids", "stage", stage, "ids", excluded)
	}
}
