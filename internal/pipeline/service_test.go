package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/todmy/moments-analyzer/internal/config"
	"github.com/todmy/moments-analyzer/internal/storage"
	"github.com/todmy/moments-analyzer/pkg/models"
)

type memoryStore struct {
	saved []*storage.Results
}

func (m *memoryStore) Migrate(ctx context.Context) error { return nil }

func (m *memoryStore) Save(ctx context.Context, results *storage.Results) error {
	results.Run.ID = uuid.New()
	m.saved = append(m.saved, results)
	return nil
}

func (m *memoryStore) GetRun(ctx context.Context, id uuid.UUID) (*storage.Run, error) {
	return nil, nil
}

func (m *memoryStore) GetAssignments(ctx context.Context, runID uuid.UUID) ([]models.Assignment, error) {
	return nil, nil
}

func (m *memoryStore) GetTopicTerms(ctx context.Context, runID uuid.UUID) ([]models.TopicTerm, error) {
	return nil, nil
}

func (m *memoryStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func exampleConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.DTM.MinDocFraction = 0
	cfg.Clustering.K = 2
	cfg.Topics.K = 2
	cfg.Topics.Iterations = 30
	cfg.Topics.TransformationPasses = 20
	cfg.Visualization.MinPairCount = 1
	cfg.Outliers.Enabled = true
	return &cfg
}

func exampleDocs() []models.Document {
	return []models.Document{
		{ID: 1, Raw: "I love my dog", Meta: []string{"a1"}},
		{ID: 2, Raw: "My dog loves me", Meta: []string{"a2"}},
		{ID: 3, Raw: "I bought a new car", Meta: []string{"a3"}},
		{ID: 4, Raw: "I, me, my!", Meta: []string{"a4"}},
	}
}

func TestRunExample(t *testing.T) {
	store := &memoryStore{}
	a, err := NewService(exampleConfig(), store).Run(context.Background(), exampleDocs())
	if err != nil {
		t.Fatal(err)
	}

	texts := make([]string, len(a.Documents))
	for i, d := range a.Documents {
		texts[i] = d.Text
	}
	if want := []string{"love dog", "dog love", "bought new car", ""}; !reflect.DeepEqual(texts, want) {
		t.Errorf("processed = %q, want %q", texts, want)
	}
	if a.Documents[3].Meta[0] != "a4" {
		t.Errorf("meta not passed through: %+v", a.Documents[3])
	}

	if want := []string{"bought", "car", "dog", "love", "new"}; !reflect.DeepEqual(a.DTM.Terms, want) {
		t.Errorf("vocabulary = %v, want %v", a.DTM.Terms, want)
	}

	as := a.Assignments
	if len(as) != 4 {
		t.Fatalf("expected an assignment per document, got %d", len(as))
	}
	if as[0].Cluster != as[1].Cluster || as[2].Cluster == as[0].Cluster {
		t.Errorf("document 3 should be separated from 1 and 2: %+v", as)
	}
	if as[3].Label() != models.Unassigned {
		t.Errorf("empty document should be unassigned: %+v", as[3])
	}

	if len(a.DocumentTopics) != 4 || a.DocumentTopics[3].Assigned {
		t.Errorf("unexpected document topics %+v", a.DocumentTopics)
	}
	if len(a.Outliers) != 4 || a.Outliers[3].Assigned || !a.Outliers[0].Assigned {
		t.Errorf("unexpected outliers %+v", a.Outliers)
	}

	if len(store.saved) != 1 || a.RunID == uuid.Nil {
		t.Fatalf("expected one stored run, got %d", len(store.saved))
	}
	saved := store.saved[0]
	if saved.Run.Command != CommandRun || saved.Run.K != 2 || saved.Run.Topics != 2 {
		t.Errorf("unexpected run %+v", saved.Run)
	}
	if len(saved.Centroids) != 2 || len(saved.TopicTerms) != 10 {
		t.Errorf("expected 2 centroids and 10 topic terms, got %d and %d", len(saved.Centroids), len(saved.TopicTerms))
	}
}

func TestRunIsReproducible(t *testing.T) {
	first, err := NewService(exampleConfig(), nil).Run(context.Background(), exampleDocs())
	if err != nil {
		t.Fatal(err)
	}
	second, err := NewService(exampleConfig(), nil).Run(context.Background(), exampleDocs())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first.Assignments, second.Assignments) {
		t.Error("assignments differ between runs")
	}
	if first.RunID != uuid.Nil {
		t.Error("run id set without a store")
	}
}

func TestClusterEmptyCorpus(t *testing.T) {
	_, err := NewService(exampleConfig(), nil).Cluster([]models.ProcessedDocument{{ID: 1}, {ID: 2}})
	if err == nil {
		t.Error("expected error for a corpus without text")
	}
}

func TestWriteAnalysis(t *testing.T) {
	a, err := NewService(exampleConfig(), nil).Run(context.Background(), exampleDocs())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	if err := WriteProcessed(dir, []string{"hmid"}, a.Documents); err != nil {
		t.Fatal(err)
	}
	if err := WriteAnalysis(dir, a, 3); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{
		FileProcessed, FileAssignments, FileDocumentTopics, FileTopicTerms,
		FileTopTerms, FileTermCounts, FileTermPairs, FileClusterPoints, FileOutliers, FileSimilarTerms,
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, FileAssignments))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 || lines[4] != "4,unassigned" {
		t.Errorf("assignments table = %q", lines)
	}

	data, err = os.ReadFile(filepath.Join(dir, FileProcessed))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "4,,a4") {
		t.Errorf("empty document missing from processed table: %q", data)
	}
}
