package topics

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/floats"

	"github.com/todmy/moments-analyzer/internal/vectorize"
	"github.com/todmy/moments-analyzer/pkg/models"
)

func corpus(t *testing.T) *vectorize.DTM {
	t.Helper()
	texts := []string{
		"dog walk park", "park dog friend", "walk dog",
		"work promotion boss", "boss raise work", "promotion raise",
		"",
		"dinner family friend", "family dinner", "friend dinner movie",
	}
	docs := make([]models.ProcessedDocument, len(texts))
	for i, text := range texts {
		docs[i] = models.ProcessedDocument{ID: i + 1, Text: text}
	}
	dtm, err := vectorize.BuildDTM(docs, vectorize.DefaultDTMOptions())
	if err != nil {
		t.Fatal(err)
	}
	return dtm
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.K = 3
	opts.Iterations = 40
	opts.TransformationPasses = 20
	opts.Seed = 11
	return opts
}

func TestFitBetaRowsSumToOne(t *testing.T) {
	m, err := Fit(corpus(t), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	beta := m.Beta()
	if len(beta) != m.K*len(m.Terms) {
		t.Fatalf("expected %d beta cells, got %d", m.K*len(m.Terms), len(beta))
	}
	sums := make([]float64, m.K)
	for _, cell := range beta {
		if cell.Beta < 0 {
			t.Errorf("negative probability %+v", cell)
		}
		sums[cell.Topic-1] += cell.Beta
	}
	for topic, sum := range sums {
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("topic %d sums to %v", topic+1, sum)
		}
	}
}

func TestFitExcludesEmptyRows(t *testing.T) {
	m, err := Fit(corpus(t), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	docs := m.DocumentTopics()
	if len(docs) != 10 {
		t.Fatalf("expected a mixture per row, got %d", len(docs))
	}
	for _, d := range docs {
		if d.DocID == 7 {
			if d.Assigned || d.Gamma != nil || d.Dominant() != 0 {
				t.Errorf("empty document should be unassigned: %+v", d)
			}
			continue
		}
		if !d.Assigned || len(d.Gamma) != 3 {
			t.Errorf("document %d missing mixture: %+v", d.DocID, d)
			continue
		}
		if math.Abs(floats.Sum(d.Gamma)-1) > 1e-9 {
			t.Errorf("document %d mixture sums to %v", d.DocID, floats.Sum(d.Gamma))
		}
	}
}

func TestFitIsReproducible(t *testing.T) {
	dtm := corpus(t)
	first, err := Fit(dtm, testOptions())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Fit(dtm, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first.Beta(), second.Beta()) {
		t.Error("beta differs between runs with the same seed")
	}
	if !reflect.DeepEqual(first.DocumentTopics(), second.DocumentTopics()) {
		t.Error("document topics differ between runs with the same seed")
	}
}

func TestTopTerms(t *testing.T) {
	m, err := Fit(corpus(t), testOptions())
	if err != nil {
		t.Fatal(err)
	}

	top := m.TopTerms(3)
	if len(top) != 3 {
		t.Fatalf("expected 3 topics, got %d", len(top))
	}
	for i, terms := range top {
		if len(terms) != 3 {
			t.Errorf("topic %d has %d terms", i+1, len(terms))
		}
		for j := 1; j < len(terms); j++ {
			if terms[j].Beta > terms[j-1].Beta {
				t.Errorf("topic %d terms not sorted: %+v", i+1, terms)
			}
		}
	}
}

func TestTransform(t *testing.T) {
	dtm := corpus(t)
	m, err := Fit(dtm, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	docs, err := m.Transform(dtm)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 10 || docs[6].Assigned {
		t.Errorf("unexpected transform output: %+v", docs)
	}

	other, err := vectorize.BuildDTM([]models.ProcessedDocument{{ID: 1, Text: "zebra"}}, vectorize.DTMOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Transform(other); err == nil {
		t.Error("expected vocabulary mismatch error")
	}
}

func TestFitRejectsZeroTopics(t *testing.T) {
	opts := testOptions()
	opts.K = 0
	if _, err := Fit(corpus(t), opts); err == nil {
		t.Error("expected error for zero topics")
	}
}
