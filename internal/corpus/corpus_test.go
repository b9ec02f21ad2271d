package corpus

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/todmy/moments-analyzer/pkg/models"
)

const raw = "\ufeffhmid,cleaned_hm,predicted_category\n" +
	"27673,I love my dog.,affection\n" +
	"27674,\"My dog, loves me\",affection\n" +
	"27675,NA,leisure\n" +
	"27676,,achievement\n"

func TestRead(t *testing.T) {
	table, err := Read(strings.NewReader(raw), DefaultReadOptions())
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(table.MetaHeader, []string{"hmid", "predicted_category"}) {
		t.Errorf("meta header = %v", table.MetaHeader)
	}
	if len(table.Documents) != 4 {
		t.Fatalf("expected 4 documents, got %d", len(table.Documents))
	}

	want := models.Document{ID: 2, Raw: "My dog, loves me", Meta: []string{"27674", "affection"}}
	if !reflect.DeepEqual(table.Documents[1], want) {
		t.Errorf("document 2 = %+v, want %+v", table.Documents[1], want)
	}
	if table.Documents[2].Raw != "" || table.Documents[3].Raw != "" {
		t.Error("null and empty text should read as empty")
	}
	if table.Documents[3].ID != 4 {
		t.Errorf("ids should follow row order, got %d", table.Documents[3].ID)
	}
}

func TestReadMissingColumn(t *testing.T) {
	_, err := Read(strings.NewReader(raw), ReadOptions{TextColumn: "original_hm"})
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}

	if _, err := Read(strings.NewReader(""), DefaultReadOptions()); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn on empty input, got %v", err)
	}
}

func TestProcessedRoundTrip(t *testing.T) {
	docs := []models.ProcessedDocument{
		{ID: 1, Text: "love dog", Meta: []string{"27673", "affection"}},
		{ID: 2, Text: "", Meta: []string{"27675", "leisure"}},
	}

	path := filepath.Join(t.TempDir(), "processed.csv")
	err := WriteFile(path, func(w io.Writer) error {
		return WriteProcessed(w, []string{"hmid", "predicted_category"}, docs)
	})
	if err != nil {
		t.Fatal(err)
	}

	header, got, err := ReadProcessedFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(header, []string{"hmid", "predicted_category"}) {
		t.Errorf("header = %v", header)
	}
	if !reflect.DeepEqual(got, docs) {
		t.Errorf("documents = %+v, want %+v", got, docs)
	}
}

func TestReadProcessedRejectsRawTable(t *testing.T) {
	if _, _, err := ReadProcessed(strings.NewReader(raw)); !errors.Is(err, ErrMissingColumn) {
		t.Errorf("expected ErrMissingColumn, got %v", err)
	}
}

func TestWriteAssignments(t *testing.T) {
	var buf bytes.Buffer
	err := WriteAssignments(&buf, []models.Assignment{
		{DocID: 1, Cluster: 1, Assigned: true},
		{DocID: 2, Cluster: 0, Assigned: false},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := "id,cluster\n1,1\n2,unassigned\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteDocumentTopics(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDocumentTopics(&buf, []models.DocumentTopics{
		{DocID: 1, Gamma: []float64{0.25, 0.75}, Assigned: true},
		{DocID: 2},
	}, 2)
	if err != nil {
		t.Fatal(err)
	}

	want := "id,topic,topic_1,topic_2\n1,2,0.25,0.75\n2,unassigned,,\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestWriteTables(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTopicTerms(&buf, []models.TopicTerm{{Topic: 1, Term: "dog", Beta: 0.5}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "topic,term,beta\n1,dog,0.5\n" {
		t.Errorf("topic terms = %q", buf.String())
	}

	buf.Reset()
	if err := WriteTermCounts(&buf, []models.TermCount{{Term: "dog", Count: 3}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "term,count\ndog,3\n" {
		t.Errorf("term counts = %q", buf.String())
	}

	buf.Reset()
	if err := WriteTermPairs(&buf, []models.TermPair{{Term1: "dog", Term2: "park", Count: 2, Correlation: 1}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "term1,term2,count,correlation\ndog,park,2,1\n" {
		t.Errorf("term pairs = %q", buf.String())
	}

	buf.Reset()
	if err := WriteClusterPoints(&buf, []models.ClusterPoint{{DocID: 3, Cluster: 2, X: -1, Y: 0.5}}); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "id,cluster,x,y\n3,2,-1,0.5\n" {
		t.Errorf("points = %q", buf.String())
	}

	buf.Reset()
	err := WriteOutliers(&buf, []models.Outlier{
		{DocID: 1, Score: 0.9, IsOutlier: true, Assigned: true},
		{DocID: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if buf.String() != "id,score,outlier\n1,0.9,true\n2,unassigned,\n" {
		t.Errorf("outliers = %q", buf.String())
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultReadOptions())
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
