package anomaly

import (
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// nine rows on top of each other and one far away
func corpus() ([]int, *mat.Dense) {
	data := make([]float64, 0, 30)
	for i := 0; i < 9; i++ {
		data = append(data, 1, 0.01*float64(i), 0)
	}
	data = append(data, 0, 0, 1)
	ids := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	return ids, mat.NewDense(10, 3, data)
}

func TestDistanceDetectorFlagsFarRow(t *testing.T) {
	_, weights := corpus()
	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = weights.RawRowView(i)
	}

	scores := NewDistanceAnomalyDetector(0, 1).Detect(rows, 3)
	if scores[9] != 1 {
		t.Errorf("far row should score 1, got %v", scores[9])
	}
	for i := 0; i < 9; i++ {
		if scores[i] >= 0.1 {
			t.Errorf("row %d scored %v", i, scores[i])
		}
	}
}

func TestDistanceDetectorSampledReference(t *testing.T) {
	_, weights := corpus()
	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = weights.RawRowView(i)
	}

	d := NewDistanceAnomalyDetector(5, 7)
	if ref := d.reference(10); len(ref) != 5 {
		t.Fatalf("expected 5 reference rows, got %v", ref)
	}
	if ref := d.reference(4); len(ref) != 4 {
		t.Errorf("small corpora should use every row, got %v", ref)
	}

	scores := d.Detect(rows, 3)
	if scores[9] != 1 {
		t.Errorf("far row should score 1, got %v", scores[9])
	}
	for i := 0; i < 9; i++ {
		if scores[i] >= 0.1 {
			t.Errorf("row %d scored %v", i, scores[i])
		}
	}
	if again := d.Detect(rows, 3); !reflect.DeepEqual(scores, again) {
		t.Errorf("sampled scores differ between calls: %v vs %v", scores, again)
	}
}

func TestVaryingColumns(t *testing.T) {
	rows := [][]float64{
		{0, 0.5, 0, 1},
		{0, 0.2, 0, 1},
	}
	if got := varyingColumns(rows, []int{0, 1, 2, 3}); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("varyingColumns = %v, want [1]", got)
	}
	if got := varyingColumns(rows[:1], []int{0, 1, 2, 3}); got != nil {
		t.Errorf("a single row has no varying column, got %v", got)
	}
}

func TestNormalizeScoresFlat(t *testing.T) {
	got := normalizeScores([]float64{2, 2, 2})
	if !reflect.DeepEqual(got, []float64{0.5, 0.5, 0.5}) {
		t.Errorf("normalizeScores = %v", got)
	}
}

func TestIsolationForestIsReproducible(t *testing.T) {
	_, weights := corpus()
	rows := make([][]float64, 10)
	for i := range rows {
		rows[i] = weights.RawRowView(i)
	}

	first := NewIsolationForest(50, 8, 3)
	first.Fit(rows)
	a := first.Score(rows)

	second := NewIsolationForest(50, 8, 3)
	second.Fit(rows)
	if b := second.Score(rows); !reflect.DeepEqual(a, b) {
		t.Errorf("scores differ between fits with the same seed: %v vs %v", a, b)
	}

	for i := 0; i < 9; i++ {
		if a[9] <= a[i] {
			t.Errorf("far row %v should outscore row %d (%v)", a[9], i, a[i])
		}
	}
}

func TestIsolationForestConstantColumnsMakeLeaves(t *testing.T) {
	rows := [][]float64{{1, 0}, {1, 0}, {1, 0}, {1, 0}}
	f := NewIsolationForest(5, 4, 1)
	f.Fit(rows)
	for i, root := range f.trees {
		if !root.leaf() || root.size != 4 {
			t.Errorf("tree %d: identical rows should give one leaf, got %+v", i, root)
		}
	}
	for _, s := range f.Score(rows) {
		if math.Abs(s-0.5) > 1e-12 {
			t.Errorf("identical rows should score 0.5, got %v", s)
		}
	}
}

func TestServiceScore(t *testing.T) {
	ids, weights := corpus()
	cfg := DefaultConfig()
	cfg.K = 3
	cfg.Threshold = 0.6

	results := NewService(cfg).Score(ids, weights)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}

	flagged := Outliers(results)
	if len(flagged) != 1 || flagged[0].DocID != 10 {
		t.Errorf("expected document 10 flagged, got %+v", flagged)
	}
	for _, r := range results {
		if !r.Assigned || r.Score < 0 || r.Score > 1 {
			t.Errorf("unexpected result %+v", r)
		}
	}
}

func TestServiceScoreMismatchedIDs(t *testing.T) {
	_, weights := corpus()
	if got := NewService(DefaultConfig()).Score([]int{1}, weights); len(got) != 0 {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestParseDetector(t *testing.T) {
	if d, err := ParseDetector("isolation"); err != nil || d != DetectorIsolation {
		t.Errorf("ParseDetector = %v, %v", d, err)
	}
	if _, err := ParseDetector("lof"); err == nil {
		t.Error("expected error for unknown detector")
	}
}
