package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const rawCorpus = `hmid,cleaned_hm,predicted_category
1,I love my dog,affection
2,My dog loves me,affection
3,I bought a new car,achievement
4,NA,leisure
`

const testConfig = `topics:
  iterations: 30
  transformation_passes: 20
visualization:
  min_pair_count: 1
`

func setup(t *testing.T) (dir, input, cfg string) {
	t.Helper()
	dir = t.TempDir()
	input = filepath.Join(dir, "moments.csv")
	cfg = filepath.Join(dir, "moments.yaml")
	if err := os.WriteFile(input, []byte(rawCorpus), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg, []byte(testConfig), 0644); err != nil {
		t.Fatal(err)
	}
	return dir, input, cfg
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	c := New("test")
	c.rootCmd.SetArgs(args)
	return c.Run()
}

func TestRunCommand(t *testing.T) {
	dir, input, cfg := setup(t)
	out := filepath.Join(dir, "out")

	err := execute(t, "run", input, "-s", "-c", cfg, "-o", out, "--k", "2", "--topics", "2", "--min-doc-fraction", "0", "--outliers")
	if err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(out, "assignments.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header and 4 rows, got %q", lines)
	}
	if lines[1][2:] != lines[2][2:] || lines[3][2:] == lines[1][2:] {
		t.Errorf("unexpected clustering %q", lines)
	}
	if lines[4] != "4,unassigned" {
		t.Errorf("expected unassigned row, got %q", lines[4])
	}
	if _, err := os.Stat(filepath.Join(out, "outliers.csv")); err != nil {
		t.Errorf("missing outliers: %v", err)
	}
}

func TestCleanThenCluster(t *testing.T) {
	dir, input, cfg := setup(t)
	out := filepath.Join(dir, "out")

	if err := execute(t, "clean", input, "-s", "-o", out); err != nil {
		t.Fatal(err)
	}
	processed := filepath.Join(out, "processed.csv")
	data, err := os.ReadFile(processed)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "1,love dog,1,affection") {
		t.Errorf("unexpected processed table %q", data)
	}

	store := filepath.Join(dir, "results.db")
	err = execute(t, "cluster", processed, "-s", "-c", cfg, "-o", out,
		"--k", "2", "--min-doc-fraction", "0", "--skip-topics",
		"--store-driver", "sqlite", "--store-dsn", store)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(out, "assignments.csv")); err != nil {
		t.Errorf("missing assignments: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "topic_terms.csv")); !os.IsNotExist(err) {
		t.Errorf("topic terms written despite --skip-topics: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "outliers.csv")); !os.IsNotExist(err) {
		t.Errorf("outliers written without --outliers: %v", err)
	}
	if _, err := os.Stat(store); err != nil {
		t.Errorf("store not created: %v", err)
	}
}

func TestInvalidFlags(t *testing.T) {
	_, input, _ := setup(t)
	if err := execute(t, "run", input, "-s", "--stemmer", "lancaster"); err == nil {
		t.Error("expected error for unknown stemmer")
	}
	if err := execute(t, "clean"); err == nil {
		t.Error("expected error without input")
	}
}
