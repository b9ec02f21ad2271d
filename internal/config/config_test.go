package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Outliers.Enabled {
		t.Error("outlier scoring should be off by default")
	}
}

func TestStemmerNameIsCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	for _, name := range []string{"Porter", " SNOWBALL ", ""} {
		cfg.Text.Stemmer = name
		if err := cfg.Validate(); err != nil {
			t.Errorf("stemmer %q rejected: %v", name, err)
		}
		if _, err := cfg.Stemmer(); err != nil {
			t.Errorf("stemmer %q not built: %v", name, err)
		}
	}
}

func TestDisabledOutliersSkipDetectorCheck(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Outliers.Detector = "lof"
	if err := cfg.Validate(); err != nil {
		t.Errorf("detector checked while outliers are off: %v", err)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "moments.yaml", `seed: 42
text:
  stemmer: porter
  stopwords:
    - happy
dtm:
  min_doc_fraction: 0.05
clustering:
  k: 6
  normalize_rows: false
topics:
  k: 3
store:
  driver: sqlite
  dsn: results.db
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Seed != 42 || cfg.Text.Stemmer != "porter" || cfg.Clustering.K != 6 || cfg.Topics.K != 3 {
		t.Errorf("values not loaded: %+v", cfg)
	}
	if len(cfg.Text.Stopwords) != 1 {
		t.Errorf("expected stopwords replaced, got %v", cfg.Text.Stopwords)
	}
	// untouched keys keep their defaults
	if cfg.Clustering.NInit != 20 || cfg.Topics.Alpha != 0.1 || cfg.Input.TextColumn != "cleaned_hm" {
		t.Errorf("defaults lost: %+v", cfg)
	}

	opts := cfg.ClusterOptions()
	if opts.Seed != 42 || opts.TFIDF.NormalizeRows {
		t.Errorf("cluster options = %+v", opts)
	}
	if cfg.TopicOptions().Seed != 42 {
		t.Error("topic options should share the seed")
	}
	if cfg.DTMOptions().MinDocFraction != 0.05 {
		t.Errorf("dtm options = %+v", cfg.DTMOptions())
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown stemmer", "text:\n  stemmer: lancaster\n"},
		{"fraction above one", "dtm:\n  min_doc_fraction: 2\n"},
		{"zero topics", "topics:\n  k: 0\n"},
		{"unknown driver", "store:\n  driver: mysql\n  dsn: x\n"},
		{"unknown detector", "outliers:\n  enabled: true\n  detector: lof\n"},
		{"missing dsn", "store:\n  driver: postgres\n"},
		{"unknown method", "visualization:\n  method: tsne\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "bad.yaml", tt.content))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestStopwords(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Text.StoplistPath = writeFile(t, "stoplist.yaml", `terms:
  - dinner
  - friend
`)

	set, err := cfg.Stopwords()
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []string{"the", "happy", "dinner", "friend"} {
		if !set.Contains(w) {
			t.Errorf("expected %q to be a stopword", w)
		}
	}
	if set.Contains("dog") {
		t.Error("dog should not be a stopword")
	}

	cfg.Text.StoplistPath = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := cfg.Stopwords(); err == nil {
		t.Error("expected error for missing stoplist")
	}
}

func TestReadOptionsDelimiter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Delimiter = "\t"
	if cfg.ReadOptions().Comma != '\t' {
		t.Errorf("comma = %q", cfg.ReadOptions().Comma)
	}
}
