// Package corpus reads the raw and processed document tables and writes
// every result table as delimited text.
package corpus

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// Column names of the processed table
const (
	ColumnID   = "id"
	ColumnText = "text"
)

// ErrMissingColumn is returned when a required column is not in the header
var ErrMissingColumn = errors.New("missing column")

// ReadOptions selects the columns of the raw table
type ReadOptions struct {
	TextColumn string
	Comma      rune
	NullValues []string // field values read as empty text
}

// DefaultReadOptions returns the options for the HappyDB layout
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		TextColumn: "cleaned_hm",
		Comma:      ',',
		NullValues: []string{"NA"},
	}
}

// Table is a document table with its pass-through columns
type Table struct {
	MetaHeader []string
	Documents  []models.Document
}

// Read parses a raw table. Documents are numbered 1.. in row order; every
// column except the text column passes through as metadata.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	if opts.TextColumn == "" {
		opts.TextColumn = DefaultReadOptions().TextColumn
	}

	cr := newReader(r, opts.Comma)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w %q: empty input", ErrMissingColumn, opts.TextColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	textIdx := indexOf(header, opts.TextColumn)
	if textIdx < 0 {
		return nil, fmt.Errorf("%w %q in header %v", ErrMissingColumn, opts.TextColumn, header)
	}

	nulls := make(map[string]struct{}, len(opts.NullValues))
	for _, v := range opts.NullValues {
		nulls[v] = struct{}{}
	}

	table := &Table{MetaHeader: without(header, textIdx)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(table.Documents)+1, err)
		}

		text := record[textIdx]
		if _, ok := nulls[text]; ok {
			text = ""
		}
		table.Documents = append(table.Documents, models.Document{
			ID:   len(table.Documents) + 1,
			Raw:  text,
			Meta: without(record, textIdx),
		})
	}

	return table, nil
}

// ReadFile opens and parses a raw table
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return Read(f, opts)
}

// ReadProcessed parses a table written by WriteProcessed
func ReadProcessed(r io.Reader) ([]string, []models.ProcessedDocument, error) {
	cr := newReader(r, ',')
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 2 || header[0] != ColumnID || header[1] != ColumnText {
		return nil, nil, fmt.Errorf("%w: processed table must start with %q,%q, got %v",
			ErrMissingColumn, ColumnID, ColumnText, header)
	}

	var docs []models.ProcessedDocument
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row: %w", err)
		}

		id, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, nil, fmt.Errorf("parse id %q: %w", record[0], err)
		}
		docs = append(docs, models.ProcessedDocument{
			ID:   id,
			Text: record[1],
			Meta: append([]string(nil), record[2:]...),
		})
	}

	return header[2:], docs, nil
}

// ReadProcessedFile opens and parses a processed table
func ReadProcessedFile(path string) ([]string, []models.ProcessedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open processed corpus: %w", err)
	}
	defer f.Close()

	return ReadProcessed(f)
}

func newReader(r io.Reader, comma rune) *csv.Reader {
	cr := csv.NewReader(r)
	if comma != 0 {
		cr.Comma = comma
	}
	cr.LazyQuotes = true
	return cr
}

func indexOf(header []string, name string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

func without(record []string, idx int) []string {
	out := make([]string, 0, len(record)-1)
	out = append(out, record[:idx]...)
	return append(out, record[idx+1:]...)
}
