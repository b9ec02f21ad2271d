package textproc

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/todmy/moments-analyzer/pkg/models"
)

var (
	// ErrMisaligned means the dictionary and stem streams disagree on a
	// (document, position) key and cannot be joined.
	ErrMisaligned = errors.New("dictionary and stem streams are misaligned")

	// ErrEmptyStem means a stem was recorded without any dictionary word
	ErrEmptyStem = errors.New("stem has no dictionary words")
)

// Pair joins a dictionary word with its stem at one (DocID, Pos)
type Pair struct {
	DocID int
	Pos   int
	Word  string
	Stem  string
}

// Align joins the two streams on (DocID, Pos). Both must have the same
// length and carry identical keys in the same order.
func Align(dict []Token, stems []StemToken) ([]Pair, error) {
	if len(dict) != len(stems) {
		return nil, fmt.Errorf("%w: %d dictionary tokens, %d stems", ErrMisaligned, len(dict), len(stems))
	}

	pairs := make([]Pair, len(dict))
	for i := range dict {
		d, s := dict[i], stems[i]
		if d.DocID != s.DocID || d.Pos != s.Pos {
			return nil, fmt.Errorf("%w: token %d is (%d,%d) but stem is (%d,%d)",
				ErrMisaligned, i, d.DocID, d.Pos, s.DocID, s.Pos)
		}
		pairs[i] = Pair{DocID: d.DocID, Pos: d.Pos, Word: d.Word, Stem: s.Stem}
	}
	return pairs, nil
}

// Table maps each stem to its representative dictionary word
type Table struct {
	reps map[string]string
}

// Representative returns the completion of stem
func (t *Table) Representative(stem string) (string, bool) {
	w, ok := t.reps[stem]
	return w, ok
}

// Len returns the number of stems
func (t *Table) Len() int {
	return len(t.reps)
}

// Stems returns all stems in sorted order
func (t *Table) Stems() []string {
	out := make([]string, 0, len(t.reps))
	for s := range t.reps {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

type wordCount struct {
	word  string
	count int
	first int // index of the first occurrence in key order
}

// BuildTable counts, for every stem, how often each dictionary word maps
// to it across the whole corpus and keeps the most frequent word. On a tie
// the word that occurs first in (DocID, Pos) order wins.
func BuildTable(pairs []Pair) (*Table, error) {
	ordered := make([]Pair, len(pairs))
	copy(ordered, pairs)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DocID != ordered[j].DocID {
			return ordered[i].DocID < ordered[j].DocID
		}
		return ordered[i].Pos < ordered[j].Pos
	})

	groups := make(map[string]map[string]*wordCount)
	for i, p := range ordered {
		g, ok := groups[p.Stem]
		if !ok {
			g = make(map[string]*wordCount)
			groups[p.Stem] = g
		}
		wc, ok := g[p.Word]
		if !ok {
			wc = &wordCount{word: p.Word, first: i}
			g[p.Word] = wc
		}
		wc.count++
	}

	reps := make(map[string]string, len(groups))
	for stem, g := range groups {
		var best *wordCount
		for _, wc := range g {
			if best == nil || wc.count > best.count || (wc.count == best.count && wc.first < best.first) {
				best = wc
			}
		}
		if best == nil {
			return nil, fmt.Errorf("%w: %q", ErrEmptyStem, stem)
		}
		reps[stem] = best.word
	}
	return &Table{reps: reps}, nil
}

// Completion is the result of stem completion over a corpus
type Completion struct {
	Table     *Table
	Documents []models.ProcessedDocument
	Removed   int // tokens dropped as stopwords
}

// Complete rebuilds every document from representative words, skipping
// tokens whose dictionary word is a stopword. The table is built over the
// whole corpus before any document is rewritten. Every input document gets
// an output row, with empty text when nothing survives.
func Complete(docs []models.Document, pairs []Pair, stops *StopwordSet) (*Completion, error) {
	table, err := BuildTable(pairs)
	if err != nil {
		return nil, err
	}

	byDoc := make(map[int][]Pair)
	for _, p := range pairs {
		byDoc[p.DocID] = append(byDoc[p.DocID], p)
	}

	result := &Completion{
		Table:     table,
		Documents: make([]models.ProcessedDocument, len(docs)),
	}
	for i, doc := range docs {
		tokens := byDoc[doc.ID]
		sort.SliceStable(tokens, func(a, b int) bool { return tokens[a].Pos < tokens[b].Pos })

		words := make([]string, 0, len(tokens))
		for _, p := range tokens {
			if stops.Contains(p.Word) {
				result.Removed++
				continue
			}
			rep, ok := table.Representative(p.Stem)
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrEmptyStem, p.Stem)
			}
			words = append(words, rep)
		}

		result.Documents[i] = models.ProcessedDocument{
			ID:   doc.ID,
			Text: strings.Join(words, " "),
			Meta: doc.Meta,
		}
	}
	return result, nil
}

// Processor runs normalization, stemming and stem completion
type Processor struct {
	stemmer Stemmer
	stops   *StopwordSet
	logger  *slog.Logger
}

// NewProcessor creates a processor for the given stemmer and stopwords
func NewProcessor(stemmer Stemmer, stops *StopwordSet) *Processor {
	return &Processor{
		stemmer: stemmer,
		stops:   stops,
		logger:  slog.Default(),
	}
}

// Process cleans the corpus end to end
func (p *Processor) Process(docs []models.Document) (*Completion, error) {
	dict := Tokenize(docs)
	stems := StemTokens(dict, p.stemmer)

	pairs, err := Align(dict, stems)
	if err != nil {
		return nil, fmt.Errorf("align tokens: %w", err)
	}

	completion, err := Complete(docs, pairs, p.stops)
	if err != nil {
		return nil, fmt.Errorf("complete stems: %w", err)
	}

	empty := 0
	for _, d := range completion.Documents {
		if d.Text == "" {
			empty++
		}
	}
	p.logger.Info("text processed",
		"documents", len(docs),
		"tokens", len(dict),
		"stems", completion.Table.Len(),
		"stopwords_removed", completion.Removed,
		"empty_documents", empty,
		"stemmer", p.stemmer.Name(),
	)
	return completion, nil
}
