package textproc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
	porterstemmer "github.com/reiver/go-porterstemmer"
)

// Stemmer reduces a single normalized word to its stem
type Stemmer interface {
	Stem(word string) string
	Name() string
}

// StemmerFunc adapts a plain function to the Stemmer interface
type StemmerFunc struct {
	name string
	fn   func(string) string
}

// Stem applies the wrapped function
func (s StemmerFunc) Stem(word string) string {
	return s.fn(word)
}

// Name returns the registered name
func (s StemmerFunc) Name() string {
	return s.name
}

const (
	StemmerSnowball = "snowball"
	StemmerPorter   = "porter"
)

var stemmers = map[string]func(string) string{
	// Porter2, the same rule set R's SnowballC uses for English
	StemmerSnowball: func(word string) string {
		return english.Stem(word, true)
	},
	StemmerPorter: porterstemmer.StemString,
}

// CanonicalStemmerName folds case and surrounding space; empty selects
// the default stemmer
func CanonicalStemmerName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return StemmerSnowball
	}
	return name
}

// NewStemmer returns the stemmer registered under name
func NewStemmer(name string) (Stemmer, error) {
	name = CanonicalStemmerName(name)
	fn, ok := stemmers[name]
	if !ok {
		return nil, fmt.Errorf("unknown stemmer %q (available: %s)", name, strings.Join(StemmerNames(), ", "))
	}
	return StemmerFunc{name: name, fn: fn}, nil
}

// StemmerNames lists the registered stemmers
func StemmerNames() []string {
	names := make([]string, 0, len(stemmers))
	for name := range stemmers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StemTokens stems every dictionary token, keeping its (DocID, Pos) key
func StemTokens(dict []Token, s Stemmer) []StemToken {
	stems := make([]StemToken, len(dict))
	for i, tok := range dict {
		stems[i] = StemToken{DocID: tok.DocID, Pos: tok.Pos, Stem: s.Stem(tok.Word)}
	}
	return stems
}
