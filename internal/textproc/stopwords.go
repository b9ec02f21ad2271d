package textproc

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kljensen/snowball/english"
)

// Base stopword lexicons
const (
	LexiconSnowball = "snowball"
	LexiconNone     = "none"
)

// CorpusStopwords are filler words specific to happy-moment narratives
var CorpusStopwords = []string{
	"happy", "ago", "yesterday", "lot", "today", "months", "month",
	"happier", "happiest", "last", "week", "past", "day", "time", "moment",
}

// StopwordSet is an immutable set of words dropped from processed text.
// Lookups are against the original dictionary word, never its stem.
type StopwordSet struct {
	lexicon string
	base    func(string) bool
	words   map[string]struct{}
}

// NewStopwordSet builds a set from a base lexicon plus extra words
func NewStopwordSet(lexicon string, extra ...string) (*StopwordSet, error) {
	s := &StopwordSet{lexicon: lexicon}

	switch lexicon {
	case LexiconSnowball, "":
		s.lexicon = LexiconSnowball
		s.base = english.IsStopWord
	case LexiconNone:
	default:
		return nil, fmt.Errorf("unknown stopword lexicon %q", lexicon)
	}

	s.words = toSet(extra)
	return s, nil
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// With returns a new set extended by words; the receiver is unchanged
func (s *StopwordSet) With(words ...string) *StopwordSet {
	merged := make([]string, 0, len(s.words)+len(words))
	merged = append(merged, s.Extra()...)
	merged = append(merged, words...)
	return &StopwordSet{
		lexicon: s.lexicon,
		base:    s.base,
		words:   toSet(merged),
	}
}

// Contains reports whether word is a stopword
func (s *StopwordSet) Contains(word string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.words[word]; ok {
		return true
	}
	return s.base != nil && s.base(word)
}

// Extra returns the non-lexicon words in sorted order
func (s *StopwordSet) Extra() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
