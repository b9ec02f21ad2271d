package textproc

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/todmy/moments-analyzer/pkg/models"
)

// Token is one dictionary word keyed by its document and position
type Token struct {
	DocID int
	Pos   int
	Word  string
}

// StemToken is the stem of the token at the same (DocID, Pos)
type StemToken struct {
	DocID int
	Pos   int
	Stem  string
}

// Normalize cleans raw text: backslashes become spaces, the text is
// lower-cased, punctuation, symbols and digits are removed, and whitespace
// runs collapse to a single space.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ReplaceAll(text, `\`, " ")
	text = norm.NFKC.String(text)

	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r), unicode.IsSymbol(r), unicode.IsDigit(r), unicode.IsControl(r):
			// dropped without a separator, "don't" -> "dont"
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// Tokenize normalizes every document and splits it into the dictionary
// token stream. Positions are 0-based within each document.
func Tokenize(docs []models.Document) []Token {
	var tokens []Token
	for _, doc := range docs {
		for pos, word := range strings.Fields(Normalize(doc.Raw)) {
			tokens = append(tokens, Token{DocID: doc.ID, Pos: pos, Word: word})
		}
	}
	return tokens
}
