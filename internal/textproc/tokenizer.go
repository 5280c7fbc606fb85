package textproc

import (
	"strings"
	"unicode"
)

// Tokenizer splits listing text into normalized tokens and drops stopwords.
// Tokenization is idempotent: feeding the joined token output back in
// returns the same sequence.
type Tokenizer struct {
	stop map[string]struct{}
}

// NewTokenizer builds a tokenizer with the merged stopword set of the
// active scope. Stopwords are compared case-insensitively.
func NewTokenizer(stopwords []string) *Tokenizer {
	stop := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		stop[w] = struct{}{}
	}
	return &Tokenizer{stop: stop}
}

// Normalize lower-cases text, replaces punctuation with spaces and collapses
// runs of whitespace. It keeps letters, digits and intra-word apostrophes
// are dropped along with other punctuation.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens returns the ordered token sequence of text with stopwords removed.
// Duplicates are kept; adjacency matters for combo extraction. Empty or
// whitespace-only input yields an empty, non-nil slice.
func (t *Tokenizer) Tokens(text string) []string {
	fields := strings.Fields(Normalize(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, skip := t.stop[f]; skip {
			continue
		}
		out = append(out, f)
	}
	return out
}

// Unique returns tokens deduplicated in order of first occurrence.
func Unique(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}
