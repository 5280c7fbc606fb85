package textproc

import "strings"

// Extraction holds the keyword and combo sets of one metadata element,
// including the subsets not already claimed by a higher-priority element.
type Extraction struct {
	Keywords    []string
	NewKeywords []string
	Combos      []string
	NewCombos   []string
}

// ExtractOptions tune extraction; zero values fall back to defaults.
type ExtractOptions struct {
	MinKeywordLength int // tokens shorter than this are not keywords (default 2)
	ComboMinSize     int // default 2
	ComboMaxSize     int // default 3
}

func (o ExtractOptions) normalized() ExtractOptions {
	if o.MinKeywordLength <= 0 {
		o.MinKeywordLength = 2
	}
	if o.ComboMinSize <= 0 {
		o.ComboMinSize = 2
	}
	if o.ComboMaxSize < o.ComboMinSize {
		o.ComboMaxSize = o.ComboMinSize + 1
	}
	return o
}

// SeenSet tracks keywords and combos already claimed by higher-priority
// elements. Element order is fixed (title > subtitle > description), so the
// caller extracts in that order and feeds each result back via Add.
type SeenSet struct {
	keywords map[string]struct{}
	combos   map[string]struct{}
}

func NewSeenSet() *SeenSet {
	return &SeenSet{
		keywords: make(map[string]struct{}),
		combos:   make(map[string]struct{}),
	}
}

// Add marks an extraction's keywords and combos as claimed.
func (s *SeenSet) Add(ex Extraction) {
	for _, k := range ex.Keywords {
		s.keywords[k] = struct{}{}
	}
	for _, c := range ex.Combos {
		s.combos[c] = struct{}{}
	}
}

func (s *SeenSet) hasKeyword(k string) bool {
	_, ok := s.keywords[k]
	return ok
}

func (s *SeenSet) hasCombo(c string) bool {
	_, ok := s.combos[c]
	return ok
}

// Extract builds the unique keyword set and the adjacent 2–3-gram combos of
// one element's token sequence. Sliding windows never cross element
// boundaries. Keyword and combo sets preserve first-occurrence order; the
// "new" sets are plain set differences against seen and are therefore always
// subsets of the element's own sets.
func Extract(tokens []string, seen *SeenSet, opts ExtractOptions) Extraction {
	opts = opts.normalized()
	if seen == nil {
		seen = NewSeenSet()
	}

	ex := Extraction{
		Keywords:    []string{},
		NewKeywords: []string{},
		Combos:      []string{},
		NewCombos:   []string{},
	}

	kwSeen := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < opts.MinKeywordLength {
			continue
		}
		if _, dup := kwSeen[tok]; dup {
			continue
		}
		kwSeen[tok] = struct{}{}
		ex.Keywords = append(ex.Keywords, tok)
		if !seen.hasKeyword(tok) {
			ex.NewKeywords = append(ex.NewKeywords, tok)
		}
	}

	comboSeen := make(map[string]struct{})
	for size := opts.ComboMinSize; size <= opts.ComboMaxSize; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			combo := strings.Join(tokens[i:i+size], " ")
			if _, dup := comboSeen[combo]; dup {
				continue
			}
			comboSeen[combo] = struct{}{}
			ex.Combos = append(ex.Combos, combo)
			if !seen.hasCombo(combo) {
				ex.NewCombos = append(ex.NewCombos, combo)
			}
		}
	}

	return ex
}
