package intent

import (
	"regexp"
	"strings"

	"github.com/listinglens/listinglens/internal/ruleset"
)

// Searcher intent taxonomy.
const (
	Informational = "informational"
	Transactional = "transactional"
	Navigational  = "navigational"
	Comparative   = "comparative"
	Unknown       = "unknown"
)

// FallbackConfidence is assigned when no patterns are loaded and the
// classifier cannot do better than "unknown". Empirically chosen; tunable.
const FallbackConfidence = 0.3

// Classification is the result for a single token or combo.
type Classification struct {
	Dominant   string             `json:"dominant"`
	Scores     map[string]float64 `json:"scores,omitempty"`
	Confidence float64            `json:"confidence"`
	Fallback   bool               `json:"fallbackMode,omitempty"`
}

type compiledPattern struct {
	spec ruleset.IntentPattern
	re   *regexp.Regexp // nil for plain substring patterns
	sub  string         // lowercase needle for substring patterns
	pos  int            // insertion position, for tie-breaks
}

// Classifier matches tokens and combos against an ordered, weighted pattern
// table. The table is sorted once at construction (priority descending,
// insertion order on ties) so match and tie-break order are reproducible.
type Classifier struct {
	patterns []compiledPattern
	fallback bool
}

// NewClassifier compiles the merged pattern table. Patterns with invalid
// regexes are skipped; with zero usable patterns the classifier operates in
// fallback mode. Callers pass patterns already leak-filtered and sorted by
// the ruleset resolver.
func NewClassifier(patterns []ruleset.IntentPattern) *Classifier {
	compiled := make([]compiledPattern, 0, len(patterns))
	for i, p := range patterns {
		if !p.IsActive() || strings.TrimSpace(p.Pattern) == "" {
			continue
		}
		cp := compiledPattern{spec: p, pos: i}
		if p.IsRegex {
			re, err := regexp.Compile("(?i)" + p.Pattern)
			if err != nil {
				continue
			}
			cp.re = re
		} else {
			cp.sub = strings.ToLower(p.Pattern)
		}
		compiled = append(compiled, cp)
	}
	return &Classifier{
		patterns: compiled,
		fallback: len(compiled) == 0,
	}
}

// FallbackMode reports whether the classifier has no active patterns. The
// KPI layer dampens intent-derived scores in this state so infrastructure
// gaps do not read as metadata weakness.
func (c *Classifier) FallbackMode() bool { return c.fallback }

// Classify accumulates weight for every matching pattern (not only the
// first) and returns the dominant intent. Ties are broken by the highest
// priority that contributed to each intent, then by insertion order.
func (c *Classifier) Classify(term string) Classification {
	if c.fallback {
		return Classification{
			Dominant:   Unknown,
			Confidence: FallbackConfidence,
			Fallback:   true,
		}
	}

	lc := strings.ToLower(term)
	scores := make(map[string]float64)
	bestPriority := make(map[string]int) // highest matched priority per intent
	firstPos := make(map[string]int)     // earliest matched position per intent
	matches := 0

	for _, p := range c.patterns {
		var hit bool
		if p.re != nil {
			hit = p.re.MatchString(term)
		} else {
			hit = strings.Contains(lc, p.sub)
		}
		if !hit {
			continue
		}
		matches++
		it := p.spec.Intent
		scores[it] += p.spec.Weight
		if cur, ok := bestPriority[it]; !ok || p.spec.Priority > cur {
			bestPriority[it] = p.spec.Priority
		}
		if _, ok := firstPos[it]; !ok {
			firstPos[it] = p.pos
		}
	}

	if matches == 0 {
		return Classification{Dominant: Unknown, Scores: scores, Confidence: 0}
	}

	dominant := Unknown
	for it := range scores {
		if dominant == Unknown {
			dominant = it
			continue
		}
		switch {
		case scores[it] > scores[dominant]:
			dominant = it
		case scores[it] == scores[dominant]:
			if bestPriority[it] > bestPriority[dominant] ||
				(bestPriority[it] == bestPriority[dominant] && firstPos[it] < firstPos[dominant]) {
				dominant = it
			}
		}
	}

	confidence := 0.5 + 0.1*float64(matches)
	if confidence > 1.0 {
		confidence = 1.0
	}

	return Classification{
		Dominant:   dominant,
		Scores:     scores,
		Confidence: confidence,
	}
}
