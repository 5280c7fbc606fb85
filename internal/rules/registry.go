package rules

import (
	"sort"

	"github.com/listinglens/listinglens/internal/ruleset"
)

// Rule ids. Registry order is the tie-break order for recommendations, so
// the slice below is append-only.
const (
	RuleCharacterUsage     = "character_usage"
	RuleKeywordDensity     = "keyword_density"
	RuleHookStrength       = "hook_strength"
	RuleDescriptionLength  = "description_length"
	RuleDuplicateKeywords  = "duplicate_keywords"
	RuleTitleFormat        = "title_format"
	RuleSubtitleComplement = "subtitle_complement"
)

// Input is everything an evaluator may look at. Evaluators are pure
// functions of Input and the merged threshold; they never read global state.
type Input struct {
	Element     string
	Text        string
	Tokens      []string
	Keywords    []string
	NewKeywords []string
	Combos      []string
	Hooks       []ruleset.HookPattern
}

// Result is one rule's verdict for one element.
type Result struct {
	RuleID   string  `json:"ruleId"`
	Score    float64 `json:"score"` // 0–100
	Passed   bool    `json:"passed"`
	Evidence string  `json:"evidence,omitempty"`
}

// Evaluator is a named, pure scoring function restricted to certain elements.
type Evaluator struct {
	ID       string
	Elements []string
	Eval     func(in Input, th ruleset.RuleThreshold) Result
}

func (e Evaluator) appliesTo(element string) bool {
	if len(e.Elements) == 0 {
		return true
	}
	for _, el := range e.Elements {
		if el == element {
			return true
		}
	}
	return false
}

// Registry is the fixed evaluator table in canonical order.
var Registry = []Evaluator{
	{ID: RuleCharacterUsage, Eval: evalCharacterUsage},
	{ID: RuleKeywordDensity, Eval: evalKeywordDensity},
	{ID: RuleHookStrength, Eval: evalHookStrength},
	{ID: RuleDescriptionLength, Elements: []string{"description"}, Eval: evalDescriptionLength},
	{ID: RuleDuplicateKeywords, Elements: []string{"subtitle", "description"}, Eval: evalDuplicateKeywords},
	{ID: RuleTitleFormat, Elements: []string{"title"}, Eval: evalTitleFormat},
	{ID: RuleSubtitleComplement, Elements: []string{"subtitle"}, Eval: evalSubtitleComplement},
}

// RegistryIndex returns the canonical position of a rule id, or len(Registry)
// for unknown ids. Used for stable recommendation ordering.
func RegistryIndex(ruleID string) int {
	for i, e := range Registry {
		if e.ID == ruleID {
			return i
		}
	}
	return len(Registry)
}

// EvaluateAll runs every applicable, enabled evaluator against the element
// in registry order. Rule ids present in the merged thresholds but unknown
// to the registry are skipped and reported as configuration gaps, never as
// errors.
func EvaluateAll(in Input, thresholds map[string]ruleset.RuleThreshold) ([]Result, []string) {
	results := make([]Result, 0, len(Registry))
	for _, ev := range Registry {
		if !ev.appliesTo(in.Element) {
			continue
		}
		th := thresholds[ev.ID]
		if !th.IsEnabled() {
			continue
		}
		results = append(results, ev.Eval(in, th))
	}

	var gaps []string
	for id := range thresholds {
		if RegistryIndex(id) == len(Registry) {
			gaps = append(gaps, "unknown rule id in merged thresholds: "+id)
		}
	}
	sort.Strings(gaps)
	return results, gaps
}
