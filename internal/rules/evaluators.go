package rules

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/textproc"
)

// Default character limits per element (iOS listing lengths).
var defaultLimits = map[string]int{
	"title":       30,
	"subtitle":    30,
	"description": 4000,
}

// evalCharacterUsage scores how much of the allowed space an element uses.
// usage = chars/max; score = min(100, 100×usage/high); passed when usage is
// at least the low threshold and within the limit.
func evalCharacterUsage(in Input, th ruleset.RuleThreshold) Result {
	low := th.LowOr(0.7)
	high := th.HighOr(1.0)
	max := th.Limit(in.Element, defaultLimits[in.Element])
	if max <= 0 {
		max = defaultLimits["title"]
	}

	used := len([]rune(in.Text))
	usage := float64(used) / float64(max)

	var score float64
	passed := usage >= low && usage <= 1.0
	if usage > 1.0 {
		over := usage - 1.0
		score = clamp100(100 - over*200)
	} else {
		score = clamp100(100 * usage / high)
	}

	return Result{
		RuleID: RuleCharacterUsage,
		Score:  score,
		Passed: passed,
		Evidence: fmt.Sprintf("%d of %d characters used (%.1f%%, threshold %.0f%%)",
			used, max, usage*100, low*100),
	}
}

// evalKeywordDensity checks the share of unique keywords in the token
// sequence against a low/high band; both sparse and stuffed text score low.
func evalKeywordDensity(in Input, th ruleset.RuleThreshold) Result {
	low := th.LowOr(0.4)
	high := th.HighOr(0.9)

	if len(in.Tokens) == 0 {
		return Result{
			RuleID:   RuleKeywordDensity,
			Score:    0,
			Passed:   false,
			Evidence: "no tokens to measure",
		}
	}

	density := float64(len(in.Keywords)) / float64(len(in.Tokens))
	var score float64
	switch {
	case density < low:
		score = clamp100(100 * density / low)
	case density > high:
		score = clamp100(100 - 100*(density-high)/(1-high+1e-9))
	default:
		score = 100
	}

	return Result{
		RuleID: RuleKeywordDensity,
		Score:  score,
		Passed: density >= low && density <= high,
		Evidence: fmt.Sprintf("%d unique keywords over %d tokens (density %.2f, band %.2f–%.2f)",
			len(in.Keywords), len(in.Tokens), density, low, high),
	}
}

// evalHookStrength counts weighted occurrences of configured hook phrases.
// target is the weighted hit total that earns a full score.
func evalHookStrength(in Input, th ruleset.RuleThreshold) Result {
	target := th.Param("target", 2.0)
	low := th.LowOr(0.5)

	normalized := textproc.Normalize(in.Text)
	var hits float64
	var found []string
	for _, h := range in.Hooks {
		phrase := textproc.Normalize(h.Phrase)
		if phrase == "" {
			continue
		}
		n := strings.Count(normalized, phrase)
		if n == 0 {
			continue
		}
		w := h.Weight
		if w <= 0 {
			w = 1
		}
		hits += w * float64(n)
		found = append(found, h.Phrase)
	}

	score := clamp100(100 * hits / target)
	evidence := "no hook phrases found"
	if len(found) > 0 {
		evidence = fmt.Sprintf("hooks %s (weighted total %.1f of target %.1f)",
			strings.Join(found, ", "), hits, target)
	}

	return Result{
		RuleID:   RuleHookStrength,
		Score:    score,
		Passed:   score >= 100*low,
		Evidence: evidence,
	}
}

// evalDescriptionLength compares the word count against a configured
// minimum (default 150 words).
func evalDescriptionLength(in Input, th ruleset.RuleThreshold) Result {
	minWords := th.Param("min_words", 150)
	words := len(strings.Fields(in.Text))

	score := clamp100(100 * float64(words) / minWords)
	return Result{
		RuleID:   RuleDescriptionLength,
		Score:    score,
		Passed:   float64(words) >= minWords,
		Evidence: fmt.Sprintf("%d words (minimum %.0f)", words, minWords),
	}
}

// evalDuplicateKeywords penalizes lower-priority elements that mostly repeat
// keywords already claimed by a higher-priority element.
func evalDuplicateKeywords(in Input, th ruleset.RuleThreshold) Result {
	maxRatio := th.Param("max_ratio", 0.3)

	if len(in.Keywords) == 0 {
		return Result{
			RuleID:   RuleDuplicateKeywords,
			Score:    100,
			Passed:   true,
			Evidence: "no keywords",
		}
	}

	dupes := len(in.Keywords) - len(in.NewKeywords)
	ratio := float64(dupes) / float64(len(in.Keywords))

	score := 100.0
	if ratio > maxRatio {
		score = clamp100(100 - 100*(ratio-maxRatio)/(1-maxRatio+1e-9))
	}

	return Result{
		RuleID: RuleDuplicateKeywords,
		Score:  score,
		Passed: ratio <= maxRatio,
		Evidence: fmt.Sprintf("%d of %d keywords repeat a higher-priority element (%.0f%%, allowed %.0f%%)",
			dupes, len(in.Keywords), ratio*100, maxRatio*100),
	}
}

var titleSeparators = []string{" - ", " – ", ": ", " | ", ", "}

// evalTitleFormat checks title hygiene: at most one separator clause and no
// shouting (all-caps words).
func evalTitleFormat(in Input, th ruleset.RuleThreshold) Result {
	penalty := th.Param("violation_penalty", 25)

	var violations []string

	separators := 0
	for _, sep := range titleSeparators {
		separators += strings.Count(in.Text, sep)
	}
	if separators > 1 {
		violations = append(violations, fmt.Sprintf("%d separators (max 1)", separators))
	}

	words := strings.Fields(in.Text)
	caps := 0
	for _, w := range words {
		if len([]rune(w)) >= 3 && isAllCaps(w) {
			caps++
		}
	}
	if len(words) > 0 && float64(caps)/float64(len(words)) > 0.5 {
		violations = append(violations, "more than half the words are all-caps")
	}

	score := clamp100(100 - penalty*float64(len(violations)))
	evidence := "title formatting is clean"
	if len(violations) > 0 {
		evidence = strings.Join(violations, "; ")
	}

	return Result{
		RuleID:   RuleTitleFormat,
		Score:    score,
		Passed:   len(violations) == 0,
		Evidence: evidence,
	}
}

// evalSubtitleComplement rewards subtitles that add keywords instead of
// repeating the title.
func evalSubtitleComplement(in Input, th ruleset.RuleThreshold) Result {
	low := th.LowOr(0.5)

	if len(in.Keywords) == 0 {
		return Result{
			RuleID:   RuleSubtitleComplement,
			Score:    0,
			Passed:   false,
			Evidence: "subtitle has no keywords",
		}
	}

	ratio := float64(len(in.NewKeywords)) / float64(len(in.Keywords))
	return Result{
		RuleID: RuleSubtitleComplement,
		Score:  clamp100(100 * ratio),
		Passed: ratio >= low,
		Evidence: fmt.Sprintf("%d of %d subtitle keywords are new (%.0f%%, threshold %.0f%%)",
			len(in.NewKeywords), len(in.Keywords), ratio*100, low*100),
	}
}

func isAllCaps(w string) bool {
	hasLetter := false
	for _, r := range w {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func clamp100(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
