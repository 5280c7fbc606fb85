package audit

import (
	"fmt"
	"sort"

	"github.com/listinglens/listinglens/internal/kpi"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/rules"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/safety"
)

// RuleTransactionalSafety is the pseudo rule id used for risky-language
// recommendations. It ranks after every registry rule on ties.
const RuleTransactionalSafety = "transactional_safety"

// Templated recommendation prose per rule. Kept as plain format strings;
// anything smarter than this is out of scope.
var recommendationTemplates = map[string]string{
	rules.RuleCharacterUsage:     "Use more of the available %s space: %s.",
	rules.RuleKeywordDensity:     "Rebalance %s keyword density: %s.",
	rules.RuleHookStrength:       "Strengthen the %s hook: %s.",
	rules.RuleDescriptionLength:  "Expand the %s: %s.",
	rules.RuleDuplicateKeywords:  "Reduce keyword repetition in the %s: %s.",
	rules.RuleTitleFormat:        "Clean up %s formatting: %s.",
	rules.RuleSubtitleComplement: "Make the %s complement the title: %s.",
	RuleTransactionalSafety:      "Soften risky call-to-action language in the %s: %s.",
}

// buildRecommendations turns failing rule results (and a risky safety
// classification) into candidate recommendations. Severity is the score
// shortfall weighted by the rule's effective weight, so heavily weighted
// failures surface first.
func buildRecommendations(element string, results []rules.Result, rs *ruleset.RuleSet, safetyRes safety.Result) []Recommendation {
	var out []Recommendation
	for _, r := range results {
		if r.Passed {
			continue
		}
		base := rs.RuleThresholds[r.RuleID].WeightOr(1.0)
		ew := kpi.Effective(r.RuleID, element, base, rs.Overrides).EffectiveWeight
		out = append(out, Recommendation{
			RuleID:   r.RuleID,
			Element:  element,
			Severity: (100 - r.Score) * ew,
			Message:  renderRecommendation(r.RuleID, element, r.Evidence),
		})
	}

	if safetyRes.Safety == safety.Risky {
		flags := "risky phrasing detected"
		if len(safetyRes.RiskFlags) > 0 {
			flags = fmt.Sprintf("flagged %v", safetyRes.RiskFlags)
		}
		out = append(out, Recommendation{
			RuleID:   RuleTransactionalSafety,
			Element:  element,
			Severity: safetyRes.RiskScore,
			Message:  renderRecommendation(RuleTransactionalSafety, element, flags),
		})
	}
	return out
}

func renderRecommendation(ruleID, element, evidence string) string {
	tmpl, ok := recommendationTemplates[ruleID]
	if !ok {
		tmpl = "Improve %s: %s."
	}
	return fmt.Sprintf(tmpl, element, evidence)
}

func elementOrderIndex(element string) int {
	for i, el := range listing.ElementOrder {
		if el == element {
			return i
		}
	}
	return len(listing.ElementOrder)
}

// rankRecommendations sorts candidates by severity descending, breaking
// ties by rule registry order and then element order. The sort is stable so
// equal entries keep their build order.
func rankRecommendations(recs []Recommendation, topN int) []Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Severity != recs[j].Severity {
			return recs[i].Severity > recs[j].Severity
		}
		ri, rj := rules.RegistryIndex(recs[i].RuleID), rules.RegistryIndex(recs[j].RuleID)
		if ri != rj {
			return ri < rj
		}
		return elementOrderIndex(recs[i].Element) < elementOrderIndex(recs[j].Element)
	})
	if len(recs) > topN {
		recs = recs[:topN]
	}
	if recs == nil {
		recs = []Recommendation{}
	}
	return recs
}
