package kpi

import (
	"github.com/listinglens/listinglens/internal/rules"
	"github.com/listinglens/listinglens/internal/ruleset"
)

// DefaultFallbackFloor is the minimum normalized score for intent-derived
// components while the classifier is in fallback mode. Tunable via the
// merged ruleset's kpi_weights.fallback_floor.
const DefaultFallbackFloor = 50.0

// IntentKPI is the pseudo rule id of the intent-alignment component.
const IntentKPI = "intent_alignment"

// Provenance records one override multiplier and the scope that applied it.
type Provenance struct {
	Scope      ruleset.Scope `json:"scope"`
	Multiplier float64       `json:"multiplier"`
	SourceID   string        `json:"sourceId,omitempty"`
}

// Score is the effective weight of one KPI with its full multiplier chain:
// effectiveWeight = weight × Π(provenance multipliers).
type Score struct {
	RuleID             string       `json:"ruleId"`
	Weight             float64      `json:"weight"`
	EffectiveWeight    float64      `json:"effectiveWeight"`
	OverrideMultiplier float64      `json:"overrideMultiplier"`
	Provenance         []Provenance `json:"provenance"`
}

// Effective applies every matching override, in merge order, to the base
// weight. Overrides match on rule id and, when set, on the element.
func Effective(ruleID, element string, base float64, overrides []ruleset.WeightOverride) Score {
	s := Score{
		RuleID:             ruleID,
		Weight:             base,
		OverrideMultiplier: 1.0,
		Provenance:         []Provenance{},
	}
	for _, ov := range overrides {
		if ov.RuleID != ruleID {
			continue
		}
		if ov.Element != "" && ov.Element != element {
			continue
		}
		s.OverrideMultiplier *= ov.Multiplier
		s.Provenance = append(s.Provenance, Provenance{
			Scope:      ov.Scope,
			Multiplier: ov.Multiplier,
			SourceID:   ov.SourceID,
		})
	}
	s.EffectiveWeight = s.Weight * s.OverrideMultiplier
	return s
}

// Element is the weighted aggregation of one element's rule results plus the
// intent-alignment component.
type Element struct {
	Score          float64 `json:"score"`
	KPIs           []Score `json:"kpis"`
	IntentScore    float64 `json:"intentScore"`
	IntentDampened bool    `json:"intentDampened,omitempty"`
}

// ScoreElement normalizes rule scores into a 0–100 element score using
// effective weights. The intent-derived component is clamped to the
// fallback floor when the classifier had no patterns to work with.
func ScoreElement(
	element string,
	results []rules.Result,
	thresholds map[string]ruleset.RuleThreshold,
	overrides []ruleset.WeightOverride,
	weights ruleset.KPIWeights,
	intentScore float64,
	fallbackMode bool,
) Element {
	out := Element{KPIs: []Score{}, IntentScore: intentScore}

	var sum, weightSum float64
	for _, r := range results {
		base := thresholds[r.RuleID].WeightOr(1.0)
		s := Effective(r.RuleID, element, base, overrides)
		out.KPIs = append(out.KPIs, s)
		sum += r.Score * s.EffectiveWeight
		weightSum += s.EffectiveWeight
	}

	intentWeight := 1.0
	if weights.IntentAlignment != nil {
		intentWeight = *weights.IntentAlignment
	}
	if intentWeight > 0 {
		if fallbackMode {
			floor := DefaultFallbackFloor
			if weights.FallbackFloor != nil {
				floor = *weights.FallbackFloor
			}
			if out.IntentScore < floor {
				out.IntentScore = floor
				out.IntentDampened = true
			}
		}
		s := Effective(IntentKPI, element, intentWeight, overrides)
		out.KPIs = append(out.KPIs, s)
		sum += out.IntentScore * s.EffectiveWeight
		weightSum += s.EffectiveWeight
	}

	if weightSum > 0 {
		out.Score = sum / weightSum
	}
	if out.Score < 0 {
		out.Score = 0
	}
	if out.Score > 100 {
		out.Score = 100
	}
	return out
}

// Overall combines element scores with the merged element weights.
// Missing weights default to title 0.4, subtitle 0.25, description 0.35.
func Overall(title, subtitle, description float64, w ruleset.KPIWeights) float64 {
	tw, sw, dw := 0.4, 0.25, 0.35
	if w.Title != nil {
		tw = *w.Title
	}
	if w.Subtitle != nil {
		sw = *w.Subtitle
	}
	if w.Description != nil {
		dw = *w.Description
	}
	total := tw + sw + dw
	if total <= 0 {
		return 0
	}
	score := (title*tw + subtitle*sw + description*dw) / total
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
