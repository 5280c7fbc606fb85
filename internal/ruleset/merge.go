package ruleset

import (
	"sort"
	"strings"
)

// Field group names used in the inheritance chain.
const (
	GroupStopwords      = "stopwords"
	GroupIntentPatterns = "intent_patterns"
	GroupHookPatterns   = "hook_patterns"
	GroupSafety         = "safety_keywords"
	GroupDiscovery      = "discovery_thresholds"
	GroupRuleThresholds = "rule_thresholds"
	GroupKPIWeights     = "kpi_weights"
	GroupOverrides      = "weight_overrides"
)

// Resolve merges scoped fragments into the active configuration for ctx.
//
// Merging is a left fold over the fixed scope order (base, vertical, market,
// client, app): a later fragment's present field groups override earlier
// ones, absent groups inherit. Pointer-structured groups (rule thresholds,
// KPI weights, discovery) merge per field; list groups replace wholesale.
// Weight overrides accumulate instead of replacing so multiplier chains
// survive across scopes.
//
// Resolve never fails: malformed or out-of-scope signals are excluded and
// reported via LeakWarnings.
func Resolve(ctx Context, fragments []ScopedFragment) *RuleSet {
	rs := &RuleSet{
		Context:          ctx,
		RuleThresholds:   make(map[string]RuleThreshold),
		InheritanceChain: make(map[string]ScopeRef),
		LeakWarnings:     []LeakWarning{},
		Overrides:        []WeightOverride{},
	}

	var (
		stopwords []StopwordEntry
		stopRef   ScopeRef
	)

	for _, scope := range ScopeOrder {
		for _, sf := range fragments {
			if sf.Scope != scope || sf.Fragment == nil {
				continue
			}
			frag := sf.Fragment
			ref := ScopeRef{Scope: sf.Scope, SourceID: sf.SourceID}

			if frag.Stopwords != nil {
				stopwords = frag.Stopwords
				stopRef = ref
				rs.InheritanceChain[GroupStopwords] = ref
			}
			if frag.IntentPatterns != nil {
				rs.IntentPatterns = tagPatterns(frag.IntentPatterns, scope)
				rs.InheritanceChain[GroupIntentPatterns] = ref
			}
			if frag.HookPatterns != nil {
				rs.HookPatterns = frag.HookPatterns
				rs.InheritanceChain[GroupHookPatterns] = ref
			}
			if frag.Safety != nil {
				rs.Safety = *frag.Safety
				rs.InheritanceChain[GroupSafety] = ref
			}
			if frag.Discovery != nil {
				mergeDiscovery(&rs.Discovery, frag.Discovery)
				rs.InheritanceChain[GroupDiscovery] = ref
			}
			for id, th := range frag.RuleThresholds {
				merged := rs.RuleThresholds[id]
				mergeThreshold(&merged, th)
				rs.RuleThresholds[id] = merged
				rs.InheritanceChain[GroupRuleThresholds+"."+id] = ref
			}
			if frag.KPIWeights != nil {
				mergeKPIWeights(&rs.KPIWeights, frag.KPIWeights)
				rs.InheritanceChain[GroupKPIWeights] = ref
			}
			for _, ov := range frag.Overrides {
				if ov.Multiplier <= 0 {
					continue
				}
				ov.Scope = scope
				ov.SourceID = sf.SourceID
				rs.Overrides = append(rs.Overrides, ov)
				rs.InheritanceChain[GroupOverrides] = ref
			}
		}
	}

	rs.Stopwords = filterStopwords(ctx, stopwords, stopRef.Scope, &rs.LeakWarnings)
	rs.IntentPatterns = filterPatterns(ctx, rs.IntentPatterns, &rs.LeakWarnings)
	rs.HookPatterns = filterHooks(ctx, rs.HookPatterns, rs.InheritanceChain[GroupHookPatterns].Scope, &rs.LeakWarnings)

	// Stable order: priority descending, insertion order on ties. Sorting
	// once here keeps classifier tie-breaks reproducible.
	sort.SliceStable(rs.IntentPatterns, func(i, j int) bool {
		return rs.IntentPatterns[i].Priority > rs.IntentPatterns[j].Priority
	})

	return rs
}

func tagPatterns(in []IntentPattern, scope Scope) []IntentPattern {
	out := make([]IntentPattern, len(in))
	copy(out, in)
	for i := range out {
		out[i].Scope = scope
	}
	return out
}

// leaks reports whether a signal restricted to another vertical or market
// would apply here.
func leaks(ctx Context, category, locale string) (string, bool) {
	if category != "" && !strings.EqualFold(category, ctx.Category) {
		return "restricted to vertical " + category, true
	}
	if locale != "" && !strings.EqualFold(locale, ctx.Locale) {
		return "restricted to market " + locale, true
	}
	return "", false
}

func filterStopwords(ctx Context, entries []StopwordEntry, scope Scope, warnings *[]LeakWarning) []string {
	out := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		word := strings.ToLower(strings.TrimSpace(e.Word))
		if word == "" {
			continue
		}
		if reason, bad := leaks(ctx, e.Category, e.Locale); bad {
			*warnings = append(*warnings, LeakWarning{
				Scope:  scope,
				Kind:   "stopword",
				Signal: word,
				Reason: reason,
			})
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func filterPatterns(ctx Context, patterns []IntentPattern, warnings *[]LeakWarning) []IntentPattern {
	out := make([]IntentPattern, 0, len(patterns))
	for _, p := range patterns {
		if !p.IsActive() {
			continue
		}
		if reason, bad := leaks(ctx, p.Category, p.Locale); bad {
			*warnings = append(*warnings, LeakWarning{
				Scope:  p.Scope,
				Kind:   "intent_pattern",
				Signal: p.Pattern,
				Reason: reason,
			})
			continue
		}
		out = append(out, p)
	}
	return out
}

func filterHooks(ctx Context, hooks []HookPattern, scope Scope, warnings *[]LeakWarning) []HookPattern {
	out := make([]HookPattern, 0, len(hooks))
	for _, h := range hooks {
		if reason, bad := leaks(ctx, h.Category, h.Locale); bad {
			*warnings = append(*warnings, LeakWarning{
				Scope:  scope,
				Kind:   "hook_pattern",
				Signal: h.Phrase,
				Reason: reason,
			})
			continue
		}
		out = append(out, h)
	}
	return out
}

func mergeDiscovery(dst *DiscoveryThresholds, src *DiscoveryThresholds) {
	if src.MinKeywordLength != nil {
		dst.MinKeywordLength = src.MinKeywordLength
	}
	if src.ComboMinSize != nil {
		dst.ComboMinSize = src.ComboMinSize
	}
	if src.ComboMaxSize != nil {
		dst.ComboMaxSize = src.ComboMaxSize
	}
}

func mergeThreshold(dst *RuleThreshold, src RuleThreshold) {
	if src.Enabled != nil {
		dst.Enabled = src.Enabled
	}
	if src.Weight != nil {
		dst.Weight = src.Weight
	}
	if src.Low != nil {
		dst.Low = src.Low
	}
	if src.High != nil {
		dst.High = src.High
	}
	if len(src.Limits) > 0 {
		if dst.Limits == nil {
			dst.Limits = make(map[string]int, len(src.Limits))
		}
		for k, v := range src.Limits {
			dst.Limits[k] = v
		}
	}
	if len(src.Params) > 0 {
		if dst.Params == nil {
			dst.Params = make(map[string]float64, len(src.Params))
		}
		for k, v := range src.Params {
			dst.Params[k] = v
		}
	}
}

func mergeKPIWeights(dst *KPIWeights, src *KPIWeights) {
	if src.Title != nil {
		dst.Title = src.Title
	}
	if src.Subtitle != nil {
		dst.Subtitle = src.Subtitle
	}
	if src.Description != nil {
		dst.Description = src.Description
	}
	if src.IntentAlignment != nil {
		dst.IntentAlignment = src.IntentAlignment
	}
	if src.FallbackFloor != nil {
		dst.FallbackFloor = src.FallbackFloor
	}
}
