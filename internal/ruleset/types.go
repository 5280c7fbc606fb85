package ruleset

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Scope is one precedence level in configuration inheritance.
type Scope string

const (
	ScopeBase     Scope = "base"
	ScopeVertical Scope = "vertical"
	ScopeMarket   Scope = "market"
	ScopeClient   Scope = "client"
	ScopeApp      Scope = "app"
)

// ScopeOrder is the fixed merge order, lowest precedence first.
var ScopeOrder = []Scope{ScopeBase, ScopeVertical, ScopeMarket, ScopeClient, ScopeApp}

// Context selects which fragment applies at each scope.
type Context struct {
	AppID    string
	Category string
	Locale   string
	OrgID    string
}

// Selector returns the scope-specific selector for this context, or "" when
// the scope has no selector here (the fragment is then skipped).
func (c Context) Selector(s Scope) string {
	switch s {
	case ScopeBase:
		return "default"
	case ScopeVertical:
		return c.Category
	case ScopeMarket:
		return c.Locale
	case ScopeClient:
		return c.OrgID
	case ScopeApp:
		return c.AppID
	}
	return ""
}

// StopwordEntry is a stopword, optionally restricted to a vertical or market.
// In YAML it may be written as a bare string or as a mapping:
//
//	stopwords:
//	  - "the"
//	  - { word: "puzzle", category: "games" }
type StopwordEntry struct {
	Word     string `yaml:"word"`
	Category string `yaml:"category,omitempty"`
	Locale   string `yaml:"locale,omitempty"`
}

func (s *StopwordEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Word = node.Value
		return nil
	}
	type plain StopwordEntry
	var p plain
	if err := node.Decode(&p); err != nil {
		return fmt.Errorf("stopword entry: %w", err)
	}
	*s = StopwordEntry(p)
	return nil
}

// IntentPattern matches a token or combo and contributes weight to one
// intent category. Patterns are evaluated in descending priority order;
// ties keep insertion order.
type IntentPattern struct {
	Pattern  string  `yaml:"pattern" json:"pattern"`
	IsRegex  bool    `yaml:"is_regex,omitempty" json:"isRegex,omitempty"`
	Intent   string  `yaml:"intent" json:"intent"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Priority int     `yaml:"priority" json:"priority"`
	Active   *bool   `yaml:"active,omitempty" json:"-"`

	// Optional restriction; outside its category/locale the pattern is a
	// leak and gets excluded with a warning.
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
	Locale   string `yaml:"locale,omitempty" json:"locale,omitempty"`

	// Filled in by the resolver.
	Scope Scope `yaml:"-" json:"scope,omitempty"`
}

// IsActive reports whether the pattern participates in matching.
// Unset means active.
func (p IntentPattern) IsActive() bool {
	return p.Active == nil || *p.Active
}

// HookPattern is a configured hook phrase with a strength weight.
type HookPattern struct {
	Phrase   string  `yaml:"phrase" json:"phrase"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Category string  `yaml:"category,omitempty" json:"category,omitempty"`
	Locale   string  `yaml:"locale,omitempty" json:"locale,omitempty"`
}

// SafetyKeywords configures the transactional safety detector.
type SafetyKeywords struct {
	Risky []string `yaml:"risky" json:"risky"`
	Safe  []string `yaml:"safe" json:"safe"`
}

// DiscoveryThresholds tune tokenization and extraction.
type DiscoveryThresholds struct {
	MinKeywordLength *int `yaml:"min_keyword_length,omitempty" json:"minKeywordLength,omitempty"`
	ComboMinSize     *int `yaml:"combo_min_size,omitempty" json:"comboMinSize,omitempty"`
	ComboMaxSize     *int `yaml:"combo_max_size,omitempty" json:"comboMaxSize,omitempty"`
}

// RuleThreshold is the per-rule configuration consumed by an evaluator.
// Pointer fields distinguish "absent, inherit" from an explicit zero.
type RuleThreshold struct {
	Enabled *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Weight  *float64 `yaml:"weight,omitempty" json:"weight,omitempty"`
	Low     *float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High    *float64 `yaml:"high,omitempty" json:"high,omitempty"`

	// Per-element character limits, e.g. {title: 30, subtitle: 30}.
	Limits map[string]int `yaml:"limits,omitempty" json:"limits,omitempty"`

	// Rule-specific numeric parameters.
	Params map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// IsEnabled reports whether the rule runs. Unset means enabled.
func (t RuleThreshold) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// Param returns a named parameter or the given default.
func (t RuleThreshold) Param(name string, def float64) float64 {
	if v, ok := t.Params[name]; ok {
		return v
	}
	return def
}

// Limit returns a per-element limit or the given default.
func (t RuleThreshold) Limit(element string, def int) int {
	if v, ok := t.Limits[element]; ok {
		return v
	}
	return def
}

// LowOr / HighOr / WeightOr return the band values with defaults.
func (t RuleThreshold) LowOr(def float64) float64 {
	if t.Low != nil {
		return *t.Low
	}
	return def
}

func (t RuleThreshold) HighOr(def float64) float64 {
	if t.High != nil {
		return *t.High
	}
	return def
}

func (t RuleThreshold) WeightOr(def float64) float64 {
	if t.Weight != nil {
		return *t.Weight
	}
	return def
}

// KPIWeights drives element aggregation and the overall score.
type KPIWeights struct {
	Title       *float64 `yaml:"title,omitempty" json:"title,omitempty"`
	Subtitle    *float64 `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	Description *float64 `yaml:"description,omitempty" json:"description,omitempty"`

	// Weight of the intent-alignment component inside each element score.
	IntentAlignment *float64 `yaml:"intent_alignment,omitempty" json:"intentAlignment,omitempty"`

	// Floor applied to intent-derived scores when the classifier runs in
	// fallback mode. Tunable, defaults to 50.
	FallbackFloor *float64 `yaml:"fallback_floor,omitempty" json:"fallbackFloor,omitempty"`
}

// WeightOverride multiplies the effective weight of one rule, optionally for
// a single element. Overrides accumulate across scopes.
type WeightOverride struct {
	RuleID     string  `yaml:"rule" json:"rule"`
	Element    string  `yaml:"element,omitempty" json:"element,omitempty"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`

	// Filled in by the resolver.
	Scope    Scope  `yaml:"-" json:"scope,omitempty"`
	SourceID string `yaml:"-" json:"sourceId,omitempty"`
}

// Fragment is one scope's configuration contribution. Nil or empty field
// groups inherit from lower-precedence scopes.
type Fragment struct {
	Stopwords      []StopwordEntry          `yaml:"stopwords,omitempty"`
	IntentPatterns []IntentPattern          `yaml:"intent_patterns,omitempty"`
	HookPatterns   []HookPattern            `yaml:"hook_patterns,omitempty"`
	Safety         *SafetyKeywords          `yaml:"safety_keywords,omitempty"`
	Discovery      *DiscoveryThresholds     `yaml:"discovery_thresholds,omitempty"`
	RuleThresholds map[string]RuleThreshold `yaml:"rule_thresholds,omitempty"`
	KPIWeights     *KPIWeights              `yaml:"kpi_weights,omitempty"`
	Overrides      []WeightOverride         `yaml:"weight_overrides,omitempty"`
}

// ScopedFragment pairs a fragment with its scope and the selector it was
// loaded for.
type ScopedFragment struct {
	Scope    Scope
	SourceID string
	Fragment *Fragment
}

// ScopeRef records which scope (and stored fragment) last set a field group.
type ScopeRef struct {
	Scope    Scope  `json:"scope"`
	SourceID string `json:"sourceId,omitempty"`
}

// LeakWarning is a non-fatal diagnostic: a scope-restricted signal was
// excluded because it does not apply to the current context.
type LeakWarning struct {
	Scope  Scope  `json:"scope"`
	Kind   string `json:"kind"`   // stopword | intent_pattern | hook_pattern
	Signal string `json:"signal"` // the excluded word/pattern/phrase
	Reason string `json:"reason"`
}

// RuleSet is the merged, read-only configuration for one context.
type RuleSet struct {
	Context Context `json:"-"`

	Stopwords      []string                 `json:"stopwords"`
	IntentPatterns []IntentPattern          `json:"intentPatterns"`
	HookPatterns   []HookPattern            `json:"hookPatterns"`
	Safety         SafetyKeywords           `json:"safetyKeywords"`
	Discovery      DiscoveryThresholds      `json:"discoveryThresholds"`
	RuleThresholds map[string]RuleThreshold `json:"ruleThresholds"`
	KPIWeights     KPIWeights               `json:"kpiWeights"`
	Overrides      []WeightOverride         `json:"weightOverrides"`

	InheritanceChain map[string]ScopeRef `json:"inheritanceChain"`
	LeakWarnings     []LeakWarning       `json:"leakWarnings"`
}
