package rulestore

import "github.com/listinglens/listinglens/internal/ruleset"

func fp(v float64) *float64 { return &v }
func ip(v int) *int         { return &v }

// DefaultBaseFragment is the compiled-in base scope: a workable English
// rulebook used when no store is configured or the store has no base row.
// Stores override it field group by field group, never wholesale.
func DefaultBaseFragment() *ruleset.Fragment {
	return &ruleset.Fragment{
		Stopwords: stopwordEntries(
			"a", "an", "and", "are", "as", "at", "be", "but", "by", "for",
			"from", "has", "have", "in", "into", "is", "it", "its", "of",
			"on", "or", "our", "that", "the", "their", "this", "to", "was",
			"we", "were", "will", "with", "you", "your",
		),
		IntentPatterns: []ruleset.IntentPattern{
			// Transactional: strongest signals first.
			{Pattern: `free\s+trial`, IsRegex: true, Intent: "transactional", Weight: 1.5, Priority: 90},
			{Pattern: "subscribe", Intent: "transactional", Weight: 1.2, Priority: 80},
			{Pattern: "buy", Intent: "transactional", Weight: 1.2, Priority: 80},
			{Pattern: "purchase", Intent: "transactional", Weight: 1.2, Priority: 80},
			{Pattern: "download", Intent: "transactional", Weight: 1.0, Priority: 70},
			{Pattern: "deal", Intent: "transactional", Weight: 0.8, Priority: 60},
			{Pattern: "discount", Intent: "transactional", Weight: 0.8, Priority: 60},
			{Pattern: "shop", Intent: "transactional", Weight: 0.8, Priority: 60},

			// Informational.
			{Pattern: `how\s+to`, IsRegex: true, Intent: "informational", Weight: 1.5, Priority: 90},
			{Pattern: "learn", Intent: "informational", Weight: 1.2, Priority: 80},
			{Pattern: "guide", Intent: "informational", Weight: 1.0, Priority: 70},
			{Pattern: "tutorial", Intent: "informational", Weight: 1.0, Priority: 70},
			{Pattern: "lessons", Intent: "informational", Weight: 1.0, Priority: 70},
			{Pattern: "tips", Intent: "informational", Weight: 0.8, Priority: 60},
			{Pattern: "course", Intent: "informational", Weight: 0.8, Priority: 60},

			// Navigational.
			{Pattern: "official", Intent: "navigational", Weight: 1.2, Priority: 80},
			{Pattern: `sign\s*in`, IsRegex: true, Intent: "navigational", Weight: 1.0, Priority: 70},
			{Pattern: "login", Intent: "navigational", Weight: 1.0, Priority: 70},
			{Pattern: "account", Intent: "navigational", Weight: 0.6, Priority: 50},

			// Comparative.
			{Pattern: `\bvs\b`, IsRegex: true, Intent: "comparative", Weight: 1.2, Priority: 80},
			{Pattern: "alternative", Intent: "comparative", Weight: 1.0, Priority: 70},
			{Pattern: "compare", Intent: "comparative", Weight: 1.0, Priority: 70},
			{Pattern: "best", Intent: "comparative", Weight: 0.8, Priority: 60},
			{Pattern: "top rated", Intent: "comparative", Weight: 0.8, Priority: 60},
		},
		HookPatterns: []ruleset.HookPattern{
			{Phrase: "learn", Weight: 1.0},
			{Phrase: "discover", Weight: 1.0},
			{Phrase: "master", Weight: 1.2},
			{Phrase: "track", Weight: 0.8},
			{Phrase: "create", Weight: 0.8},
			{Phrase: "explore", Weight: 1.0},
			{Phrase: "build", Weight: 0.8},
			{Phrase: "join millions", Weight: 1.5},
		},
		Safety: &ruleset.SafetyKeywords{
			Risky: []string{
				"guaranteed", "#1 app", "best app ever", "win cash",
				"100% free", "act now", "limited time", "get rich",
				"miracle", "no risk",
			},
			Safe: []string{
				"try", "start", "join", "learn", "discover", "explore",
				"get started", "sign up",
			},
		},
		Discovery: &ruleset.DiscoveryThresholds{
			MinKeywordLength: ip(2),
			ComboMinSize:     ip(2),
			ComboMaxSize:     ip(3),
		},
		RuleThresholds: map[string]ruleset.RuleThreshold{
			"character_usage": {
				Weight: fp(1.5),
				Low:    fp(0.7),
				High:   fp(1.0),
				Limits: map[string]int{"title": 30, "subtitle": 30, "description": 4000},
			},
			"keyword_density": {
				Weight: fp(1.0),
				Low:    fp(0.4),
				High:   fp(0.9),
			},
			"hook_strength": {
				Weight: fp(1.0),
				Low:    fp(0.5),
				Params: map[string]float64{"target": 2.0},
			},
			"description_length": {
				Weight: fp(1.0),
				Params: map[string]float64{"min_words": 150},
			},
			"duplicate_keywords": {
				Weight: fp(0.8),
				Params: map[string]float64{"max_ratio": 0.3},
			},
			"title_format": {
				Weight: fp(0.6),
				Params: map[string]float64{"violation_penalty": 25},
			},
			"subtitle_complement": {
				Weight: fp(0.8),
				Low:    fp(0.5),
			},
		},
		KPIWeights: &ruleset.KPIWeights{
			Title:           fp(0.4),
			Subtitle:        fp(0.25),
			Description:     fp(0.35),
			IntentAlignment: fp(1.0),
			FallbackFloor:   fp(50),
		},
	}
}

func stopwordEntries(words ...string) []ruleset.StopwordEntry {
	out := make([]ruleset.StopwordEntry, 0, len(words))
	for _, w := range words {
		out = append(out, ruleset.StopwordEntry{Word: w})
	}
	return out
}
