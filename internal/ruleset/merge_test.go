package ruleset

import (
	"reflect"
	"testing"
)

func fp(v float64) *float64 { return &v }

func words(ws ...string) []StopwordEntry {
	out := make([]StopwordEntry, 0, len(ws))
	for _, w := range ws {
		out = append(out, StopwordEntry{Word: w})
	}
	return out
}

func TestResolvePrecedenceAndInheritance(t *testing.T) {
	ctx := Context{AppID: "app-1", Category: "education", Locale: "en-us", OrgID: "acme"}

	fragments := []ScopedFragment{
		{Scope: ScopeBase, SourceID: "builtin", Fragment: &Fragment{
			Stopwords: words("the", "a"),
			Safety:    &SafetyKeywords{Risky: []string{"guaranteed"}},
			RuleThresholds: map[string]RuleThreshold{
				"character_usage": {Weight: fp(1.5), Low: fp(0.7)},
			},
		}},
		{Scope: ScopeVertical, SourceID: "education", Fragment: &Fragment{
			IntentPatterns: []IntentPattern{
				{Pattern: "learn", Intent: "informational", Weight: 1.0, Priority: 60},
			},
		}},
		{Scope: ScopeClient, SourceID: "acme", Fragment: &Fragment{
			Stopwords: words("the", "premium"),
		}},
		{Scope: ScopeApp, SourceID: "app-1", Fragment: &Fragment{
			RuleThresholds: map[string]RuleThreshold{
				"character_usage": {Weight: fp(2.0)},
			},
		}},
	}

	rs := Resolve(ctx, fragments)

	// Client stopwords replace the base list wholesale.
	if !reflect.DeepEqual(rs.Stopwords, []string{"the", "premium"}) {
		t.Fatalf("Stopwords = %v", rs.Stopwords)
	}
	if ref := rs.InheritanceChain[GroupStopwords]; ref.Scope != ScopeClient || ref.SourceID != "acme" {
		t.Fatalf("stopwords chain = %+v, want client/acme", ref)
	}

	// Safety was only set at base and inherits.
	if ref := rs.InheritanceChain[GroupSafety]; ref.Scope != ScopeBase {
		t.Fatalf("safety chain = %+v, want base", ref)
	}
	if !reflect.DeepEqual(rs.Safety.Risky, []string{"guaranteed"}) {
		t.Fatalf("Safety = %+v", rs.Safety)
	}

	// Thresholds merge per field: app weight wins, base low survives.
	th := rs.RuleThresholds["character_usage"]
	if th.Weight == nil || *th.Weight != 2.0 {
		t.Fatalf("weight = %v, want 2.0 from app scope", th.Weight)
	}
	if th.Low == nil || *th.Low != 0.7 {
		t.Fatalf("low = %v, want 0.7 inherited from base", th.Low)
	}
	if ref := rs.InheritanceChain[GroupRuleThresholds+".character_usage"]; ref.Scope != ScopeApp {
		t.Fatalf("threshold chain = %+v, want app", ref)
	}

	// Vertical patterns are tagged with their scope.
	if len(rs.IntentPatterns) != 1 || rs.IntentPatterns[0].Scope != ScopeVertical {
		t.Fatalf("IntentPatterns = %+v", rs.IntentPatterns)
	}
}

func TestResolveLeakWarnings(t *testing.T) {
	ctx := Context{Category: "education", Locale: "en-us", OrgID: "acme"}

	fragments := []ScopedFragment{
		{Scope: ScopeBase, SourceID: "builtin", Fragment: &Fragment{
			Stopwords: []StopwordEntry{
				{Word: "the"},
				{Word: "kostenlos", Locale: "de-de"},
			},
		}},
		{Scope: ScopeClient, SourceID: "acme", Fragment: &Fragment{
			IntentPatterns: []IntentPattern{
				{Pattern: "learn", Intent: "informational", Weight: 1.0, Priority: 60},
				{Pattern: "match three", Intent: "transactional", Weight: 1.0, Priority: 60, Category: "games"},
			},
			HookPatterns: []HookPattern{
				{Phrase: "level up", Weight: 1.0, Category: "games"},
				{Phrase: "discover", Weight: 1.0},
			},
		}},
	}

	rs := Resolve(ctx, fragments)

	if !reflect.DeepEqual(rs.Stopwords, []string{"the"}) {
		t.Fatalf("Stopwords = %v, leaked entry should be excluded", rs.Stopwords)
	}
	if len(rs.IntentPatterns) != 1 || rs.IntentPatterns[0].Pattern != "learn" {
		t.Fatalf("IntentPatterns = %+v", rs.IntentPatterns)
	}
	if len(rs.HookPatterns) != 1 || rs.HookPatterns[0].Phrase != "discover" {
		t.Fatalf("HookPatterns = %+v", rs.HookPatterns)
	}

	if len(rs.LeakWarnings) != 3 {
		t.Fatalf("LeakWarnings = %+v, want 3 entries", rs.LeakWarnings)
	}
	kinds := map[string]int{}
	for _, w := range rs.LeakWarnings {
		kinds[w.Kind]++
		if w.Reason == "" || w.Signal == "" {
			t.Fatalf("incomplete warning: %+v", w)
		}
	}
	if kinds["stopword"] != 1 || kinds["intent_pattern"] != 1 || kinds["hook_pattern"] != 1 {
		t.Fatalf("warning kinds = %v", kinds)
	}
}

func TestResolveMatchingRestrictionIsNotALeak(t *testing.T) {
	ctx := Context{Category: "Education", Locale: "EN-US"}

	rs := Resolve(ctx, []ScopedFragment{
		{Scope: ScopeBase, SourceID: "builtin", Fragment: &Fragment{
			IntentPatterns: []IntentPattern{
				{Pattern: "lessons", Intent: "informational", Weight: 1.0, Priority: 60, Category: "education", Locale: "en-us"},
			},
		}},
	})

	if len(rs.IntentPatterns) != 1 {
		t.Fatalf("pattern restricted to the active context must survive, got %+v", rs.IntentPatterns)
	}
	if len(rs.LeakWarnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", rs.LeakWarnings)
	}
}

func TestResolveOverridesAccumulate(t *testing.T) {
	ctx := Context{OrgID: "acme", AppID: "app-1"}

	rs := Resolve(ctx, []ScopedFragment{
		{Scope: ScopeBase, SourceID: "builtin", Fragment: &Fragment{
			Overrides: []WeightOverride{{RuleID: "hook_strength", Multiplier: 1.2}},
		}},
		{Scope: ScopeClient, SourceID: "acme", Fragment: &Fragment{
			Overrides: []WeightOverride{
				{RuleID: "hook_strength", Element: "title", Multiplier: 0.5},
				{RuleID: "keyword_density", Multiplier: 0}, // ignored
			},
		}},
	})

	if len(rs.Overrides) != 2 {
		t.Fatalf("Overrides = %+v, want 2 (accumulated, zero multiplier dropped)", rs.Overrides)
	}
	if rs.Overrides[0].Scope != ScopeBase || rs.Overrides[1].Scope != ScopeClient {
		t.Fatalf("override scopes = %v/%v", rs.Overrides[0].Scope, rs.Overrides[1].Scope)
	}
	if rs.Overrides[1].SourceID != "acme" {
		t.Fatalf("override source = %q, want acme", rs.Overrides[1].SourceID)
	}
}

func TestResolveSortsPatternsByPriority(t *testing.T) {
	rs := Resolve(Context{}, []ScopedFragment{
		{Scope: ScopeBase, SourceID: "builtin", Fragment: &Fragment{
			IntentPatterns: []IntentPattern{
				{Pattern: "tips", Intent: "informational", Weight: 0.8, Priority: 60},
				{Pattern: "how to", Intent: "informational", Weight: 1.5, Priority: 90},
				{Pattern: "guide", Intent: "informational", Weight: 1.0, Priority: 60},
			},
		}},
	})

	got := []string{rs.IntentPatterns[0].Pattern, rs.IntentPatterns[1].Pattern, rs.IntentPatterns[2].Pattern}
	want := []string{"how to", "tips", "guide"} // stable within equal priority
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pattern order = %v, want %v", got, want)
	}
}

func TestResolveEmptyFragments(t *testing.T) {
	rs := Resolve(Context{}, nil)
	if rs.Stopwords == nil || rs.IntentPatterns == nil || rs.HookPatterns == nil ||
		rs.Overrides == nil || rs.LeakWarnings == nil {
		t.Fatalf("merged slices must be non-nil: %+v", rs)
	}
	if len(rs.InheritanceChain) != 0 {
		t.Fatalf("InheritanceChain = %v, want empty", rs.InheritanceChain)
	}
}

func TestContextSelector(t *testing.T) {
	ctx := Context{AppID: "app-1", Category: "education", Locale: "en-us", OrgID: "acme"}
	cases := []struct {
		scope Scope
		want  string
	}{
		{ScopeBase, "default"},
		{ScopeVertical, "education"},
		{ScopeMarket, "en-us"},
		{ScopeClient, "acme"},
		{ScopeApp, "app-1"},
	}
	for _, c := range cases {
		if got := ctx.Selector(c.scope); got != c.want {
			t.Errorf("Selector(%s) = %q, want %q", c.scope, got, c.want)
		}
	}

	empty := Context{}
	if empty.Selector(ScopeClient) != "" {
		t.Fatalf("empty context must yield empty client selector")
	}
	if empty.Selector(ScopeBase) != "default" {
		t.Fatalf("base selector is always present")
	}
}
