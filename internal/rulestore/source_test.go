package rulestore

import (
	"context"
	"testing"

	"github.com/listinglens/listinglens/internal/ruleset"
)

func TestCollectFallsBackToBuiltinBase(t *testing.T) {
	frags, err := Collect(context.Background(), nil, ruleset.Context{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(frags) != 1 {
		t.Fatalf("fragments = %+v, want the builtin base only", frags)
	}
	if frags[0].Scope != ruleset.ScopeBase || frags[0].SourceID != "builtin" {
		t.Fatalf("base fragment = %+v", frags[0])
	}
}

func TestCollectSkipsEmptySelectors(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()
	if err := src.Put(ctx, ruleset.ScopeClient, "acme", &ruleset.Fragment{
		Stopwords: []ruleset.StopwordEntry{{Word: "premium"}},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	// No org in the context: the client row must not be consulted.
	frags, err := Collect(ctx, src, ruleset.Context{AppID: "app-1"})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	for _, f := range frags {
		if f.Scope == ruleset.ScopeClient {
			t.Fatalf("client scope collected without an org id: %+v", f)
		}
	}
}

func TestCollectStoredBaseWinsOverBuiltin(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()
	if err := src.Put(ctx, ruleset.ScopeBase, "default", &ruleset.Fragment{
		Stopwords: []ruleset.StopwordEntry{{Word: "stored"}},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	frags, err := Collect(ctx, src, ruleset.Context{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if len(frags) != 1 || frags[0].SourceID != "default" {
		t.Fatalf("fragments = %+v, want the stored base", frags)
	}
	if frags[0].Fragment.Stopwords[0].Word != "stored" {
		t.Fatalf("fragment = %+v", frags[0].Fragment)
	}
}

func TestResolverProducesWorkableRuleSet(t *testing.T) {
	r := NewResolver(nil)

	rs, err := r.Resolve(context.Background(), ruleset.Context{
		AppID: "app-1", Category: "education", Locale: "en-us", OrgID: "acme",
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(rs.Stopwords) == 0 {
		t.Fatalf("builtin base must provide stopwords")
	}
	if len(rs.IntentPatterns) == 0 {
		t.Fatalf("builtin base must provide intent patterns")
	}
	if len(rs.RuleThresholds) == 0 {
		t.Fatalf("builtin base must provide rule thresholds")
	}
	if ref := rs.InheritanceChain[ruleset.GroupStopwords]; ref.Scope != ruleset.ScopeBase || ref.SourceID != "builtin" {
		t.Fatalf("chain = %+v, want base/builtin provenance", ref)
	}
}

func TestResolverLayersClientFragment(t *testing.T) {
	src := openTestDB(t)
	ctx := context.Background()
	if err := src.Put(ctx, ruleset.ScopeClient, "acme", &ruleset.Fragment{
		Stopwords: []ruleset.StopwordEntry{{Word: "premium"}},
	}); err != nil {
		t.Fatalf("put: %v", err)
	}

	r := NewResolver(src)
	rs, err := r.Resolve(ctx, ruleset.Context{OrgID: "acme"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if len(rs.Stopwords) != 1 || rs.Stopwords[0] != "premium" {
		t.Fatalf("Stopwords = %v, want the client list", rs.Stopwords)
	}
	// Groups the client fragment left out inherit from the builtin base.
	if len(rs.IntentPatterns) == 0 {
		t.Fatalf("intent patterns must inherit from base")
	}
	if ref := rs.InheritanceChain[ruleset.GroupStopwords]; ref.Scope != ruleset.ScopeClient {
		t.Fatalf("chain = %+v, want client scope", ref)
	}
}
