package rulestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/listinglens/listinglens/internal/ruleset"
)

func writeFragment(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirSourceLoadsFragments(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, filepath.Join(dir, "base.yaml"), `
stopwords:
  - "the"
  - { word: "puzzle", category: "games" }
rule_thresholds:
  character_usage:
    weight: 1.5
    low: 0.7
`)
	writeFragment(t, filepath.Join(dir, "vertical", "education.yaml"), `
intent_patterns:
  - pattern: "lessons"
    intent: "informational"
    weight: 1.0
    priority: 70
`)

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	frag, ok, err := src.Load(context.Background(), ruleset.ScopeBase, "default")
	if err != nil || !ok {
		t.Fatalf("load base: ok=%v err=%v", ok, err)
	}
	if len(frag.Stopwords) != 2 {
		t.Fatalf("stopwords = %+v", frag.Stopwords)
	}
	if frag.Stopwords[1].Word != "puzzle" || frag.Stopwords[1].Category != "games" {
		t.Fatalf("mapping-form stopword = %+v", frag.Stopwords[1])
	}
	th := frag.RuleThresholds["character_usage"]
	if th.Weight == nil || *th.Weight != 1.5 {
		t.Fatalf("threshold = %+v", th)
	}

	frag, ok, err = src.Load(context.Background(), ruleset.ScopeVertical, "education")
	if err != nil || !ok {
		t.Fatalf("load vertical: ok=%v err=%v", ok, err)
	}
	if len(frag.IntentPatterns) != 1 || frag.IntentPatterns[0].Pattern != "lessons" {
		t.Fatalf("patterns = %+v", frag.IntentPatterns)
	}
}

func TestDirSourceMissingFileIsAbsent(t *testing.T) {
	src, err := NewDirSource(t.TempDir())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	frag, ok, err := src.Load(context.Background(), ruleset.ScopeVertical, "games")
	if err != nil {
		t.Fatalf("missing fragment must not error: %v", err)
	}
	if ok || frag != nil {
		t.Fatalf("missing fragment must be absent, got ok=%v frag=%+v", ok, frag)
	}
}

func TestDirSourceRejectsPathTraversal(t *testing.T) {
	src, err := NewDirSource(t.TempDir())
	if err != nil {
		t.Fatalf("new source: %v", err)
	}

	for _, sel := range []string{"../evil", ".hidden", ""} {
		if _, _, err := src.Load(context.Background(), ruleset.ScopeClient, sel); err == nil {
			t.Errorf("selector %q must be rejected", sel)
		}
	}
}

func TestDirSourceRejectsMissingDir(t *testing.T) {
	if _, err := NewDirSource(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

func TestDirSourceRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFragment(t, filepath.Join(dir, "base.yaml"), "stopwords: [unclosed")

	src, err := NewDirSource(dir)
	if err != nil {
		t.Fatalf("new source: %v", err)
	}
	if _, _, err := src.Load(context.Background(), ruleset.ScopeBase, "default"); err == nil {
		t.Fatalf("expected parse error")
	}
}
