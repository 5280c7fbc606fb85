package intent

import (
	"math"
	"testing"

	"github.com/listinglens/listinglens/internal/ruleset"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestClassifierFallbackMode(t *testing.T) {
	c := NewClassifier(nil)
	if !c.FallbackMode() {
		t.Fatalf("expected fallback mode with no patterns")
	}

	got := c.Classify("buy now")
	if got.Dominant != Unknown {
		t.Fatalf("Dominant = %q, want %q", got.Dominant, Unknown)
	}
	if !got.Fallback {
		t.Fatalf("expected Fallback flag set")
	}
	if !almostEqual(got.Confidence, FallbackConfidence) {
		t.Fatalf("Confidence = %v, want %v", got.Confidence, FallbackConfidence)
	}
}

func TestClassifierInvalidRegexSkipped(t *testing.T) {
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: "([", IsRegex: true, Intent: Transactional, Weight: 1.0, Priority: 90},
	})
	if !c.FallbackMode() {
		t.Fatalf("expected fallback mode when the only pattern fails to compile")
	}
}

func TestClassifyAccumulatesWeights(t *testing.T) {
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: `free\s+trial`, IsRegex: true, Intent: Transactional, Weight: 1.5, Priority: 90},
		{Pattern: "buy", Intent: Transactional, Weight: 1.2, Priority: 80},
		{Pattern: "best", Intent: Comparative, Weight: 0.8, Priority: 60},
	})

	got := c.Classify("buy the best free trial")
	if got.Dominant != Transactional {
		t.Fatalf("Dominant = %q, want %q", got.Dominant, Transactional)
	}
	if !almostEqual(got.Scores[Transactional], 2.7) {
		t.Fatalf("transactional score = %v, want 2.7", got.Scores[Transactional])
	}
	if !almostEqual(got.Scores[Comparative], 0.8) {
		t.Fatalf("comparative score = %v, want 0.8", got.Scores[Comparative])
	}
	// Three matches: 0.5 + 3×0.1.
	if !almostEqual(got.Confidence, 0.8) {
		t.Fatalf("Confidence = %v, want 0.8", got.Confidence)
	}
}

func TestClassifyTieBreaksOnPriority(t *testing.T) {
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: "guide", Intent: Informational, Weight: 1.0, Priority: 50},
		{Pattern: "official", Intent: Navigational, Weight: 1.0, Priority: 70},
	})

	got := c.Classify("official guide")
	if got.Dominant != Navigational {
		t.Fatalf("Dominant = %q, want %q (higher priority wins the tie)", got.Dominant, Navigational)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: "subscribe", Intent: Transactional, Weight: 1.0, Priority: 80},
		{Pattern: `how\s+to`, IsRegex: true, Intent: Informational, Weight: 1.0, Priority: 80},
	})

	if got := c.Classify("SUBSCRIBE today"); got.Dominant != Transactional {
		t.Fatalf("substring match should be case-insensitive, got %q", got.Dominant)
	}
	if got := c.Classify("How To cook"); got.Dominant != Informational {
		t.Fatalf("regex match should be case-insensitive, got %q", got.Dominant)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: "buy", Intent: Transactional, Weight: 1.0, Priority: 80},
	})

	got := c.Classify("calm meditation")
	if got.Dominant != Unknown {
		t.Fatalf("Dominant = %q, want %q", got.Dominant, Unknown)
	}
	if got.Confidence != 0 {
		t.Fatalf("Confidence = %v, want 0", got.Confidence)
	}
	if got.Fallback {
		t.Fatalf("no-match is not fallback mode")
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	patterns := make([]ruleset.IntentPattern, 0, 8)
	for _, p := range []string{"le", "ea", "ar", "rn", "lea", "ear", "arn", "learn"} {
		patterns = append(patterns, ruleset.IntentPattern{Pattern: p, Intent: Informational, Weight: 0.1, Priority: 10})
	}
	c := NewClassifier(patterns)

	got := c.Classify("learn")
	if !almostEqual(got.Confidence, 1.0) {
		t.Fatalf("Confidence = %v, want capped at 1.0", got.Confidence)
	}
}

func TestClassifierSkipsInactivePatterns(t *testing.T) {
	inactive := false
	c := NewClassifier([]ruleset.IntentPattern{
		{Pattern: "buy", Intent: Transactional, Weight: 1.0, Priority: 80, Active: &inactive},
	})
	if !c.FallbackMode() {
		t.Fatalf("inactive patterns must not count as usable")
	}
}
