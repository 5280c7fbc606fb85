package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"github.com/listinglens/listinglens/internal/audit"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/rulestore"
)

func main() {
	n := flag.Int("n", 500, "number of iterations")
	metaPath := flag.String("metadata", "", "metadata JSON file (default: built-in sample)")
	rulesDir := flag.String("rules-dir", "", "rules directory (default: compiled-in base rules)")
	org := flag.String("org", "", "organization id for ruleset resolution")
	flag.Parse()

	md := sampleMetadata()
	if *metaPath != "" {
		data, err := os.ReadFile(*metaPath)
		if err != nil {
			log.Fatalf("read metadata: %v", err)
		}
		if err := json.Unmarshal(data, &md); err != nil {
			log.Fatalf("parse metadata: %v", err)
		}
	}

	var src rulestore.FragmentSource
	if *rulesDir != "" {
		s, err := rulestore.NewDirSource(*rulesDir)
		if err != nil {
			log.Fatalf("open rules dir: %v", err)
		}
		src = s
	}

	md = md.Normalized()

	ctx := context.Background()
	resolver := rulestore.NewResolver(src)
	rs, err := resolver.Resolve(ctx, ruleset.Context{
		AppID:    md.AppID,
		Category: md.Category,
		Locale:   md.Locale,
		OrgID:    *org,
	})
	if err != nil {
		log.Fatalf("resolve ruleset: %v", err)
	}

	// Warmup
	for i := 0; i < 5; i++ {
		if _, err := audit.EvaluateWithRuleSet(md, rs, 0); err != nil {
			log.Fatalf("warmup evaluate failed: %v", err)
		}
	}

	if *n <= 0 {
		*n = 1
	}

	baseline, err := audit.EvaluateWithRuleSet(md, rs, 0)
	if err != nil {
		log.Fatalf("evaluate failed: %v", err)
	}

	durations := make([]time.Duration, 0, *n)
	stable := true
	for i := 0; i < *n; i++ {
		start := time.Now()
		res, err := audit.EvaluateWithRuleSet(md, rs, 0)
		if err != nil {
			log.Fatalf("evaluate failed: %v", err)
		}
		durations = append(durations, time.Since(start))
		if res.OverallScore != baseline.OverallScore || res.RiskLevel != baseline.RiskLevel {
			stable = false
		}
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var total time.Duration
	for _, d := range durations {
		total += d
	}

	avg := float64(total.Microseconds()) / 1000.0 / float64(len(durations))
	p50 := float64(durations[len(durations)/2].Microseconds()) / 1000.0
	p95 := float64(durations[int(float64(len(durations))*0.95)].Microseconds()) / 1000.0

	fmt.Printf("bench: n=%d avg_ms=%.3f p50_ms=%.3f p95_ms=%.3f overall=%.1f risk=%s deterministic=%t\n",
		len(durations),
		avg,
		p50,
		p95,
		baseline.OverallScore,
		baseline.RiskLevel,
		stable,
	)
}

func sampleMetadata() listing.Metadata {
	return listing.Metadata{
		AppID:       "bench-app",
		Title:       "Duolingo: Language Lessons",
		Subtitle:    "Learn Spanish, French & more",
		Description: "Learn a new language with the world's most-downloaded education app! Practice speaking, reading, listening, and writing with fun bite-sized lessons. Build a daily habit and track your progress with streaks and leaderboards.",
		Category:    "education",
		Platform:    "ios",
		Locale:      "en-us",
	}
}
