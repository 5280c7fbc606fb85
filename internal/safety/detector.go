package safety

import (
	"strings"

	"github.com/listinglens/listinglens/internal/ruleset"
)

// Classification of transactional language.
type Classification string

const (
	// Risky call-to-action language that risks a platform penalty.
	Risky Classification = "risky"
	// Safe soft call-to-action language.
	Safe Classification = "safe"
	// None means the text is not transactional at all.
	None Classification = ""
)

// Confidence formula constants. Empirically chosen in the source rulebook;
// kept as named constants rather than re-derived.
const (
	riskyConfidenceBase = 0.7
	safeConfidenceBase  = 0.6
	confidencePerMatch  = 0.1
)

// Result is the safety classification of a single token, combo or element.
type Result struct {
	Safety      Classification `json:"safety"`
	RiskFlags   []string       `json:"riskFlags"`
	SafeFlags   []string       `json:"safeFlags"`
	Confidence  float64        `json:"confidence"`
	RiskScore   float64        `json:"riskScore"`   // 0–100
	SafetyScore float64        `json:"safetyScore"` // 0–100
}

// Aggregate risk levels for batch analysis.
const (
	RiskLow      = "low"
	RiskMedium   = "medium"
	RiskHigh     = "high"
	RiskCritical = "critical"
)

// BatchResult aggregates per-item results with an overall risk level.
type BatchResult struct {
	Results   []Result `json:"results"`
	RiskLevel string   `json:"riskLevel"`
	Risky     int      `json:"riskyCount"`
	Safe      int      `json:"safeCount"`
}

// Detector scans text against ordered risky and safe keyword lists.
// Lookup is case-insensitive substring matching; risky always takes
// precedence over safe.
type Detector struct {
	risky []string
	safe  []string
}

// NewDetector builds a detector from the merged ruleset's safety keywords.
// List order is preserved so flag order is reproducible.
func NewDetector(kw ruleset.SafetyKeywords) *Detector {
	return &Detector{
		risky: lowerAll(kw.Risky),
		safe:  lowerAll(kw.Safe),
	}
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Analyze classifies one piece of text.
//
// Priority order: any risky match wins regardless of how many safe matches
// are present; confidence is min(1, 0.7 + 0.1×riskyCount). Otherwise a safe
// match yields min(1, 0.6 + 0.1×safeCount). No match at all means the text
// is not transactional (confidence 0).
//
// Numeric scores use one documented mapping:
//
//	risky: riskScore  = min(100, 60 + 10×riskyCount), safetyScore = 100 − riskScore
//	safe:  safetyScore = min(100, 60 + 10×safeCount), riskScore   = 10
//	none:  both 0
func (d *Detector) Analyze(text string) Result {
	lc := strings.ToLower(text)

	res := Result{RiskFlags: []string{}, SafeFlags: []string{}}
	for _, kw := range d.risky {
		if strings.Contains(lc, kw) {
			res.RiskFlags = append(res.RiskFlags, kw)
		}
	}
	for _, kw := range d.safe {
		if strings.Contains(lc, kw) {
			res.SafeFlags = append(res.SafeFlags, kw)
		}
	}

	switch {
	case len(res.RiskFlags) > 0:
		res.Safety = Risky
		res.Confidence = capped(riskyConfidenceBase + confidencePerMatch*float64(len(res.RiskFlags)))
		res.RiskScore = capped100(60 + 10*float64(len(res.RiskFlags)))
		res.SafetyScore = 100 - res.RiskScore
	case len(res.SafeFlags) > 0:
		res.Safety = Safe
		res.Confidence = capped(safeConfidenceBase + confidencePerMatch*float64(len(res.SafeFlags)))
		res.SafetyScore = capped100(60 + 10*float64(len(res.SafeFlags)))
		res.RiskScore = 10
	default:
		res.Safety = None
	}
	return res
}

// AnalyzeBatch classifies every item and derives the aggregate risk level
// from the share of risky items among all transactional items. Breakpoints
// are fixed: >50% critical, >30% high, >15% medium, else low.
func (d *Detector) AnalyzeBatch(texts []string) BatchResult {
	out := BatchResult{Results: make([]Result, 0, len(texts)), RiskLevel: RiskLow}
	for _, t := range texts {
		r := d.Analyze(t)
		switch r.Safety {
		case Risky:
			out.Risky++
		case Safe:
			out.Safe++
		}
		out.Results = append(out.Results, r)
	}

	transactional := out.Risky + out.Safe
	if transactional == 0 {
		return out
	}
	pct := 100 * float64(out.Risky) / float64(transactional)
	switch {
	case pct > 50:
		out.RiskLevel = RiskCritical
	case pct > 30:
		out.RiskLevel = RiskHigh
	case pct > 15:
		out.RiskLevel = RiskMedium
	}
	return out
}

func capped(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func capped100(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
