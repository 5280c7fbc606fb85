package diag

import (
	"time"

	"github.com/listinglens/listinglens/internal/audit"
)

// EventVersion is the wire version of the diagnostics event payload.
const EventVersion = "1"

// ElementSummary is the per-element slice of an event.
type ElementSummary struct {
	Score          float64 `json:"score"`
	CharacterUsage int     `json:"characterUsage"`
	MaxCharacters  int     `json:"maxCharacters"`
	Safety         string  `json:"safety,omitempty"`
}

// Event is the canonical audit diagnostics payload delivered to sinks.
// It carries scores and rule ids, never raw listing text.
type Event struct {
	Version     string    `json:"version"`
	AuditID     string    `json:"auditId"`
	AppID       string    `json:"appId,omitempty"`
	OrgID       string    `json:"orgId,omitempty"`
	Platform    string    `json:"platform,omitempty"`
	Locale      string    `json:"locale,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`

	OverallScore    float64                   `json:"overallScore"`
	Elements        map[string]ElementSummary `json:"elements"`
	RiskLevel       string                    `json:"riskLevel"`
	Recommendations []string                  `json:"recommendations"` // rule ids, ranked
	LeakWarnings    int                       `json:"leakWarnings"`
	FallbackMode    bool                      `json:"fallbackMode,omitempty"`
	LatencyMs       float64                   `json:"latencyMs"`
}

// FromResult builds an event from a finished audit.
func FromResult(res *audit.Result, orgID, platform, locale string, latencyMs float64) *Event {
	ev := &Event{
		Version:      EventVersion,
		AuditID:      res.AuditID,
		AppID:        res.AppID,
		OrgID:        orgID,
		Platform:     platform,
		Locale:       locale,
		GeneratedAt:  res.GeneratedAt,
		OverallScore: res.OverallScore,
		RiskLevel:    res.RiskLevel,
		LeakWarnings: len(res.Diagnostics.LeakWarnings),
		FallbackMode: res.Diagnostics.FallbackMode,
		LatencyMs:    latencyMs,
		Elements: map[string]ElementSummary{
			"title":       summarize(res.Elements.Title),
			"subtitle":    summarize(res.Elements.Subtitle),
			"description": summarize(res.Elements.Description),
		},
		Recommendations: []string{},
	}
	for _, r := range res.TopRecommendations {
		ev.Recommendations = append(ev.Recommendations, r.RuleID)
	}
	return ev
}

func summarize(es audit.ElementScore) ElementSummary {
	return ElementSummary{
		Score:          es.Score,
		CharacterUsage: es.CharacterUsage,
		MaxCharacters:  es.MaxCharacters,
		Safety:         string(es.Safety.Safety),
	}
}
