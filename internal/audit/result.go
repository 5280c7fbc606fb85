package audit

import (
	"time"

	"github.com/listinglens/listinglens/internal/kpi"
	"github.com/listinglens/listinglens/internal/rules"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/safety"
)

// ElementScore is the scored breakdown of one metadata element.
type ElementScore struct {
	Score          float64        `json:"score"`
	RuleResults    []rules.Result `json:"ruleResults"`
	KPIs           []kpi.Score    `json:"kpis"`
	CharacterUsage int            `json:"characterUsage"`
	MaxCharacters  int            `json:"maxCharacters"`
	IntentScore    float64        `json:"intentScore"`
	IntentDampened bool           `json:"intentDampened,omitempty"`
	Safety         safety.Result  `json:"transactionalSafety"`
}

// Elements groups the three scored elements.
type Elements struct {
	Title       ElementScore `json:"title"`
	Subtitle    ElementScore `json:"subtitle"`
	Description ElementScore `json:"description"`
}

// KeywordCoverage reports unique keywords per element and which of them are
// new relative to higher-priority elements (title > subtitle > description).
type KeywordCoverage struct {
	Total                  int      `json:"total"`
	TitleKeywords          []string `json:"titleKeywords"`
	SubtitleKeywords       []string `json:"subtitleKeywords"`
	DescriptionKeywords    []string `json:"descriptionKeywords"`
	NewSubtitleKeywords    []string `json:"newSubtitleKeywords"`
	NewDescriptionKeywords []string `json:"newDescriptionKeywords"`
}

// ComboCoverage is the combo (2–3-gram) counterpart of KeywordCoverage.
type ComboCoverage struct {
	Total                int      `json:"total"`
	TitleCombos          []string `json:"titleCombos"`
	SubtitleCombos       []string `json:"subtitleCombos"`
	DescriptionCombos    []string `json:"descriptionCombos"`
	NewSubtitleCombos    []string `json:"newSubtitleCombos"`
	NewDescriptionCombos []string `json:"newDescriptionCombos"`
}

// Recommendation is one prioritized, templated optimization suggestion.
type Recommendation struct {
	RuleID   string  `json:"ruleId"`
	Element  string  `json:"element"`
	Severity float64 `json:"severity"`
	Message  string  `json:"message"`
}

// Diagnostics carries merge provenance and non-fatal configuration gaps.
// Exposed for admin tooling; has no effect on scoring.
type Diagnostics struct {
	InheritanceChain map[string]ruleset.ScopeRef `json:"inheritanceChain"`
	LeakWarnings     []ruleset.LeakWarning       `json:"leakWarnings"`
	ConfigGaps       []string                    `json:"configGaps"`
	FallbackMode     bool                        `json:"fallbackMode,omitempty"`
}

// Result is the complete output of one evaluation. All numeric fields are
// bounded to [0,100] and all arrays are non-nil.
type Result struct {
	AuditID     string    `json:"auditId,omitempty"`
	AppID       string    `json:"appId,omitempty"`
	GeneratedAt time.Time `json:"generatedAt,omitempty"`

	OverallScore       float64          `json:"overallScore"`
	Elements           Elements         `json:"elements"`
	KeywordCoverage    KeywordCoverage  `json:"keywordCoverage"`
	ComboCoverage      ComboCoverage    `json:"comboCoverage"`
	RiskLevel          string           `json:"riskLevel"`
	TopRecommendations []Recommendation `json:"topRecommendations"`

	Diagnostics Diagnostics `json:"diagnostics"`
}
