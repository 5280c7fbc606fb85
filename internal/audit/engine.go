package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/listinglens/listinglens/internal/intent"
	"github.com/listinglens/listinglens/internal/kpi"
	"github.com/listinglens/listinglens/internal/listing"
	"github.com/listinglens/listinglens/internal/rules"
	"github.com/listinglens/listinglens/internal/ruleset"
	"github.com/listinglens/listinglens/internal/safety"
	"github.com/listinglens/listinglens/internal/textproc"
)

// RuleSetProvider resolves the merged configuration for an app context.
// Implementations typically wrap a fragment store behind a memoizing cache.
type RuleSetProvider interface {
	Resolve(ctx context.Context, rctx ruleset.Context) (*ruleset.RuleSet, error)
}

// DefaultTopRecommendations bounds the recommendation list.
const DefaultTopRecommendations = 5

// Options tune the engine. Zero values fall back to defaults.
type Options struct {
	TopRecommendations int
}

// Engine is the audit aggregator and the only entry point external callers
// use. It holds no mutable state; every evaluation is a pure function of
// the metadata and the merged ruleset.
type Engine struct {
	provider RuleSetProvider
	topN     int
}

// New builds an engine over the given ruleset provider.
func New(provider RuleSetProvider, opts Options) *Engine {
	topN := opts.TopRecommendations
	if topN <= 0 {
		topN = DefaultTopRecommendations
	}
	return &Engine{provider: provider, topN: topN}
}

// Evaluate validates the metadata, resolves the merged ruleset for its
// context and runs the scoring pipeline. The audit id and timestamp are
// assigned after scoring completes; they are correlation metadata, not part
// of the deterministic pipeline.
func (e *Engine) Evaluate(ctx context.Context, md listing.Metadata, orgID string) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	md = md.Normalized()

	rctx := ruleset.Context{
		AppID:    md.AppID,
		Category: md.Category,
		Locale:   md.Locale,
		OrgID:    orgID,
	}
	rs, err := e.provider.Resolve(ctx, rctx)
	if err != nil {
		return nil, fmt.Errorf("resolve ruleset: %w", err)
	}

	res, err := EvaluateWithRuleSet(md, rs, e.topN)
	if err != nil {
		return nil, err
	}
	res.AuditID = uuid.NewString()
	res.GeneratedAt = time.Now().UTC()
	return res, nil
}

// EvaluateWithRuleSet runs the pure pipeline: tokenize, extract, classify,
// score, weight, aggregate. Identical inputs produce identical results.
func EvaluateWithRuleSet(md listing.Metadata, rs *ruleset.RuleSet, topN int) (*Result, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	md = md.Normalized()
	if topN <= 0 {
		topN = DefaultTopRecommendations
	}

	tokenizer := textproc.NewTokenizer(rs.Stopwords)
	classifier := intent.NewClassifier(rs.IntentPatterns)
	detector := safety.NewDetector(rs.Safety)

	opts := textproc.ExtractOptions{}
	if rs.Discovery.MinKeywordLength != nil {
		opts.MinKeywordLength = *rs.Discovery.MinKeywordLength
	}
	if rs.Discovery.ComboMinSize != nil {
		opts.ComboMinSize = *rs.Discovery.ComboMinSize
	}
	if rs.Discovery.ComboMaxSize != nil {
		opts.ComboMaxSize = *rs.Discovery.ComboMaxSize
	}

	res := &Result{
		AppID:              md.AppID,
		TopRecommendations: []Recommendation{},
		Diagnostics: Diagnostics{
			InheritanceChain: rs.InheritanceChain,
			LeakWarnings:     rs.LeakWarnings,
			ConfigGaps:       []string{},
			FallbackMode:     classifier.FallbackMode(),
		},
	}

	seen := textproc.NewSeenSet()
	elements := make(map[string]ElementScore, len(listing.ElementOrder))
	extractions := make(map[string]textproc.Extraction, len(listing.ElementOrder))
	var allRecs []Recommendation

	for _, element := range listing.ElementOrder {
		text := md.Element(element)
		tokens := tokenizer.Tokens(text)
		ex := textproc.Extract(tokens, seen, opts)
		seen.Add(ex)
		extractions[element] = ex

		in := rules.Input{
			Element:     element,
			Text:        text,
			Tokens:      tokens,
			Keywords:    ex.Keywords,
			NewKeywords: ex.NewKeywords,
			Combos:      ex.Combos,
			Hooks:       rs.HookPatterns,
		}
		ruleResults, gaps := rules.EvaluateAll(in, rs.RuleThresholds)
		res.Diagnostics.ConfigGaps = appendUnique(res.Diagnostics.ConfigGaps, gaps)

		intentScore := intentAlignment(classifier, ex)
		weighted := kpi.ScoreElement(element, ruleResults, rs.RuleThresholds, rs.Overrides, rs.KPIWeights, intentScore, classifier.FallbackMode())

		safetyRes := detector.Analyze(text)

		maxChars := rs.RuleThresholds[rules.RuleCharacterUsage].Limit(element, defaultMaxChars(element))
		es := ElementScore{
			Score:          weighted.Score,
			RuleResults:    ruleResults,
			KPIs:           weighted.KPIs,
			CharacterUsage: len([]rune(text)),
			MaxCharacters:  maxChars,
			IntentScore:    weighted.IntentScore,
			IntentDampened: weighted.IntentDampened,
			Safety:         safetyRes,
		}
		elements[element] = es

		allRecs = append(allRecs, buildRecommendations(element, ruleResults, rs, safetyRes)...)
	}

	res.Elements = Elements{
		Title:       elements[listing.ElementTitle],
		Subtitle:    elements[listing.ElementSubtitle],
		Description: elements[listing.ElementDescription],
	}
	res.KeywordCoverage, res.ComboCoverage = buildCoverage(extractions)

	batch := detector.AnalyzeBatch([]string{md.Title, md.Subtitle, md.Description})
	res.RiskLevel = batch.RiskLevel

	res.OverallScore = kpi.Overall(
		res.Elements.Title.Score,
		res.Elements.Subtitle.Score,
		res.Elements.Description.Score,
		rs.KPIWeights,
	)

	res.TopRecommendations = rankRecommendations(allRecs, topN)
	return res, nil
}

// intentAlignment is the share of an element's keywords and combos that
// classify to a recognized searcher intent, scaled to 0–100. In fallback
// mode every item is unknown, so the raw score is 0 and the KPI layer's
// floor takes over.
func intentAlignment(c *intent.Classifier, ex textproc.Extraction) float64 {
	items := len(ex.Keywords) + len(ex.Combos)
	if items == 0 {
		return 0
	}
	recognized := 0
	for _, k := range ex.Keywords {
		if c.Classify(k).Dominant != intent.Unknown {
			recognized++
		}
	}
	for _, cb := range ex.Combos {
		if c.Classify(cb).Dominant != intent.Unknown {
			recognized++
		}
	}
	return 100 * float64(recognized) / float64(items)
}

func buildCoverage(ex map[string]textproc.Extraction) (KeywordCoverage, ComboCoverage) {
	title := ex[listing.ElementTitle]
	subtitle := ex[listing.ElementSubtitle]
	description := ex[listing.ElementDescription]

	kw := KeywordCoverage{
		TitleKeywords:          title.Keywords,
		SubtitleKeywords:       subtitle.Keywords,
		DescriptionKeywords:    description.Keywords,
		NewSubtitleKeywords:    subtitle.NewKeywords,
		NewDescriptionKeywords: description.NewKeywords,
	}
	kw.Total = len(title.Keywords) + len(subtitle.NewKeywords) + len(description.NewKeywords)

	cb := ComboCoverage{
		TitleCombos:          title.Combos,
		SubtitleCombos:       subtitle.Combos,
		DescriptionCombos:    description.Combos,
		NewSubtitleCombos:    subtitle.NewCombos,
		NewDescriptionCombos: description.NewCombos,
	}
	cb.Total = len(title.Combos) + len(subtitle.NewCombos) + len(description.NewCombos)

	return kw, cb
}

func defaultMaxChars(element string) int {
	switch element {
	case listing.ElementTitle, listing.ElementSubtitle:
		return 30
	default:
		return 4000
	}
}

func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		dup := false
		for _, d := range dst {
			if d == s {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, s)
		}
	}
	return dst
}
