package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// initiativeKeywords are scanned against M01's description to count named
// strategic initiatives contributing to the timing score.
var initiativeKeywords = []string{
	"digital transformation", "omnichannel", "modernization", "expansion",
	"international growth", "platform migration", "replatforming",
}

// M07StrategicContext is Wave 2; depends only on M01. It is a pure
// synthesis module: it recombines prior results rather than calling an
// upstream source of its own. M04/M05/M06 signals are read optionally —
// they may not have run yet or may be absent — and simply fall back to
// their zero value when missing.
type M07StrategicContext struct{}

func NewM07StrategicContext() *M07StrategicContext { return &M07StrategicContext{} }

func (m *M07StrategicContext) ID() string { return "m07_strategic_context" }
func (m *M07StrategicContext) Wave() int  { return 2 }
func (m *M07StrategicContext) DependsOn() []string {
	return []string{"m01_company_context"}
}
func (m *M07StrategicContext) TimeoutSeconds() int { return 60 }

// timingAssessment implements the additive scoring rule from the module
// contract, clamped to [0, 100].
func timingAssessment(hiringIntensity string, firstMover, decisionWindow, aiSignal bool, initiatives int, marginZone string) int {
	score := 50
	if hiringIntensity == "HIGH" {
		score += 15
	}
	if firstMover {
		score += 10
	}
	if decisionWindow {
		score += 15
	}
	if aiSignal {
		score += 10
	}
	if initiatives >= 2 {
		score += 10
	}
	if marginZone == "YELLOW" {
		score -= 10
	}
	if marginZone == "RED" {
		score -= 10
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// overallFromScore maps the timing score to the (overall, priority) pair.
func overallFromScore(score int) (string, string) {
	switch {
	case score >= 80:
		return "EXCELLENT", "HIGH"
	case score >= 60:
		return "GOOD", "HIGH"
	case score >= 40:
		return "NEUTRAL", "MEDIUM"
	default:
		return "POOR", "LOW"
	}
}

func countInitiatives(description string) int {
	text := strings.ToLower(description)
	n := 0
	for _, kw := range initiativeKeywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func (m *M07StrategicContext) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m01 := getModule(moduleCtx, "m01_company_context")
	m04 := getModule(moduleCtx, "m04_financial_profile")
	m05 := getModule(moduleCtx, "m05_competitor_intelligence")
	m06 := getModule(moduleCtx, "m06_hiring_signals")

	initiatives := countInitiatives(asString(m01, "description"))
	score := timingAssessment(
		asString(m06, "overall_hiring_intensity"),
		asBool(m05, "first_mover_opportunity"),
		asBool(m06, "decision_window_open"),
		asBool(m06, "ai_investment_signal"),
		initiatives,
		asString(m04, "margin_zone"),
	)
	overall, priority := overallFromScore(score)

	cit, _ := citation.New(citation.WebSearch, fmt.Sprintf("https://sentinel.internal/synthesis/%s", domain), citation.WithConfidence(0.75))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"timing_assessment_score": score,
			"timing_overall":          overall,
			"timing_priority":         priority,
			"initiative_count":        initiatives,
		},
	}, nil
}
