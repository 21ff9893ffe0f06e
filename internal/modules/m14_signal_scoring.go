package modules

import (
	"context"
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/sentinel/internal/citation"
)

func budgetSignal(searchPriority string) float64 {
	switch searchPriority {
	case "HIGH":
		return 80
	case "MEDIUM":
		return 50
	case "LOW":
		return 20
	default:
		return 0
	}
}

func painSignal(hiringIntensity string) float64 {
	switch hiringIntensity {
	case "HIGH":
		return 80
	case "MODERATE":
		return 50
	default:
		return 20
	}
}

// M14SignalScoring is Wave 4; depends on M06, M07, M08.
type M14SignalScoring struct{}

func NewM14SignalScoring() *M14SignalScoring { return &M14SignalScoring{} }

func (m *M14SignalScoring) ID() string          { return "m14_signal_scoring" }
func (m *M14SignalScoring) Wave() int           { return 4 }
func (m *M14SignalScoring) DependsOn() []string { return []string{"m06_hiring_signals", "m07_strategic_context", "m08_investor_intelligence"} }
func (m *M14SignalScoring) TimeoutSeconds() int { return 60 }

func (m *M14SignalScoring) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m06 := getModule(moduleCtx, "m06_hiring_signals")
	m07 := getModule(moduleCtx, "m07_strategic_context")
	m08 := getModule(moduleCtx, "m08_investor_intelligence")

	budget := budgetSignal(asString(m08, "search_priority_level"))
	pain := painSignal(asString(m06, "overall_hiring_intensity"))
	timing := asFloat(m07, "timing_assessment_score")

	raw := stat.Mean([]float64{budget, pain, timing}, nil)
	adjusted := raw
	if adjusted > 100 {
		adjusted = 100
	}

	hasAllThree := budget > 0 && pain > 0 && timing > 0
	final := adjusted
	if hasAllThree && final <= 95 {
		final += 5
	}
	if final > 100 {
		final = 100
	}

	cit, _ := citation.New(citation.Manual, fmt.Sprintf("https://sentinel.internal/signal/%s", domain), citation.WithConfidence(0.8))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"composite_raw":      raw,
			"composite_adjusted": adjusted,
			"composite_final":    final,
			"priority_status":    priorityStatus(final),
			"signal_quality": map[string]any{
				"budget_signal":  budget,
				"pain_signal":    pain,
				"timing_signal":  timing,
				"has_all_three":  hasAllThree,
			},
		},
	}, nil
}
