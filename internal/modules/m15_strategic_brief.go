package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// allOtherModuleIDs is the "ALL" dependency marker expanded at plan time:
// M15 synthesizes the full record, so it runs only after every other
// module has resolved.
var allOtherModuleIDs = []string{
	"m01_company_context", "m02_technology_stack", "m03_traffic_analysis", "m04_financial_profile",
	"m05_competitor_intelligence", "m06_hiring_signals", "m07_strategic_context", "m08_investor_intelligence",
	"m09_executive_intelligence", "m10_buying_committee", "m11_displacement_analysis", "m12_case_study_matching",
	"m13_icp_priority_mapping", "m14_signal_scoring",
}

// M15StrategicBrief is Wave 4's synthesis step; it depends on every other
// module (the "ALL" marker) and is scheduled last within the wave.
type M15StrategicBrief struct{}

func NewM15StrategicBrief() *M15StrategicBrief { return &M15StrategicBrief{} }

func (m *M15StrategicBrief) ID() string          { return "m15_strategic_brief" }
func (m *M15StrategicBrief) Wave() int           { return 4 }
func (m *M15StrategicBrief) DependsOn() []string { return allOtherModuleIDs }
func (m *M15StrategicBrief) TimeoutSeconds() int { return 60 }

// BriefSection pairs a named section of the brief with the claims behind
// it and the citations that support each claim.
type BriefSection struct {
	Name               string
	Text               string
	SupportingCitations []citation.SourceCitation
}

func (m *M15StrategicBrief) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	// M15 synthesizes whatever successfully completed; a module that was
	// skipped or failed upstream simply contributes nothing to its section
	// rather than blocking the brief (this module has no P0 data fetch of
	// its own, it only recombines prior results).
	m01 := getModule(moduleCtx, "m01_company_context")
	m06 := getModule(moduleCtx, "m06_hiring_signals")
	m07 := getModule(moduleCtx, "m07_strategic_context")
	m08 := getModule(moduleCtx, "m08_investor_intelligence")
	m09 := getModule(moduleCtx, "m09_executive_intelligence")
	m13 := getModule(moduleCtx, "m13_icp_priority_mapping")
	m14 := getModule(moduleCtx, "m14_signal_scoring")

	companyName := asString(m01, "company_name")
	if companyName == "" {
		companyName = domain
	}

	var supporting []citation.SourceCitation
	addCitation := func(moduleID string) {
		if r, ok := moduleCtx[moduleID]; ok && r.Status == StatusSuccess {
			supporting = append(supporting, r.PrimaryCitation)
		}
	}
	for _, id := range allOtherModuleIDs {
		addCitation(id)
	}

	story := fmt.Sprintf(
		"%s is a %s business with a %s hiring posture and a %s strategic timing window; the opportunity centers on closing its on-site search gap.",
		companyName, asString(m01, "vertical"), asString(m06, "overall_hiring_intensity"), asString(m07, "timing_overall"),
	)

	timingSignals := fmt.Sprintf(
		"Timing score %v (%s); decision window %v.",
		asFloat(m07, "timing_assessment_score"), asString(m07, "timing_overall"), asBool(m06, "decision_window_open"),
	)

	var quoteLines []string
	if quotes, ok := m08["quotes"].([]m08Quote); ok {
		for _, q := range quotes {
			quoteLines = append(quoteLines, fmt.Sprintf("%q — %s, %s", q.Text, q.Speaker, q.Title))
		}
	}

	var peopleLines []string
	if execs, ok := m09["executives"].([]ExecutiveProfile); ok {
		for _, e := range execs {
			peopleLines = append(peopleLines, fmt.Sprintf("%s (%s, %s)", e.Name, e.Title, e.BuyerRole))
		}
	}

	money := fmt.Sprintf("Addressable search revenue and ROI scenarios are detailed in the financial profile module for %s.", domain)

	var gaps []string
	for _, id := range allOtherModuleIDs {
		if r, ok := moduleCtx[id]; !ok || r.Status != StatusSuccess {
			gaps = append(gaps, id)
		}
	}

	competitive := "See competitor intelligence for the full roster and search-provider tally."

	angle := fmt.Sprintf(
		"Lead with the displacement and first-mover narrative; lead score %.0f (%s).",
		asFloat(m13, "lead_score"), asString(m13, "priority_status"),
	)

	sections := []BriefSection{
		{Name: "sixty_second_story", Text: story, SupportingCitations: supporting},
		{Name: "timing_signals", Text: timingSignals, SupportingCitations: supporting},
		{Name: "quotes", Text: strings.Join(quoteLines, "\n"), SupportingCitations: supporting},
		{Name: "people", Text: strings.Join(peopleLines, "\n"), SupportingCitations: supporting},
		{Name: "money", Text: money, SupportingCitations: supporting},
		{Name: "gaps", Text: strings.Join(gaps, ", "), SupportingCitations: nil},
		{Name: "competitive_landscape", Text: competitive, SupportingCitations: supporting},
		{Name: "angle", Text: angle, SupportingCitations: supporting},
	}

	cit, _ := citation.New(citation.Manual, fmt.Sprintf("https://sentinel.internal/brief/%s", domain), citation.WithConfidence(0.85))

	return ModuleResult{
		ModuleID:            m.ID(),
		Domain:              domain,
		Status:              StatusSuccess,
		PrimaryCitation:     cit,
		SupportingCitations: supporting,
		ExecutedAt:          time.Now().UTC(),
		DurationMs:          msSince(start),
		Data: map[string]any{
			"sections":         sections,
			"final_priority":   asString(m14, "priority_status"),
			"final_score":      asFloat(m14, "composite_final"),
			"incomplete_gaps":  gaps,
		},
	}, nil
}
