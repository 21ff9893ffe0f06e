package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m06JobPosting struct {
	Title string
	Team  string
}

type m06Data struct {
	Postings         []m06JobPosting
	Tier1Count       int
	Tier2Count       int
	Tier3Count       int
	AIInvestmentSig  bool
	DecisionWindow   bool
}

// M06HiringSignals is Wave 2; depends on M01.
type M06HiringSignals struct {
	adapter *adapterFor[[]m06JobPosting]
}

func NewM06HiringSignals() *M06HiringSignals {
	return &M06HiringSignals{adapter: newSourceAdapter("people-network", citation.PeopleNetwork, buildM06Postings)}
}

var tier1Keywords = []string{"vp", "vice president", "director", "head of", "chief"}
var tier2Keywords = []string{"manager", "senior", "principal", "staff"}
var tier3Keywords = []string{"engineer", "developer"}
var aiKeywords = []string{"ai", "machine learning", "ml ", "generative", "llm"}

func buildM06Postings(domain string) []m06JobPosting {
	f, known := lookupFixture(domain)
	postings := []m06JobPosting{
		{Title: "Senior Software Engineer, Search", Team: "Engineering"},
		{Title: "Site Merchandiser", Team: "Merchandising"},
	}
	if known {
		switch f.SearchProvider {
		case "competitor", "native":
			postings = append(postings,
				m06JobPosting{Title: "Director of Digital Commerce", Team: "Digital"},
				m06JobPosting{Title: "Principal Engineer, Search Relevance", Team: "Engineering"},
				m06JobPosting{Title: "VP, E-commerce Product", Team: "Product"},
				m06JobPosting{Title: "Machine Learning Engineer, Personalization", Team: "Data"},
			)
		}
	}
	return postings
}

func classifyRole(title string) string {
	t := strings.ToLower(title)
	for _, kw := range tier1Keywords {
		if strings.Contains(t, kw) {
			return "TIER1_STRONG"
		}
	}
	for _, kw := range tier2Keywords {
		if strings.Contains(t, kw) {
			return "TIER2_MODERATE"
		}
	}
	for _, kw := range tier3Keywords {
		if strings.Contains(t, kw) {
			return "TIER3_TECHNICAL"
		}
	}
	return "UNCLASSIFIED"
}

func isAIRole(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range aiKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// overallHiringIntensity applies the three-clause rule from the module
// contract.
func overallHiringIntensity(tier1, tier3 int) string {
	switch {
	case tier1 >= 2 || tier3 >= 10:
		return "HIGH"
	case tier1 >= 1 || tier3 >= 5:
		return "MODERATE"
	default:
		return "LOW"
	}
}

func (m *M06HiringSignals) ID() string          { return "m06_hiring_signals" }
func (m *M06HiringSignals) Wave() int           { return 2 }
func (m *M06HiringSignals) DependsOn() []string { return []string{"m01_company_context"} }
func (m *M06HiringSignals) TimeoutSeconds() int { return 90 }

func (m *M06HiringSignals) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	postings, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	var tier1, tier2, tier3 int
	aiSignal := false
	for _, p := range postings {
		switch classifyRole(p.Title) {
		case "TIER1_STRONG":
			tier1++
		case "TIER2_MODERATE":
			tier2++
		case "TIER3_TECHNICAL":
			tier3++
		}
		if isAIRole(p.Title) {
			aiSignal = true
		}
	}

	intensity := overallHiringIntensity(tier1, tier3)
	decisionWindow := tier1 >= 1 && intensity != "LOW"

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"postings":                 postings,
			"tier1_count":              tier1,
			"tier2_count":              tier2,
			"tier3_count":              tier3,
			"ai_investment_signal":     aiSignal,
			"decision_window_open":     decisionWindow,
			"overall_hiring_intensity": intensity,
		},
	}, nil
}
