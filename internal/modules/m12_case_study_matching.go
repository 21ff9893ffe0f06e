package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// CaseStudyMatch is a ranked case study reference with the reason it was
// selected for this target.
type CaseStudyMatch struct {
	CaseStudy string
	Reason    string
	Score     int
}

// caseStudyCatalog is a small fixed library of reference case studies,
// each tagged by the vertical and search-provider-displaced it addresses.
var caseStudyCatalog = []struct {
	Name             string
	Vertical         string
	DisplacedProvider string
}{
	{"Global Retailer Replatform", "Commerce", "competitor"},
	{"Wholesale Club Search Relevance Overhaul", "Commerce", "native"},
	{"Media Network Content Discovery", "Content", ""},
	{"Support Portal Knowledge Search", "Support", ""},
}

// M12CaseStudyMatching is Wave 4; depends on M01, M02.
type M12CaseStudyMatching struct{}

func NewM12CaseStudyMatching() *M12CaseStudyMatching { return &M12CaseStudyMatching{} }

func (m *M12CaseStudyMatching) ID() string          { return "m12_case_study_matching" }
func (m *M12CaseStudyMatching) Wave() int           { return 4 }
func (m *M12CaseStudyMatching) DependsOn() []string { return []string{"m01_company_context", "m02_technology_stack"} }
func (m *M12CaseStudyMatching) TimeoutSeconds() int { return 60 }

func (m *M12CaseStudyMatching) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m01 := getModule(moduleCtx, "m01_company_context")
	m02 := getModule(moduleCtx, "m02_technology_stack")
	vertical := asString(m01, "vertical")
	provider := asString(m02, "search_provider")

	var matches []CaseStudyMatch
	for _, c := range caseStudyCatalog {
		score := 0
		var reasons []string
		if c.Vertical == vertical {
			score += 5
			reasons = append(reasons, fmt.Sprintf("shared %s vertical", vertical))
		}
		if c.DisplacedProvider != "" && c.DisplacedProvider == provider {
			score += 5
			reasons = append(reasons, fmt.Sprintf("same incumbent provider (%s) displaced", provider))
		}
		if score == 0 {
			continue
		}
		reason := reasons[0]
		if len(reasons) > 1 {
			reason = fmt.Sprintf("%s; %s", reasons[0], reasons[1])
		}
		matches = append(matches, CaseStudyMatch{CaseStudy: c.Name, Reason: reason, Score: score})
	}
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].Score > matches[i].Score {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}

	cit, _ := citation.New(citation.Manual, fmt.Sprintf("https://sentinel.internal/case-studies/%s", domain), citation.WithConfidence(0.65))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"matches": matches,
		},
	}, nil
}
