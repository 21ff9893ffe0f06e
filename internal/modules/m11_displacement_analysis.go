package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// displacementDifficulty mirrors the provider table used by
// displacementPriorityForProvider, expressed as a difficulty rating rather
// than a priority label.
func displacementDifficulty(provider string) string {
	switch provider {
	case "algolia":
		return "N/A"
	case "competitor", "constructor", "elasticsearch", "coveo":
		return "HIGH"
	case "native":
		return "MEDIUM"
	default:
		return "LOW"
	}
}

// partnerCoSellCatalog lists technology partners that open a co-sell motion when
// present in a target's stack.
var partnerCoSellCatalog = map[string]bool{
	"Segment":                     true,
	"Salesforce Commerce Cloud":   true,
	"Shopify Plus":                true,
	"Adobe Commerce":              true,
	"BigCommerce":                 true,
}

// M11DisplacementAnalysis is Wave 3; depends on M02, M05.
type M11DisplacementAnalysis struct{}

func NewM11DisplacementAnalysis() *M11DisplacementAnalysis { return &M11DisplacementAnalysis{} }

func (m *M11DisplacementAnalysis) ID() string          { return "m11_displacement_analysis" }
func (m *M11DisplacementAnalysis) Wave() int           { return 3 }
func (m *M11DisplacementAnalysis) DependsOn() []string { return []string{"m02_technology_stack", "m05_competitor_intelligence"} }
func (m *M11DisplacementAnalysis) TimeoutSeconds() int { return 60 }

// algoliaFitAxes scores the three fit axes on a 0-10 scale from available
// context; the overall score is their mean.
func algoliaFitAxes(hasPartnerMatch bool, firstMover bool, techSpendTier string) (technical, business, timing float64) {
	technical = 5.0
	if hasPartnerMatch {
		technical += 3.0
	}
	business = 4.0
	switch techSpendTier {
	case "100k+", "50k-100k":
		business += 4.0
	case "25k-50k":
		business += 2.0
	}
	timing = 5.0
	if firstMover {
		timing += 2.0
	}
	for _, v := range []*float64{&technical, &business, &timing} {
		if *v > 10 {
			*v = 10
		}
	}
	return
}

func (m *M11DisplacementAnalysis) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m02 := getModule(moduleCtx, "m02_technology_stack")
	m05 := getModule(moduleCtx, "m05_competitor_intelligence")

	provider := asString(m02, "search_provider")
	partners := asStringSlice(m02, "partner_technologies")
	hasPartnerMatch := false
	for _, p := range partners {
		if partnerCoSellCatalog[p] {
			hasPartnerMatch = true
			break
		}
	}
	firstMover := asBool(m05, "first_mover_opportunity")
	techSpendTier := asString(m02, "tech_spend_tier")

	technical, business, timing := algoliaFitAxes(hasPartnerMatch, firstMover, techSpendTier)
	overall := (technical + business + timing) / 3.0

	priority := "LOW"
	switch {
	case provider == "algolia":
		priority = "N/A"
	case overall >= 7:
		priority = "HIGH"
	case overall >= 4:
		priority = "MEDIUM"
	}

	cit, _ := citation.New(citation.CompanySite, fmt.Sprintf("https://sentinel.internal/displacement/%s", domain), citation.WithConfidence(0.7))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"current_provider":         provider,
			"displacement_difficulty":  displacementDifficulty(provider),
			"partner_co_sell_match":    hasPartnerMatch,
			"algolia_fit_technical":    technical,
			"algolia_fit_business":     business,
			"algolia_fit_timing":       timing,
			"algolia_fit_overall":      overall,
			"displacement_priority":    priority,
		},
	}, nil
}
