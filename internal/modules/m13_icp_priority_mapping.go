package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

const (
	icpVerticalWeight   = 40.0
	icpTrafficWeight    = 30.0
	icpTechSpendWeight  = 20.0
	icpPartnerTechWeight = 10.0
)

// verticalTier maps a vertical to its ICP tier (1 = best fit).
func verticalTier(vertical string) int {
	switch vertical {
	case "Commerce":
		return 1
	case "Content":
		return 2
	case "Support":
		return 3
	default:
		return 3
	}
}

func verticalFactor(tier int) float64 {
	switch tier {
	case 1:
		return 1.0
	case 2:
		return 0.6
	default:
		return 0.3
	}
}

func techSpendFactor(tier string) float64 {
	switch tier {
	case "100k+":
		return 1.0
	case "50k-100k":
		return 0.75
	case "25k-50k":
		return 0.5
	case "10k-25k":
		return 0.25
	default:
		return 0.1
	}
}

func partnerTechFactor(partners []string) float64 {
	switch {
	case len(partners) >= 2:
		return 1.0
	case len(partners) == 1:
		return 0.5
	default:
		return 0.0
	}
}

// priorityStatus applies the fixed hot/warm/cool/cold bands.
func priorityStatus(score float64) string {
	switch {
	case score >= 80:
		return "hot"
	case score >= 60:
		return "warm"
	case score >= 40:
		return "cool"
	default:
		return "cold"
	}
}

// M13IcpPriorityMapping is Wave 4; depends on M01, M02, M03, M04, M05.
type M13IcpPriorityMapping struct{}

func NewM13IcpPriorityMapping() *M13IcpPriorityMapping { return &M13IcpPriorityMapping{} }

func (m *M13IcpPriorityMapping) ID() string { return "m13_icp_priority_mapping" }
func (m *M13IcpPriorityMapping) Wave() int  { return 4 }
func (m *M13IcpPriorityMapping) DependsOn() []string {
	return []string{"m01_company_context", "m02_technology_stack", "m03_traffic_analysis", "m04_financial_profile", "m05_competitor_intelligence"}
}
func (m *M13IcpPriorityMapping) TimeoutSeconds() int { return 60 }

func (m *M13IcpPriorityMapping) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m01 := getModule(moduleCtx, "m01_company_context")
	m02 := getModule(moduleCtx, "m02_technology_stack")
	m03 := getModule(moduleCtx, "m03_traffic_analysis")

	vertical := asString(m01, "vertical")
	tier := verticalTier(vertical)
	verticalComponent := icpVerticalWeight * verticalFactor(tier)

	trafficComponent := asFloat(m03, "icp_contribution")
	if trafficComponent > icpTrafficWeight {
		trafficComponent = icpTrafficWeight
	}

	techSpendComponent := icpTechSpendWeight * techSpendFactor(asString(m02, "tech_spend_tier"))
	partnerComponent := icpPartnerTechWeight * partnerTechFactor(asStringSlice(m02, "partner_technologies"))

	leadScore := verticalComponent + trafficComponent + techSpendComponent + partnerComponent
	if leadScore > 100 {
		leadScore = 100
	}
	if leadScore < 0 {
		leadScore = 0
	}

	cit, _ := citation.New(citation.Manual, fmt.Sprintf("https://sentinel.internal/icp/%s", domain), citation.WithConfidence(0.8))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"lead_score":      leadScore,
			"tier":            tier,
			"priority_status": priorityStatus(leadScore),
			"score_breakdown": map[string]float64{
				"vertical_tier": verticalComponent,
				"traffic":       trafficComponent,
				"tech_spend":    techSpendComponent,
				"partner_tech":  partnerComponent,
			},
		},
	}, nil
}
