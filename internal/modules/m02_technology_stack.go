package modules

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m02Technology struct {
	Name       string
	Category   string
	Confidence float64
}

type m02Data struct {
	Technologies        []m02Technology
	SearchProvider      string
	PartnerTechnologies []string
	DisplacementPriority string
	TechSpendTier       string
}

// M02TechnologyStack is Wave 1, no dependencies.
type M02TechnologyStack struct {
	adapter *techFingerprintAdapter
}

func NewM02TechnologyStack() *M02TechnologyStack {
	return &M02TechnologyStack{adapter: newTechFingerprintAdapter()}
}

// displacementPriorityForProvider implements the fixed provider table from
// the module contract.
func displacementPriorityForProvider(provider string) string {
	switch provider {
	case "algolia":
		return "NONE"
	case "competitor":
		return "HIGH"
	case "native":
		return "MEDIUM"
	default:
		return "LOW"
	}
}

func (m *M02TechnologyStack) ID() string          { return "m02_technology_stack" }
func (m *M02TechnologyStack) Wave() int           { return 1 }
func (m *M02TechnologyStack) DependsOn() []string { return nil }
func (m *M02TechnologyStack) TimeoutSeconds() int { return 60 }

// techFingerprintAdapter is the concrete adapter type backing M02.
type techFingerprintAdapter = adapterFor[m02Data]

func newTechFingerprintAdapter() *techFingerprintAdapter {
	return newSourceAdapter("tech-fingerprint", citation.TechFingerprint, buildM02Data)
}

func (m *M02TechnologyStack) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	data, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	techNames := make([]string, 0, len(data.Technologies))
	for _, t := range data.Technologies {
		techNames = append(techNames, t.Name)
	}

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"technologies":          techNames,
			"search_provider":       data.SearchProvider,
			"has_algolia":           data.SearchProvider == "algolia",
			"partner_technologies":  data.PartnerTechnologies,
			"displacement_priority": data.DisplacementPriority,
			"tech_spend_tier":       data.TechSpendTier,
		},
	}, nil
}

// buildM02Data is the module's data-computation function, wrapped by the
// adapter's MakeRequest strategy.
func buildM02Data(domain string) m02Data {
	f, known := lookupFixture(domain)
	provider := "unknown"
	if known {
		provider = f.SearchProvider
	}
	techs := []m02Technology{
		{Name: "CDN", Category: "infrastructure", Confidence: 0.9},
		{Name: "Analytics Suite", Category: "analytics", Confidence: 0.8},
	}
	partners := []string{}
	switch provider {
	case "native":
		techs = append(techs, m02Technology{Name: "Native Platform Search", Category: "search", Confidence: 0.85})
	case "competitor":
		techs = append(techs, m02Technology{Name: "Enterprise Search (competitor)", Category: "search", Confidence: 0.85})
		partners = append(partners, "Segment", "Salesforce Commerce Cloud")
	case "algolia":
		techs = append(techs, m02Technology{Name: "Algolia", Category: "search", Confidence: 0.95})
	}
	tier := "unknown"
	if known {
		switch {
		case f.EmployeeCount >= 100000:
			tier = "100k+"
		case f.EmployeeCount >= 20000:
			tier = "50k-100k"
		case f.EmployeeCount >= 5000:
			tier = "25k-50k"
		case f.EmployeeCount >= 1000:
			tier = "10k-25k"
		default:
			tier = "<10k"
		}
	}
	return m02Data{
		Technologies:         techs,
		SearchProvider:       provider,
		PartnerTechnologies:  partners,
		DisplacementPriority: displacementPriorityForProvider(provider),
		TechSpendTier:        tier,
	}
}
