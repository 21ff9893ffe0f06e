package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m05Competitor struct {
	Name           string
	SearchProvider string
}

type m05Data struct {
	Competitors           []m05Competitor
	AlgoliaUsers          int
	ConstructorUsers      int
	ElasticsearchUsers    int
	CoveoUsers            int
	NativeUsers           int
	OtherUsers            int
	UnknownUsers          int
	FirstMoverOpportunity bool
	PositioningStatement  string
}

// M05CompetitorIntelligence is Wave 2; depends on M01 and M02.
type M05CompetitorIntelligence struct {
	adapter *adapterFor[[]m05Competitor]
}

func NewM05CompetitorIntelligence() *M05CompetitorIntelligence {
	return &M05CompetitorIntelligence{adapter: newSourceAdapter("web-search", citation.WebSearch, buildM05Competitors)}
}

// competitorSets provides a small deterministic competitor roster per
// vertical so the module can run without a live competitive-intelligence
// feed.
var competitorSets = map[string][]m05Competitor{
	"Commerce": {
		{Name: "Rival Commerce Co.", SearchProvider: "algolia"},
		{Name: "Legacy Retail Group", SearchProvider: "native"},
		{Name: "Discount Marketplace Inc.", SearchProvider: "elasticsearch"},
	},
	"Content": {
		{Name: "StreamRight Media", SearchProvider: "constructor"},
		{Name: "Editorial Network", SearchProvider: "native"},
	},
	"Support": {
		{Name: "HelpDesk Pro", SearchProvider: "coveo"},
		{Name: "KB Systems", SearchProvider: "unknown"},
	},
}

func buildM05Competitors(domain string) []m05Competitor {
	f, known := lookupFixture(domain)
	vertical := "Commerce"
	if known && f.Vertical != "" {
		vertical = f.Vertical
	}
	set, ok := competitorSets[vertical]
	if !ok {
		set = competitorSets["Commerce"]
	}
	return set
}

func tallyProviders(competitors []m05Competitor) (algolia, constructor, elasticsearch, coveo, native, other, unknown int) {
	for _, c := range competitors {
		switch c.SearchProvider {
		case "algolia":
			algolia++
		case "constructor":
			constructor++
		case "elasticsearch":
			elasticsearch++
		case "coveo":
			coveo++
		case "native":
			native++
		case "unknown":
			unknown++
		default:
			other++
		}
	}
	return
}

func (m *M05CompetitorIntelligence) ID() string          { return "m05_competitor_intelligence" }
func (m *M05CompetitorIntelligence) Wave() int           { return 2 }
func (m *M05CompetitorIntelligence) DependsOn() []string { return []string{"m01_company_context", "m02_technology_stack"} }
func (m *M05CompetitorIntelligence) TimeoutSeconds() int { return 90 }

func (m *M05CompetitorIntelligence) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	competitors, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	m01 := getModule(moduleCtx, "m01_company_context")
	companyName := asString(m01, "company_name")
	algolia, constructor, elasticsearch, coveo, native, other, unknown := tallyProviders(competitors)

	positioning := fmt.Sprintf(
		"%s competes in a field where %d of %d tracked competitors already run dedicated site search; closing that gap is central to the commercial narrative.",
		companyName, len(competitors)-unknown, len(competitors),
	)

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"competitors":             competitors,
			"algolia_users":           algolia,
			"constructor_users":       constructor,
			"elasticsearch_users":     elasticsearch,
			"coveo_users":             coveo,
			"native_users":            native,
			"other_users":             other,
			"unknown_users":           unknown,
			"first_mover_opportunity": algolia == 0,
			"positioning_statement":   positioning,
		},
	}, nil
}
