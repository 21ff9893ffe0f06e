package modules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m09Executive struct {
	Name        string
	Title       string
	TenureMonths int
}

// ExecutiveProfile is M09's per-executive output, consumed directly by
// M10's buying-committee assembly.
type ExecutiveProfile struct {
	Name         string
	Title        string
	TenureMonths int
	BuyerRole    string
	NewToRole    bool
	Quote        string
}

// buyerRoleKeywords maps a buyer role to the title keywords identifying it,
// checked in order so the first match wins.
var buyerRoleKeywords = []struct {
	Role     string
	Keywords []string
}{
	{"Economic Buyer", []string{"chief executive", "ceo", "chief financial", "cfo"}},
	{"Executive Sponsor", []string{"chief digital", "chief commerce", "chief revenue"}},
	{"Technical Buyer", []string{"chief technology", "cto", "chief information", "cio", "vp engineering", "vp technology"}},
	{"Champion", []string{"vp e-commerce", "vp digital", "director of digital", "director of e-commerce", "head of digital"}},
	{"User Buyer", []string{"merchandising", "site merchandiser", "ux", "product manager"}},
}

// M09ExecutiveIntelligence is Wave 3; depends on M01 only. M08's investor
// quotes are read optionally (inherited when present) and never gate
// execution.
type M09ExecutiveIntelligence struct {
	adapter *adapterFor[[]m09Executive]
}

func NewM09ExecutiveIntelligence() *M09ExecutiveIntelligence {
	return &M09ExecutiveIntelligence{adapter: newSourceAdapter("people-network", citation.PeopleNetwork, buildM09Executives)}
}

func buildM09Executives(domain string) []m09Executive {
	_, known := lookupFixture(domain)
	execs := []m09Executive{
		{Name: "Jordan Ellis", Title: "Chief Financial Officer", TenureMonths: 54},
		{Name: "Priya Nandakumar", Title: "VP E-commerce", TenureMonths: 9},
	}
	if known {
		execs = append(execs, m09Executive{Name: "Marcus Webb", Title: "Chief Technology Officer", TenureMonths: 30})
	}
	return execs
}

func classifyBuyerRole(title string) string {
	t := strings.ToLower(title)
	for _, entry := range buyerRoleKeywords {
		for _, kw := range entry.Keywords {
			if strings.Contains(t, kw) {
				return entry.Role
			}
		}
	}
	return "Unknown"
}

func (m *M09ExecutiveIntelligence) ID() string          { return "m09_executive_intelligence" }
func (m *M09ExecutiveIntelligence) Wave() int           { return 3 }
func (m *M09ExecutiveIntelligence) DependsOn() []string { return []string{"m01_company_context"} }
func (m *M09ExecutiveIntelligence) TimeoutSeconds() int { return 90 }

func (m *M09ExecutiveIntelligence) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	execs, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	m08 := getModule(moduleCtx, "m08_investor_intelligence")
	var inheritedQuote string
	if quotes, ok := m08["quotes"].([]m08Quote); ok && len(quotes) > 0 {
		inheritedQuote = quotes[0].Text
	}

	profiles := make([]ExecutiveProfile, 0, len(execs))
	for _, e := range execs {
		role := classifyBuyerRole(e.Title)
		p := ExecutiveProfile{Name: e.Name, Title: e.Title, TenureMonths: e.TenureMonths, BuyerRole: role, NewToRole: e.TenureMonths < 18}
		if role == "Champion" || role == "Executive Sponsor" {
			p.Quote = inheritedQuote
		}
		profiles = append(profiles, p)
	}

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"executives": profiles,
		},
	}, nil
}
