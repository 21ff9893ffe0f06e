package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

// committeeSlots are the four named roles tracked for completeness scoring.
var committeeSlots = []string{"Champion", "Technical Buyer", "Economic Buyer", "Executive Sponsor"}

// engagementOrder is the fixed outreach sequence.
var engagementOrder = []string{"Champion", "Technical Buyer", "Economic Buyer", "Executive Sponsor"}

// M10BuyingCommittee is Wave 3; depends on M01, M06, M09.
type M10BuyingCommittee struct{}

func NewM10BuyingCommittee() *M10BuyingCommittee { return &M10BuyingCommittee{} }

func (m *M10BuyingCommittee) ID() string          { return "m10_buying_committee" }
func (m *M10BuyingCommittee) Wave() int           { return 3 }
func (m *M10BuyingCommittee) DependsOn() []string { return []string{"m01_company_context", "m06_hiring_signals", "m09_executive_intelligence"} }
func (m *M10BuyingCommittee) TimeoutSeconds() int { return 60 }

type m10ExecRef struct {
	Name      string
	Title     string
	BuyerRole string
}

func (m *M10BuyingCommittee) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	ok, missing := DependenciesMet(m.DependsOn(), moduleCtx)
	if !ok {
		return NewSkippedResult(m.ID(), domain, fmt.Sprintf("unmet dependencies: %v", missing)), nil
	}

	m09 := getModule(moduleCtx, "m09_executive_intelligence")
	rawExecs, _ := m09["executives"].([]ExecutiveProfile)

	committee := map[string]*m10ExecRef{}
	var userBuyers, techEvaluators []m10ExecRef
	for _, e := range rawExecs {
		ref := m10ExecRef{Name: e.Name, Title: e.Title, BuyerRole: e.BuyerRole}
		switch e.BuyerRole {
		case "Champion", "Technical Buyer", "Economic Buyer", "Executive Sponsor":
			if committee[e.BuyerRole] == nil {
				committee[e.BuyerRole] = &ref
			}
			if e.BuyerRole == "Technical Buyer" {
				techEvaluators = append(techEvaluators, ref)
			}
		case "User Buyer":
			userBuyers = append(userBuyers, ref)
		}
	}

	filled := 0
	for _, slot := range committeeSlots {
		if committee[slot] != nil {
			filled++
		}
	}
	completeness := float64(filled) / float64(len(committeeSlots))

	readiness := 0.0
	if committee["Champion"] != nil {
		readiness += 0.4
	}
	seq := buildEngagementSequence(committee)
	if len(seq) >= 2 {
		readiness += 0.3
	}
	if committee["Technical Buyer"] != nil {
		readiness += 0.2
	}
	if committee["Economic Buyer"] != nil {
		readiness += 0.1
	}

	cit, _ := citation.New(citation.PeopleNetwork, fmt.Sprintf("https://sentinel.internal/committee/%s", domain), citation.WithConfidence(0.6))

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"committee":                     committee,
			"user_buyers":                   userBuyers,
			"technical_evaluators":          techEvaluators,
			"committee_completeness_score":  completeness,
			"engagement_readiness_score":    readiness,
			"engagement_sequence":           seq,
		},
	}, nil
}

// buildEngagementSequence returns the fixed engagement order filtered down
// to roles actually present on the committee.
func buildEngagementSequence(committee map[string]*m10ExecRef) []string {
	seq := make([]string, 0, len(engagementOrder))
	for _, role := range engagementOrder {
		if committee[role] != nil {
			seq = append(seq, role)
		}
	}
	return seq
}
