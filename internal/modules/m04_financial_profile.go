package modules

import (
	"context"
	"math"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m04Data struct {
	IsPublic              bool
	DataLimitationReason  string
	Revenue3Y             [3]float64
	RevenueCAGR           float64
	NetIncome3Y           [3]float64
	NetMargin3Y           [3]float64
	EBITDAMargin          float64
	MarginZone            string
	EcommerceRevenue      float64
	AddressableSearchRev  float64
	ROIConservative       float64
	ROIModerate           float64
	ROIAggressive         float64
}

// M04FinancialProfile is Wave 1, no dependencies.
type M04FinancialProfile struct {
	adapter *adapterFor[m04Data]
}

func NewM04FinancialProfile() *M04FinancialProfile {
	return &M04FinancialProfile{adapter: newSourceAdapter("finance", citation.Finance, buildM04Data)}
}

const (
	addressableSearchShare = 0.15
	roiConservativeRate    = 0.05
	roiModerateRate        = 0.10
	roiAggressiveRate      = 0.15
)

func buildM04Data(domain string) m04Data {
	f, known := lookupFixture(domain)
	if !known || !f.IsPublic {
		return m04Data{
			IsPublic:             false,
			DataLimitationReason: "Private company: financial statements are not publicly disclosed",
		}
	}

	cagr := revenueCAGR(f.Revenue3Y)
	var netMargin [3]float64
	for i := range f.Revenue3Y {
		if f.Revenue3Y[i] > 0 {
			netMargin[i] = f.NetIncome3Y[i] / f.Revenue3Y[i]
		}
	}
	latestRevenue := f.Revenue3Y[2]
	ecommerceRevenue := latestRevenue * f.EcommerceShare
	addressable := ecommerceRevenue * addressableSearchShare

	return m04Data{
		IsPublic:             true,
		Revenue3Y:            f.Revenue3Y,
		RevenueCAGR:          cagr,
		NetIncome3Y:          f.NetIncome3Y,
		NetMargin3Y:          netMargin,
		EBITDAMargin:         f.EBITDAMargin,
		MarginZone:           marginZone(f.EBITDAMargin),
		EcommerceRevenue:     ecommerceRevenue,
		AddressableSearchRev: addressable,
		ROIConservative:      addressable * roiConservativeRate,
		ROIModerate:          addressable * roiModerateRate,
		ROIAggressive:        addressable * roiAggressiveRate,
	}
}

// revenueCAGR computes the 2-year compound annual growth rate across a
// 3-point (oldest-to-newest) revenue series.
func revenueCAGR(revenue [3]float64) float64 {
	if revenue[0] <= 0 {
		return 0
	}
	return math.Pow(revenue[2]/revenue[0], 1.0/2.0) - 1.0
}

// marginZone classifies EBITDA margin into the fixed GREEN/YELLOW/RED bands.
func marginZone(margin float64) string {
	switch {
	case margin > 0.20:
		return "GREEN"
	case margin > 0.10:
		return "YELLOW"
	case margin > 0:
		return "RED"
	default:
		return "UNKNOWN"
	}
}

func (m *M04FinancialProfile) ID() string          { return "m04_financial_profile" }
func (m *M04FinancialProfile) Wave() int           { return 1 }
func (m *M04FinancialProfile) DependsOn() []string { return nil }
func (m *M04FinancialProfile) TimeoutSeconds() int { return 60 }

func (m *M04FinancialProfile) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	data, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	if !data.IsPublic {
		cit.ConfidenceScore = 0.4
	}

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"is_public":                     data.IsPublic,
			"data_limitation_reason":        data.DataLimitationReason,
			"revenue_3y":                    data.Revenue3Y,
			"revenue_cagr":                  data.RevenueCAGR,
			"net_income_3y":                 data.NetIncome3Y,
			"net_margin_3y":                 data.NetMargin3Y,
			"ebitda_margin":                 data.EBITDAMargin,
			"margin_zone":                   data.MarginZone,
			"ecommerce_revenue":             data.EcommerceRevenue,
			"addressable_search_revenue":    data.AddressableSearchRev,
			"roi_conservative":              data.ROIConservative,
			"roi_moderate":                  data.ROIModerate,
			"roi_aggressive":                data.ROIAggressive,
		},
	}, nil
}
