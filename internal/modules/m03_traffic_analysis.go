package modules

import (
	"context"
	"time"

	"github.com/aristath/sentinel/internal/citation"
)

type m03Data struct {
	MonthlyVisits   float64
	BounceRate      float64
	PagesPerVisit   float64
	AvgDuration     float64
	MobileShare     float64
	MoMTrend        float64
	YoYTrend        float64
	Direct          float64
	Organic         float64
	Paid            float64
	Social          float64
	Referral        float64
	TopCountries    map[string]float64
	TrafficTier     string
	IcpContribution int
}

// M03TrafficAnalysis is Wave 1, no dependencies.
type M03TrafficAnalysis struct {
	adapter *adapterFor[m03Data]
}

func NewM03TrafficAnalysis() *M03TrafficAnalysis {
	return &M03TrafficAnalysis{adapter: newSourceAdapter("traffic", citation.Traffic, buildM03Data)}
}

func buildM03Data(domain string) m03Data {
	f, known := lookupFixture(domain)
	visits := 500_000.0
	if known {
		// Larger, more established public companies get a proportionally
		// larger synthetic visit estimate.
		visits = float64(f.EmployeeCount) * 400
		if visits < 100_000 {
			visits = 100_000
		}
	}
	return m03Data{
		MonthlyVisits: visits,
		BounceRate:    0.42,
		PagesPerVisit: 4.1,
		AvgDuration:   185,
		MobileShare:   0.61,
		MoMTrend:      0.02,
		YoYTrend:      0.08,
		Direct:        0.35,
		Organic:       0.30,
		Paid:          0.15,
		Social:        0.08,
		Referral:      0.07,
		TopCountries:  map[string]float64{"US": 0.78, "CA": 0.09, "GB": 0.06},
		TrafficTier:   trafficTier(visits),
		IcpContribution: icpContributionForTier(trafficTier(visits)),
	}
}

// trafficTier classifies monthly visits by the fixed thresholds.
func trafficTier(visits float64) string {
	switch {
	case visits >= 50_000_000:
		return "50M+"
	case visits >= 10_000_000:
		return "10M-50M"
	case visits >= 1_000_000:
		return "1M-10M"
	case visits >= 100_000:
		return "100K-1M"
	default:
		return "<100K"
	}
}

func icpContributionForTier(tier string) int {
	switch tier {
	case "50M+":
		return 30
	case "10M-50M":
		return 25
	case "1M-10M":
		return 15
	case "100K-1M":
		return 10
	default:
		return 5
	}
}

func (m *M03TrafficAnalysis) ID() string          { return "m03_traffic_analysis" }
func (m *M03TrafficAnalysis) Wave() int           { return 1 }
func (m *M03TrafficAnalysis) DependsOn() []string { return nil }
func (m *M03TrafficAnalysis) TimeoutSeconds() int { return 60 }

func (m *M03TrafficAnalysis) Execute(ctx context.Context, domain string, moduleCtx Context) (ModuleResult, error) {
	start := time.Now()
	domain = NormalizeDomain(domain)

	data, cit, err := fetchOne(ctx, m.adapter, domain)
	if err != nil {
		return NewErrorResult(m.ID(), domain, err, msSince(start)), nil
	}

	return ModuleResult{
		ModuleID:        m.ID(),
		Domain:          domain,
		Status:          StatusSuccess,
		PrimaryCitation: cit,
		ExecutedAt:      time.Now().UTC(),
		DurationMs:      msSince(start),
		Data: map[string]any{
			"monthly_visits":   data.MonthlyVisits,
			"bounce_rate":      data.BounceRate,
			"pages_per_visit":  data.PagesPerVisit,
			"avg_duration_sec": data.AvgDuration,
			"mobile_share":     data.MobileShare,
			"mom_trend":        data.MoMTrend,
			"yoy_trend":        data.YoYTrend,
			"source_direct":    data.Direct,
			"source_organic":   data.Organic,
			"source_paid":      data.Paid,
			"source_social":    data.Social,
			"source_referral":  data.Referral,
			"top_countries":    data.TopCountries,
			"traffic_tier":     data.TrafficTier,
			"icp_contribution": data.IcpContribution,
		},
	}, nil
}
