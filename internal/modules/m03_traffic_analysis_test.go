package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrafficTierThresholds(t *testing.T) {
	cases := []struct {
		visits float64
		tier   string
		icp    int
	}{
		{60_000_000, "50M+", 30},
		{50_000_000, "50M+", 30},
		{49_999_999, "10M-50M", 25},
		{10_000_000, "10M-50M", 25},
		{1_000_000, "1M-10M", 15},
		{100_000, "100K-1M", 10},
		{99_999, "<100K", 5},
	}
	for _, c := range cases {
		assert.Equal(t, c.tier, trafficTier(c.visits))
		assert.Equal(t, c.icp, icpContributionForTier(trafficTier(c.visits)))
	}
}

func TestM03SourceMixSumsWithinEpsilon(t *testing.T) {
	data := buildM03Data("costco.com")
	sum := data.Direct + data.Organic + data.Paid + data.Social + data.Referral
	assert.LessOrEqual(t, sum, 1.0+0.01)
}
