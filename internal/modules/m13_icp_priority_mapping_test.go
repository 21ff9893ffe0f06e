package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerticalTierMapping(t *testing.T) {
	assert.Equal(t, 1, verticalTier("Commerce"))
	assert.Equal(t, 2, verticalTier("Content"))
	assert.Equal(t, 3, verticalTier("Support"))
	assert.Equal(t, 3, verticalTier("Unknown"))
}

func TestPriorityStatusBands(t *testing.T) {
	assert.Equal(t, "hot", priorityStatus(80))
	assert.Equal(t, "warm", priorityStatus(65))
	assert.Equal(t, "cool", priorityStatus(45))
	assert.Equal(t, "cold", priorityStatus(10))
}

func TestScoreBreakdownSumsToLeadScoreWithinOnePoint(t *testing.T) {
	vertical := icpVerticalWeight * verticalFactor(verticalTier("Commerce"))
	traffic := 25.0
	techSpend := icpTechSpendWeight * techSpendFactor("50k-100k")
	partner := icpPartnerTechWeight * partnerTechFactor([]string{"Segment"})

	leadScore := vertical + traffic + techSpend + partner
	sum := vertical + traffic + techSpend + partner
	assert.InDelta(t, leadScore, sum, 1.0)
}
