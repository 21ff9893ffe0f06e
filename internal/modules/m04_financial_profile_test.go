package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarginZoneBands(t *testing.T) {
	assert.Equal(t, "GREEN", marginZone(0.25))
	assert.Equal(t, "YELLOW", marginZone(0.15))
	assert.Equal(t, "RED", marginZone(0.05))
	assert.Equal(t, "UNKNOWN", marginZone(0))
	assert.Equal(t, "UNKNOWN", marginZone(-0.02))
}

func TestPrivateCompanyGetsDataLimitation(t *testing.T) {
	data := buildM04Data("example-private.com")
	assert.False(t, data.IsPublic)
	assert.NotEmpty(t, data.DataLimitationReason)
}

func TestPublicCompanyROIScenariosScaleWithRate(t *testing.T) {
	data := buildM04Data("costco.com")
	assert.True(t, data.IsPublic)
	assert.Less(t, data.ROIConservative, data.ROIModerate)
	assert.Less(t, data.ROIModerate, data.ROIAggressive)
	assert.InDelta(t, data.EcommerceRevenue*addressableSearchShare, data.AddressableSearchRev, 1.0)
}

func TestRevenueCAGRZeroBaseline(t *testing.T) {
	assert.Equal(t, 0.0, revenueCAGR([3]float64{0, 100, 200}))
}
