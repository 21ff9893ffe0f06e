package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyBuyerRole(t *testing.T) {
	assert.Equal(t, "Economic Buyer", classifyBuyerRole("Chief Financial Officer"))
	assert.Equal(t, "Technical Buyer", classifyBuyerRole("Chief Technology Officer"))
	assert.Equal(t, "Champion", classifyBuyerRole("VP E-commerce"))
	assert.Equal(t, "Unknown", classifyBuyerRole("Office Manager"))
}

func TestNewToRoleThreshold(t *testing.T) {
	execs := buildM09Executives("sallybeauty.com")
	var foundNew bool
	for _, e := range execs {
		if e.TenureMonths < 18 {
			foundNew = true
		}
	}
	assert.True(t, foundNew, "fixture should include at least one recently-hired executive")
}
