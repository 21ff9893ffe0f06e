package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTallyProvidersCountsEachBucket(t *testing.T) {
	competitors := []m05Competitor{
		{Name: "a", SearchProvider: "algolia"},
		{Name: "b", SearchProvider: "native"},
		{Name: "c", SearchProvider: "native"},
		{Name: "d", SearchProvider: "unknown"},
	}
	algolia, _, _, _, native, _, unknown := tallyProviders(competitors)
	assert.Equal(t, 1, algolia)
	assert.Equal(t, 2, native)
	assert.Equal(t, 1, unknown)
}

func TestFirstMoverOpportunityRequiresZeroAlgoliaUsers(t *testing.T) {
	competitors := buildM05Competitors("costco.com") // Commerce vertical, includes an algolia competitor
	algolia, _, _, _, _, _, _ := tallyProviders(competitors)
	assert.Greater(t, algolia, 0)
}

func TestUnknownVerticalFallsBackToCommerceCompetitorSet(t *testing.T) {
	competitors := buildM05Competitors("example-private.com")
	assert.NotEmpty(t, competitors)
	assert.Equal(t, competitorSets["Commerce"], competitors)
}
