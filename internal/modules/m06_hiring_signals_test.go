package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRoleTiers(t *testing.T) {
	assert.Equal(t, "TIER1_STRONG", classifyRole("VP of Digital Commerce"))
	assert.Equal(t, "TIER1_STRONG", classifyRole("Director, E-commerce"))
	assert.Equal(t, "TIER2_MODERATE", classifyRole("Senior Product Manager"))
	assert.Equal(t, "TIER3_TECHNICAL", classifyRole("Software Engineer"))
	assert.Equal(t, "UNCLASSIFIED", classifyRole("Site Merchandiser"))
}

func TestOverallHiringIntensityThreeClauseRule(t *testing.T) {
	assert.Equal(t, "HIGH", overallHiringIntensity(2, 0))
	assert.Equal(t, "HIGH", overallHiringIntensity(0, 10))
	assert.Equal(t, "MODERATE", overallHiringIntensity(1, 0))
	assert.Equal(t, "MODERATE", overallHiringIntensity(0, 5))
	assert.Equal(t, "LOW", overallHiringIntensity(0, 0))
	assert.Equal(t, "LOW", overallHiringIntensity(0, 4))
}

func TestIsAIRoleDetection(t *testing.T) {
	assert.True(t, isAIRole("Machine Learning Engineer, Personalization"))
	assert.False(t, isAIRole("Site Merchandiser"))
}
