package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimingAssessmentBaseline(t *testing.T) {
	score := timingAssessment("LOW", false, false, false, 0, "GREEN")
	assert.Equal(t, 50, score)
}

func TestTimingAssessmentAllPositiveClausesClampedTo100(t *testing.T) {
	score := timingAssessment("HIGH", true, true, true, 2, "GREEN")
	// 50+15+10+15+10+10 = 110, clamped to 100
	assert.Equal(t, 100, score)
}

func TestTimingAssessmentMarginPenaltiesStack(t *testing.T) {
	yellow := timingAssessment("LOW", false, false, false, 0, "YELLOW")
	red := timingAssessment("LOW", false, false, false, 0, "RED")
	assert.Equal(t, 40, yellow)
	assert.Equal(t, 40, red)
}

func TestOverallFromScoreBands(t *testing.T) {
	cases := []struct {
		score           int
		overall, priority string
	}{
		{80, "EXCELLENT", "HIGH"},
		{60, "GOOD", "HIGH"},
		{40, "NEUTRAL", "MEDIUM"},
		{0, "POOR", "LOW"},
	}
	for _, c := range cases {
		overall, priority := overallFromScore(c.score)
		assert.Equal(t, c.overall, overall)
		assert.Equal(t, c.priority, priority)
	}
}

func TestCountInitiativesScansKeywords(t *testing.T) {
	n := countInitiatives("We are pursuing a digital transformation and international growth this year.")
	assert.Equal(t, 2, n)
}
