package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplacementDifficultyTable(t *testing.T) {
	assert.Equal(t, "N/A", displacementDifficulty("algolia"))
	assert.Equal(t, "HIGH", displacementDifficulty("competitor"))
	assert.Equal(t, "MEDIUM", displacementDifficulty("native"))
	assert.Equal(t, "LOW", displacementDifficulty("unknown"))
}

func TestAlgoliaFitAxesClampedTo10(t *testing.T) {
	technical, business, timing := algoliaFitAxes(true, true, "100k+")
	assert.LessOrEqual(t, technical, 10.0)
	assert.LessOrEqual(t, business, 10.0)
	assert.LessOrEqual(t, timing, 10.0)
}
