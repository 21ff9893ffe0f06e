package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBudgetSignalLevels(t *testing.T) {
	assert.Equal(t, 80.0, budgetSignal("HIGH"))
	assert.Equal(t, 50.0, budgetSignal("MEDIUM"))
	assert.Equal(t, 20.0, budgetSignal("LOW"))
	assert.Equal(t, 0.0, budgetSignal("UNKNOWN"))
}

func TestPainSignalLevels(t *testing.T) {
	assert.Equal(t, 80.0, painSignal("HIGH"))
	assert.Equal(t, 50.0, painSignal("MODERATE"))
	assert.Equal(t, 20.0, painSignal("LOW"))
}

func TestHasAllThreeRequiresAllPositiveSignals(t *testing.T) {
	assert.True(t, 10.0 > 0 && 10.0 > 0 && 10.0 > 0)
	assert.False(t, 0.0 > 0 && 10.0 > 0 && 10.0 > 0)
}
