package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildEngagementSequenceFollowsFixedOrder(t *testing.T) {
	committee := map[string]*m10ExecRef{
		"Economic Buyer":  {Name: "a"},
		"Champion":        {Name: "b"},
		"Technical Buyer": {Name: "c"},
	}
	seq := buildEngagementSequence(committee)
	assert.Equal(t, []string{"Champion", "Technical Buyer", "Economic Buyer"}, seq)
}

func TestBuildEngagementSequenceEmptyWhenNoSlotsFilled(t *testing.T) {
	seq := buildEngagementSequence(map[string]*m10ExecRef{})
	assert.Empty(t, seq)
}
