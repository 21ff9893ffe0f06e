package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrivateCompanyGetsUnknownSearchPriority(t *testing.T) {
	data := buildM08Data("example-private.com")
	assert.Equal(t, "UNKNOWN", data.SearchPriorityLevel)
	assert.Empty(t, data.Quotes)
}

func TestPublicCompanyQuotesHaveSpeakerAndTitle(t *testing.T) {
	data := buildM08Data("sallybeauty.com")
	for _, q := range data.Quotes {
		assert.NotEmpty(t, q.Speaker)
		assert.NotEmpty(t, q.Title)
	}
}
