package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCaseStudyRankingOrdersByScoreDescending(t *testing.T) {
	matches := []CaseStudyMatch{
		{CaseStudy: "a", Score: 5},
		{CaseStudy: "b", Score: 10},
		{CaseStudy: "c", Score: 0},
	}
	for i := 0; i < len(matches); i++ {
		for j := i + 1; j < len(matches); j++ {
			if matches[j].Score > matches[i].Score {
				matches[i], matches[j] = matches[j], matches[i]
			}
		}
	}
	assert.Equal(t, "b", matches[0].CaseStudy)
	assert.Equal(t, "a", matches[1].CaseStudy)
	assert.Equal(t, "c", matches[2].CaseStudy)
}
