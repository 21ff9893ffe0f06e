package citation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMalformedURL(t *testing.T) {
	_, err := New(Finance, "not-a-url")
	require.Error(t, err)
}

func TestNewDefaultsConfidenceToOne(t *testing.T) {
	c, err := New(WebSearch, "https://example.com/search")
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.ConfidenceScore)
}

func TestFromCacheRejectsNesting(t *testing.T) {
	original, err := New(Finance, "https://example.com/quote")
	require.NoError(t, err)
	cached, err := FromCache(original, "key1")
	require.NoError(t, err)

	_, err = FromCache(cached, "key2")
	assert.Error(t, err)
}

func TestFromCachePreservesOriginal(t *testing.T) {
	original, err := New(Traffic, "https://example.com/stats")
	require.NoError(t, err)
	cached, err := FromCache(original, "abc123")
	require.NoError(t, err)

	assert.Equal(t, Cache, cached.SourceType)
	require.NotNil(t, cached.OriginalCitation)
	assert.Equal(t, original.SourceType, cached.OriginalCitation.SourceType)
	assert.Equal(t, original.SourceURL, cached.OriginalCitation.SourceURL)
}

func TestClassifyBoundaries(t *testing.T) {
	// finance policy: fresh=1d stale=7d expired=30d
	justInside := SourceCitation{SourceType: Finance, RetrievedAt: time.Now().Add(-24 * time.Hour)}
	assert.Equal(t, Fresh, Classify(justInside))

	onePastFresh := SourceCitation{SourceType: Finance, RetrievedAt: time.Now().Add(-24*time.Hour - 2*clockSkewTolerance)}
	assert.Equal(t, Stale, Classify(onePastFresh))

	expired := SourceCitation{SourceType: Finance, RetrievedAt: time.Now().Add(-31 * 24 * time.Hour)}
	assert.Equal(t, Expired, Classify(expired))
}

func TestClassifyUnknownSourceType(t *testing.T) {
	c := SourceCitation{SourceType: SourceType("nonexistent"), RetrievedAt: time.Now()}
	assert.Equal(t, Unknown, Classify(c))
}

func TestClassifyDeterministicWithinSecond(t *testing.T) {
	c := SourceCitation{SourceType: Traffic, RetrievedAt: time.Now().Add(-10 * 24 * time.Hour)}
	first := Classify(c)
	second := Classify(c)
	assert.Equal(t, first, second)
}

func TestFreshnessPolicyMonotonicity(t *testing.T) {
	for sourceType, p := range policies {
		assert.Less(t, p.FreshDays, p.StaleDays, "source_type=%s", sourceType)
		assert.Less(t, p.StaleDays, p.ExpiredDays, "source_type=%s", sourceType)
	}
}

func TestValidateFlagsExpiredAndMissingOriginal(t *testing.T) {
	expired := SourceCitation{SourceType: Finance, SourceURL: "https://x.test/a", RetrievedAt: time.Now().Add(-60 * 24 * time.Hour), ConfidenceScore: 0.5}
	badCache := SourceCitation{SourceType: Cache, SourceURL: "https://x.test/b", RetrievedAt: time.Now(), ConfidenceScore: 0.9}

	result := Validate([]SourceCitation{expired, badCache})
	assert.False(t, result.IsValid)
	assert.Equal(t, 1, result.ExpiredCount)
	assert.Len(t, result.Errors, 1)
}

func TestMultiSourcedValueIsValidIsAndOfAll(t *testing.T) {
	fresh, err := New(WebSearch, "https://x.test/fresh")
	require.NoError(t, err)
	expired := SourceCitation{SourceType: WebSearch, SourceURL: "https://x.test/old", RetrievedAt: time.Now().Add(-100 * 24 * time.Hour)}

	m := NewMultiSourcedValue("value", fresh, expired)
	assert.False(t, m.IsValid())

	m2 := NewMultiSourcedValue("value", fresh)
	assert.True(t, m2.IsValid())
}
