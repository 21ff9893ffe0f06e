package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/citation"
	"github.com/aristath/sentinel/internal/ratelimit"
	"github.com/aristath/sentinel/internal/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type companyPayload struct {
	Name string
}

func newTestAdapter(makeRequest MakeRequestFunc) *Adapter[companyPayload] {
	retryCfg := retry.DefaultConfig()
	retryCfg.BaseDelay = time.Millisecond
	retryCfg.MaxDelay = 3 * time.Millisecond
	return New(Config[companyPayload]{
		Name:        "test-adapter",
		SourceType:  citation.WebSearch,
		RateLimiter: ratelimit.NewTokenBucket(1000, 1000),
		RetryConfig: retryCfg,
		MakeRequest: makeRequest,
		ParseResponse: func(endpoint string, raw any, params map[string]string) (companyPayload, error) {
			return raw.(companyPayload), nil
		},
		BuildSourceURL: func(endpoint string, params map[string]string) string {
			return "https://example.test/" + endpoint
		},
	})
}

func TestCallSucceedsAndPopulatesCitation(t *testing.T) {
	a := newTestAdapter(func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
		return companyPayload{Name: "Costco"}, nil
	})
	resp, err := a.Call(context.Background(), "company", map[string]string{"domain": "costco.com"}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "Costco", resp.Data.Name)
	assert.False(t, resp.Cached)
	assert.NotEmpty(t, resp.Citation.SourceURL)
}

func TestCallCachesSecondRequest(t *testing.T) {
	calls := 0
	a := newTestAdapter(func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
		calls++
		return companyPayload{Name: "Costco"}, nil
	})
	ctx := context.Background()
	params := map[string]string{"domain": "costco.com"}

	_, err := a.Call(ctx, "company", params, Options{})
	require.NoError(t, err)
	resp2, err := a.Call(ctx, "company", params, Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, resp2.Cached)
	assert.Equal(t, citation.Cache, resp2.Citation.SourceType)
	require.NotNil(t, resp2.Citation.OriginalCitation)
}

func TestCallRaisesRateLimitExceeded(t *testing.T) {
	a := New(Config[companyPayload]{
		Name:        "limited",
		SourceType:  citation.WebSearch,
		RateLimiter: ratelimit.NewTokenBucket(0.001, 1),
		RetryConfig: retry.DefaultConfig(),
		MakeRequest: func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
			return companyPayload{}, nil
		},
		ParseResponse: func(endpoint string, raw any, params map[string]string) (companyPayload, error) {
			return raw.(companyPayload), nil
		},
		BuildSourceURL: func(endpoint string, params map[string]string) string { return "https://example.test/x" },
	})
	_, err := a.Call(context.Background(), "company", map[string]string{"k": "1"}, Options{})
	require.NoError(t, err)
	_, err = a.Call(context.Background(), "company", map[string]string{"k": "2"}, Options{})
	var rle *RateLimitExceeded
	require.True(t, errors.As(err, &rle))
}

func TestCallRetriesThenExhausts(t *testing.T) {
	a := newTestAdapter(func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
		return nil, &retry.StatusError{Status: 503}
	})
	_, err := a.Call(context.Background(), "company", map[string]string{"k": "always-fails"}, Options{})
	var exhausted *RetryExhausted
	require.True(t, errors.As(err, &exhausted))
}

func TestCallTripsCircuitBreakerAfterThreshold(t *testing.T) {
	a := newTestAdapter(func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
		return nil, &retry.StatusError{Status: 500}
	})
	for i := 0; i < 10; i++ {
		_, _ = a.Call(context.Background(), "company", map[string]string{"k": "distinct", "i": string(rune('a' + i))}, Options{})
	}
	health := a.Health()
	assert.False(t, health.Healthy)
}

func TestCallSurfacesUpstreamErrorOnNonRetryableStatus(t *testing.T) {
	a := newTestAdapter(func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
		return nil, &retry.StatusError{Status: 404, Body: "not found"}
	})
	_, err := a.Call(context.Background(), "company", map[string]string{"k": "1"}, Options{})
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, 404, upstream.Status)
}
