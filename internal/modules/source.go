package modules

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/sentinel/internal/adapter"
	"github.com/aristath/sentinel/internal/citation"
	"github.com/aristath/sentinel/internal/ratelimit"
	"github.com/aristath/sentinel/internal/retry"
)

// adapterFor is a local alias so per-module files can name their adapter
// type without importing the adapter package directly in every file.
type adapterFor[T any] = adapter.Adapter[T]

// newSourceAdapter builds a per-module adapter instance wired through the
// shared resilience stack (rate limit, circuit breaker, retry, cache,
// citation). fetchFn computes the module's payload for a normalized
// domain; it stands in for the real upstream vendor call a production
// deployment would make, exactly as the reference implementation's mock
// data tables stand in for the real BuiltWith/SimilarWeb/EDGAR calls.
func newSourceAdapter[T any](category string, sourceType citation.SourceType, fetchFn func(domain string) T) *adapter.Adapter[T] {
	cfg, ok := ratelimit.Defaults[category]
	if !ok {
		cfg = ratelimit.Config{RefillRate: 1.0, Capacity: 10}
	}
	return adapter.New(adapter.Config[T]{
		Name:        category,
		SourceType:  sourceType,
		RateLimiter: ratelimit.NewTokenBucket(cfg.RefillRate, cfg.Capacity),
		RetryConfig: retry.DefaultConfig(),
		MakeRequest: func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (any, error) {
			return fetchFn(params["domain"]), nil
		},
		ParseResponse: func(endpoint string, raw any, params map[string]string) (T, error) {
			return raw.(T), nil
		},
		BuildSourceURL: func(endpoint string, params map[string]string) string {
			return fmt.Sprintf("https://%s.internal/%s?domain=%s", category, endpoint, params["domain"])
		},
	})
}

// fetchOne is a small convenience wrapper calling a's "lookup" endpoint for
// domain and returning the module-ready (data, citation) pair.
func fetchOne[T any](ctx context.Context, a *adapter.Adapter[T], domain string) (T, citation.SourceCitation, error) {
	resp, err := a.Call(ctx, "lookup", map[string]string{"domain": domain}, adapter.Options{})
	if err != nil {
		var zero T
		return zero, citation.SourceCitation{}, err
	}
	return resp.Data, resp.Citation, nil
}

// getModule retrieves a predecessor's result data map, or nil if absent.
func getModule(ctx Context, id string) map[string]any {
	r, ok := ctx[id]
	if !ok || r.Status != StatusSuccess {
		return nil
	}
	return r.Data
}

func asString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, _ := m[key].(string)
	return v
}

func asBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	v, _ := m[key].(bool)
	return v
}

func asFloat(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}

func asStringSlice(m map[string]any, key string) []string {
	if m == nil {
		return nil
	}
	v, ok := m[key].([]string)
	if ok {
		return v
	}
	return nil
}
