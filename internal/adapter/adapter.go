// Package adapter implements the resilience stack every outbound
// integration is built on: cache check, rate-limit gate, circuit breaker
// check, retrying execution, response parsing, citation attachment, and
// metrics recording — the seven-step call protocol.
//
// Rather than an inheritance hierarchy of concrete adapters, each source
// integration is a struct composing three small function-typed strategies
// (MakeRequest, ParseResponse, BuildSourceURL) plus this shared stack.
package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aristath/sentinel/internal/circuitbreaker"
	"github.com/aristath/sentinel/internal/citation"
	"github.com/aristath/sentinel/internal/ratelimit"
	"github.com/aristath/sentinel/internal/retry"
)

// RateLimitExceeded is raised by a non-blocking Call when a token is not
// immediately available.
type RateLimitExceeded struct {
	Adapter string
	Wait    time.Duration
}

func (e *RateLimitExceeded) Error() string {
	return fmt.Sprintf("adapter %s: rate limit exceeded, wait %s", e.Adapter, e.Wait)
}

// CircuitOpen is raised when the adapter's breaker rejects a call.
type CircuitOpen struct {
	Adapter   string
	RecoverIn time.Duration
}

func (e *CircuitOpen) Error() string {
	return fmt.Sprintf("adapter %s: circuit open, recovers in %s", e.Adapter, e.RecoverIn)
}

// RetryExhausted is raised when every retry attempt failed.
type RetryExhausted struct {
	Adapter  string
	Attempts int
	Last     error
}

func (e *RetryExhausted) Error() string {
	return fmt.Sprintf("adapter %s: retry exhausted after %d attempts: %v", e.Adapter, e.Attempts, e.Last)
}

func (e *RetryExhausted) Unwrap() error { return e.Last }

// UpstreamError wraps an HTTP/transport-level error with status and a body
// excerpt.
type UpstreamError struct {
	Adapter string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("adapter %s: upstream error status=%d: %s", e.Adapter, e.Status, e.Body)
}

// SourceCitationMissing is a defensive P0-violation check: it fires if a
// parser somehow produced output without the runtime being able to attach
// a citation.
type SourceCitationMissing struct {
	Adapter  string
	Endpoint string
}

func (e *SourceCitationMissing) Error() string {
	return fmt.Sprintf("adapter %s: endpoint %s produced no source citation (P0 violation)", e.Adapter, e.Endpoint)
}

// EndpointConfig describes one callable endpoint on an adapter.
type EndpointConfig struct {
	Name            string
	Path            string
	Method          string
	CostPerCall     float64
	CacheTTL        time.Duration
	TimeoutSeconds  time.Duration
	RequiresAuth    bool
	RateLimitWeight int
}

// Metrics accumulates per-adapter call statistics.
type Metrics struct {
	mu               sync.Mutex
	ExecutionCount   int
	SuccessCount     int
	FailureCount     int
	CacheHitCount    int
	TotalLatencyMs   float64
	CostUSD          float64
	CostByEndpoint   map[string]float64
	LastError        string
	LastExecutionAt  time.Time
}

// snapshot is a read-only copy safe to hand to callers.
type MetricsSnapshot struct {
	ExecutionCount  int
	SuccessRate     float64
	AverageLatency  float64
	CacheHitRate    float64
	CostUSD         float64
	CostByEndpoint  map[string]float64
	LastError       string
}

func newMetrics() *Metrics {
	return &Metrics{CostByEndpoint: map[string]float64{}}
}

func (m *Metrics) recordSuccess(endpoint string, latencyMs float64, cost float64, cached bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecutionCount++
	m.SuccessCount++
	m.TotalLatencyMs += latencyMs
	m.CostUSD += cost
	m.CostByEndpoint[endpoint] += cost
	m.LastExecutionAt = time.Now()
	if cached {
		m.CacheHitCount++
	}
}

func (m *Metrics) recordFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecutionCount++
	m.FailureCount++
	m.LastError = err.Error()
	m.LastExecutionAt = time.Now()
}

func (m *Metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	var successRate, avgLatency, cacheHitRate float64
	if m.ExecutionCount > 0 {
		successRate = float64(m.SuccessCount) / float64(m.ExecutionCount)
		avgLatency = m.TotalLatencyMs / float64(m.ExecutionCount)
		cacheHitRate = float64(m.CacheHitCount) / float64(m.ExecutionCount)
	}
	byEndpoint := make(map[string]float64, len(m.CostByEndpoint))
	for k, v := range m.CostByEndpoint {
		byEndpoint[k] = v
	}
	return MetricsSnapshot{
		ExecutionCount: m.ExecutionCount,
		SuccessRate:    successRate,
		AverageLatency: avgLatency,
		CacheHitRate:   cacheHitRate,
		CostUSD:        m.CostUSD,
		CostByEndpoint: byEndpoint,
		LastError:      m.LastError,
	}
}

// cacheEntry is a single cached response.
type cacheEntry[T any] struct {
	data     T
	citation citation.SourceCitation
	cachedAt time.Time
	ttl      time.Duration
	costUSD  float64
}

func (e cacheEntry[T]) isExpired() bool {
	return time.Since(e.cachedAt) > e.ttl
}

// SourcedResponse is the return value of a Call: the parsed data, its
// citation, and call metadata.
type SourcedResponse[T any] struct {
	Data      T
	Citation  citation.SourceCitation
	Cached    bool
	LatencyMs float64
	CostUSD   float64
}

// MakeRequestFunc performs the actual upstream network call, returning an
// opaque raw response for ParseResponseFunc to interpret.
type MakeRequestFunc func(ctx context.Context, endpoint string, params map[string]string, timeout time.Duration) (raw any, err error)

// ParseResponseFunc turns a raw upstream response into the adapter's typed
// payload.
type ParseResponseFunc[T any] func(endpoint string, raw any, params map[string]string) (T, error)

// BuildSourceURLFunc reconstructs the canonical URL a response came from,
// for citation purposes.
type BuildSourceURLFunc func(endpoint string, params map[string]string) string

// Adapter is the generic resilience-stack wrapper. One instance exists per
// external source integration (tech-fingerprint, traffic, finance, ...).
type Adapter[T any] struct {
	Name       string
	SourceType citation.SourceType

	rateLimiter  *ratelimit.TokenBucket
	breaker      *circuitbreaker.Breaker
	retryCfg     retry.Config
	retryTracker *retry.Tracker
	metrics      *Metrics

	mu        sync.Mutex
	cache     map[string]cacheEntry[T]
	endpoints map[string]EndpointConfig

	makeRequest    MakeRequestFunc
	parseResponse  ParseResponseFunc[T]
	buildSourceURL BuildSourceURLFunc
}

// Config bundles the constructor arguments for New.
type Config[T any] struct {
	Name           string
	SourceType     citation.SourceType
	RateLimiter    *ratelimit.TokenBucket
	Breaker        *circuitbreaker.Breaker
	RetryConfig    retry.Config
	MakeRequest    MakeRequestFunc
	ParseResponse  ParseResponseFunc[T]
	BuildSourceURL BuildSourceURLFunc
}

// New constructs an Adapter. If Breaker is nil a default-config breaker is
// created for this adapter's name.
func New[T any](cfg Config[T]) *Adapter[T] {
	breaker := cfg.Breaker
	if breaker == nil {
		breaker = circuitbreaker.New(cfg.Name, circuitbreaker.DefaultConfig())
	}
	return &Adapter[T]{
		Name:           cfg.Name,
		SourceType:     cfg.SourceType,
		rateLimiter:    cfg.RateLimiter,
		breaker:        breaker,
		retryCfg:       cfg.RetryConfig,
		retryTracker:   retry.NewTracker(),
		metrics:        newMetrics(),
		cache:          map[string]cacheEntry[T]{},
		endpoints:      map[string]EndpointConfig{},
		makeRequest:    cfg.MakeRequest,
		parseResponse:  cfg.ParseResponse,
		buildSourceURL: cfg.BuildSourceURL,
	}
}

// RegisterEndpoint installs a named endpoint configuration.
func (a *Adapter[T]) RegisterEndpoint(cfg EndpointConfig) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.endpoints[cfg.Name] = cfg
}

func (a *Adapter[T]) endpointConfig(endpoint string) EndpointConfig {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cfg, ok := a.endpoints[endpoint]; ok {
		return cfg
	}
	return EndpointConfig{Name: endpoint, Method: "GET", CacheTTL: time.Hour, TimeoutSeconds: 30 * time.Second}
}

// cacheKey is a stable hash over (adapter, endpoint, sorted params),
// matching the reference's sha256-hex-truncated-to-32 scheme.
func cacheKey(adapter, endpoint string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	ordered := make(map[string]string, len(params))
	for _, k := range keys {
		ordered[k] = params[k]
	}
	payload, _ := json.Marshal(struct {
		Adapter  string            `json:"adapter"`
		Endpoint string            `json:"endpoint"`
		Params   map[string]string `json:"params"`
	}{adapter, endpoint, ordered})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])[:32]
}

// Options tune an individual Call.
type Options struct {
	BypassCache      bool
	BypassRateLimit  bool
}

// Call executes the full seven-step protocol. In non-blocking mode (the
// default) it returns RateLimitExceeded immediately when no token is
// available; set opts.BypassRateLimit together with a prior blocking
// acquire (see CallWaiting) to skip that check.
func (a *Adapter[T]) Call(ctx context.Context, endpoint string, params map[string]string, opts Options) (SourcedResponse[T], error) {
	cfg := a.endpointConfig(endpoint)
	key := cacheKey(a.Name, endpoint, params)

	// Step 1: cache check.
	if !opts.BypassCache {
		a.mu.Lock()
		entry, ok := a.cache[key]
		a.mu.Unlock()
		if ok && !entry.isExpired() {
			wrapped, err := citation.FromCache(entry.citation, key)
			if err != nil {
				return SourcedResponse[T]{}, err
			}
			a.metrics.recordSuccess(endpoint, 0, 0, true)
			return SourcedResponse[T]{Data: entry.data, Citation: wrapped, Cached: true}, nil
		}
	}

	// Step 2: rate limit gate (non-blocking pre-check).
	if !opts.BypassRateLimit && a.rateLimiter != nil {
		if ok, wait := a.rateLimiter.TryAcquire(); !ok {
			return SourcedResponse[T]{}, &RateLimitExceeded{Adapter: a.Name, Wait: wait}
		}
	}

	// Step 3: circuit breaker check.
	if err := a.breaker.Allow(); err != nil {
		var openErr *circuitbreaker.OpenError
		if errors.As(err, &openErr) {
			return SourcedResponse[T]{}, &CircuitOpen{Adapter: a.Name, RecoverIn: openErr.RecoverIn}
		}
		return SourcedResponse[T]{}, err
	}

	start := time.Now()
	var raw any
	attempts := 0
	retryErr := retry.Do(ctx, a.retryCfg, func(attempt int, err error) {
		attempts = attempt + 1
		a.retryTracker.Record(endpoint, err)
	}, func(ctx context.Context) error {
		r, err := a.makeRequest(ctx, endpoint, params, cfg.TimeoutSeconds)
		if err != nil {
			return err
		}
		raw = r
		return nil
	})

	if retryErr != nil {
		a.breaker.RecordFailure()
		a.metrics.recordFailure(retryErr)
		var exhausted *retry.Exhausted
		if errors.As(retryErr, &exhausted) {
			return SourcedResponse[T]{}, &RetryExhausted{Adapter: a.Name, Attempts: exhausted.Attempts, Last: exhausted.Last}
		}
		var statusErr *retry.StatusError
		if errors.As(retryErr, &statusErr) {
			return SourcedResponse[T]{}, &UpstreamError{Adapter: a.Name, Status: statusErr.Status, Body: statusErr.Body}
		}
		return SourcedResponse[T]{}, retryErr
	}
	_ = attempts

	// Step 5: parse.
	data, err := a.parseResponse(endpoint, raw, params)
	if err != nil {
		a.breaker.RecordFailure()
		a.metrics.recordFailure(err)
		return SourcedResponse[T]{}, err
	}

	// Step 6: build citation.
	url := a.buildSourceURL(endpoint, params)
	if url == "" {
		err := &SourceCitationMissing{Adapter: a.Name, Endpoint: endpoint}
		a.breaker.RecordFailure()
		a.metrics.recordFailure(err)
		return SourcedResponse[T]{}, err
	}
	cit, err := citation.New(a.SourceType, url, citation.WithEndpoint(endpoint))
	if err != nil {
		a.breaker.RecordFailure()
		a.metrics.recordFailure(err)
		return SourcedResponse[T]{}, err
	}

	// Step 7: metrics, breaker, cache, return.
	latencyMs := float64(time.Since(start).Microseconds()) / 1000.0
	a.breaker.RecordSuccess()
	a.metrics.recordSuccess(endpoint, latencyMs, cfg.CostPerCall, false)

	a.mu.Lock()
	a.cache[key] = cacheEntry[T]{data: data, citation: cit, cachedAt: time.Now(), ttl: cfg.CacheTTL, costUSD: cfg.CostPerCall}
	a.mu.Unlock()

	return SourcedResponse[T]{Data: data, Citation: cit, Cached: false, LatencyMs: latencyMs, CostUSD: cfg.CostPerCall}, nil
}

// CallWaiting always blocks on the rate limiter rather than raising
// RateLimitExceeded. Cache is still consulted first.
func (a *Adapter[T]) CallWaiting(ctx context.Context, endpoint string, params map[string]string, bypassCache bool) (SourcedResponse[T], error) {
	key := cacheKey(a.Name, endpoint, params)
	if !bypassCache {
		a.mu.Lock()
		entry, ok := a.cache[key]
		a.mu.Unlock()
		if ok && !entry.isExpired() {
			wrapped, err := citation.FromCache(entry.citation, key)
			if err != nil {
				return SourcedResponse[T]{}, err
			}
			a.metrics.recordSuccess(endpoint, 0, 0, true)
			return SourcedResponse[T]{Data: entry.data, Citation: wrapped, Cached: true}, nil
		}
	}
	if a.rateLimiter != nil {
		if err := a.rateLimiter.Acquire(ctx); err != nil {
			return SourcedResponse[T]{}, err
		}
	}
	return a.Call(ctx, endpoint, params, Options{BypassCache: bypassCache, BypassRateLimit: true})
}

// Health reports a lightweight health summary.
type Health struct {
	Healthy         bool
	CircuitState    circuitbreaker.State
	SuccessRate     float64
	AvailableTokens float64
	CacheSize       int
	LastError       string
}

func (a *Adapter[T]) Health() Health {
	snap := a.metrics.snapshot()
	state := a.breaker.State()
	var tokens float64
	if a.rateLimiter != nil {
		tokens = a.rateLimiter.AvailableTokens()
	}
	a.mu.Lock()
	cacheSize := len(a.cache)
	a.mu.Unlock()
	return Health{
		Healthy:         state != circuitbreaker.Open,
		CircuitState:    state,
		SuccessRate:     snap.SuccessRate,
		AvailableTokens: tokens,
		CacheSize:       cacheSize,
		LastError:       snap.LastError,
	}
}

// Metrics returns a metrics snapshot.
func (a *Adapter[T]) Metrics() MetricsSnapshot { return a.metrics.snapshot() }

// RetryStats returns a copy of the adapter's accumulated retry statistics.
func (a *Adapter[T]) RetryStats() retry.Tracker { return *a.retryTracker }

// ClearCache removes all cache entries.
func (a *Adapter[T]) ClearCache() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.cache = map[string]cacheEntry[T]{}
}

// CleanupExpiredCache sweeps expired entries on demand; there is no
// background eviction goroutine.
func (a *Adapter[T]) CleanupExpiredCache() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	removed := 0
	for k, v := range a.cache {
		if v.isExpired() {
			delete(a.cache, k)
			removed++
		}
	}
	return removed
}
