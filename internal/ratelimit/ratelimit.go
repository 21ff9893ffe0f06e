// Package ratelimit implements the adapter runtime's token-bucket rate
// limiter, a sliding-window alternative for strictly per-minute upstream
// APIs, and the process-wide per-adapter registry.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket is a mutex-guarded token bucket: refill at a constant rate,
// each acquire consumes one token.
type TokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewTokenBucket constructs a bucket starting full.
func NewTokenBucket(refillRate, capacity float64) *TokenBucket {
	return &TokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (b *TokenBucket) refillLocked() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.refillRate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// TryAcquire attempts a non-blocking acquire. It returns (true, 0) on
// success or (false, wait) with the duration the caller would need to wait.
func (b *TokenBucket) TryAcquire() (bool, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	wait := time.Duration((1 - b.tokens) / b.refillRate * float64(time.Second))
	return false, wait
}

// AvailableTokens reports the current token count after an implicit refill,
// used for the adapter runtime's non-blocking pre-check (spec step 2).
func (b *TokenBucket) AvailableTokens() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refillLocked()
	return b.tokens
}

// Acquire blocks (respecting ctx) until a token is available, retrying the
// wait computation each time since other callers may race for tokens.
func (b *TokenBucket) Acquire(ctx context.Context) error {
	for {
		ok, wait := b.TryAcquire()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// SlidingWindow enforces a strict per-window request cap by tracking a
// deque of recent request timestamps; it is appropriate for upstream APIs
// that cap "N requests per calendar minute" rather than a smooth refill.
type SlidingWindow struct {
	mu        sync.Mutex
	window    time.Duration
	limit     int
	requests  []time.Time
}

// NewSlidingWindow constructs a limiter admitting at most limit requests in
// any trailing window.
func NewSlidingWindow(window time.Duration, limit int) *SlidingWindow {
	return &SlidingWindow{window: window, limit: limit}
}

func (s *SlidingWindow) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	i := 0
	for ; i < len(s.requests); i++ {
		if s.requests[i].After(cutoff) {
			break
		}
	}
	s.requests = s.requests[i:]
}

// TryAcquire admits the request iff the window count is below limit.
func (s *SlidingWindow) TryAcquire() (bool, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.pruneLocked(now)
	if len(s.requests) < s.limit {
		s.requests = append(s.requests, now)
		return true, 0
	}
	wait := s.requests[0].Add(s.window).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return false, wait
}

// Acquire blocks until the sliding window admits the request.
func (s *SlidingWindow) Acquire(ctx context.Context) error {
	for {
		ok, wait := s.TryAcquire()
		if ok {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Config describes a pre-configured bucket for an adapter name.
type Config struct {
	RefillRate float64
	Capacity   float64
}

// Defaults holds the pre-configured rate limits per spec §6, keyed by the
// adapter's source-category name.
var Defaults = map[string]Config{
	"tech-fingerprint": {RefillRate: 0.5, Capacity: 5},
	"traffic":          {RefillRate: 1.0, Capacity: 10},
	"finance":          {RefillRate: 1.67, Capacity: 10},
	"regulatory":       {RefillRate: 0.1, Capacity: 2},
	"web-search":       {RefillRate: 5.0, Capacity: 20},
}

// Registry holds one token bucket per adapter name, created lazily from
// Defaults (or an explicit override) on first use.
type Registry struct {
	mu       sync.Mutex
	buckets  map[string]*TokenBucket
	override map[string]Config
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{buckets: map[string]*TokenBucket{}}
}

// Register installs an explicit config for an adapter name, overriding any
// default. Must be called before the first Get for that name to take effect
// deterministically.
func (r *Registry) Register(adapterName string, cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.override == nil {
		r.override = map[string]Config{}
	}
	r.override[adapterName] = cfg
}

// Get returns the bucket for adapterName, creating it from the registered
// override, the built-in default, or a conservative fallback (1 t/s, bucket
// 10) if neither exists.
func (r *Registry) Get(adapterName string) *TokenBucket {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.buckets[adapterName]; ok {
		return b
	}
	cfg, ok := r.override[adapterName]
	if !ok {
		cfg, ok = Defaults[adapterName]
	}
	if !ok {
		cfg = Config{RefillRate: 1.0, Capacity: 10}
	}
	b := NewTokenBucket(cfg.RefillRate, cfg.Capacity)
	r.buckets[adapterName] = b
	return b
}
