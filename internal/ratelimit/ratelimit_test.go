package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketAllowsBurstUpToCapacity(t *testing.T) {
	b := NewTokenBucket(1.0, 3)
	for i := 0; i < 3; i++ {
		ok, _ := b.TryAcquire()
		assert.True(t, ok, "acquire %d should succeed within capacity burst", i)
	}
	ok, wait := b.TryAcquire()
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
}

func TestTokenBucketRefillsOverTime(t *testing.T) {
	b := NewTokenBucket(1000.0, 1)
	ok, _ := b.TryAcquire()
	require.True(t, ok)
	ok, _ = b.TryAcquire()
	require.False(t, ok)

	time.Sleep(5 * time.Millisecond)
	ok, _ = b.TryAcquire()
	assert.True(t, ok, "bucket should have refilled at 1000 t/s after 5ms")
}

func TestTokenBucketAcquireBlocksThenSucceeds(t *testing.T) {
	b := NewTokenBucket(1000.0, 1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, b.Acquire(ctx))
	require.NoError(t, b.Acquire(ctx))
}

func TestTokenBucketAcquireRespectsCancellation(t *testing.T) {
	b := NewTokenBucket(0.001, 1)
	_, _ = b.TryAcquire()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := b.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSlidingWindowLimitsWithinWindow(t *testing.T) {
	w := NewSlidingWindow(50*time.Millisecond, 2)
	ok1, _ := w.TryAcquire()
	ok2, _ := w.TryAcquire()
	ok3, _ := w.TryAcquire()
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.False(t, ok3)
}

func TestRegistryUsesDefaultsPerAdapterName(t *testing.T) {
	r := NewRegistry()
	bucket := r.Get("regulatory")
	assert.Equal(t, 2.0, bucket.capacity)
	same := r.Get("regulatory")
	assert.Same(t, bucket, same)
}

func TestRegistryFallsBackWhenUnconfigured(t *testing.T) {
	r := NewRegistry()
	bucket := r.Get("unknown-adapter")
	assert.Equal(t, 10.0, bucket.capacity)
}
