package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), nil, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoRetriesRetryableStatus(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.MaxRetries = 2

	calls := 0
	err := Do(context.Background(), cfg, nil, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &StatusError{Status: 503}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoDoesNotRetryNonRetryableStatus(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultConfig(), nil, func(ctx context.Context) error {
		calls++
		return &StatusError{Status: 404}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDoReturnsExhaustedAfterMaxRetries(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 2 * time.Millisecond
	cfg.MaxRetries = 2

	calls := 0
	err := Do(context.Background(), cfg, nil, func(ctx context.Context) error {
		calls++
		return &StatusError{Status: 500}
	})
	require.Error(t, err)
	var exhausted *Exhausted
	require.True(t, errors.As(err, &exhausted))
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 3, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseDelay = 100 * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, cfg, nil, func(ctx context.Context) error {
		return &StatusError{Status: 500}
	})
	require.Error(t, err)
}

func TestTrackerAccumulatesStats(t *testing.T) {
	tr := NewTracker()
	tr.Record("fetch", errors.New("boom"))
	tr.Record("fetch", errors.New("boom2"))
	assert.Equal(t, 2, tr.TotalRetries)
	assert.Equal(t, 2, tr.RetriesByOp["fetch"])
}
