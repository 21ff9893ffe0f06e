package circuitbreaker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedTransitionsToOpenAtThreshold(t *testing.T) {
	b := New("adapter-x", Config{FailureThreshold: 3, RecoveryTimeout: time.Minute, HalfOpenProbeCount: 1, SuccessThreshold: 1})
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, Closed, b.State(), "threshold-1 failures must not open the breaker")

	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestOpenRejectsUntilRecoveryWindow(t *testing.T) {
	b := New("adapter-y", Config{FailureThreshold: 1, RecoveryTimeout: 20 * time.Millisecond, HalfOpenProbeCount: 1, SuccessThreshold: 1})
	b.RecordFailure()
	err := b.Allow()
	require.Error(t, err)
	var openErr *OpenError
	assert.ErrorAs(t, err, &openErr)

	time.Sleep(30 * time.Millisecond)
	assert.NoError(t, b.Allow())
	assert.Equal(t, HalfOpen, b.State())
}

func TestHalfOpenFailureReopens(t *testing.T) {
	b := New("adapter-z", Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond, HalfOpenProbeCount: 2, SuccessThreshold: 2})
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, Open, b.State())
}

func TestHalfOpenSuccessClosesAtThreshold(t *testing.T) {
	b := New("adapter-w", Config{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond, HalfOpenProbeCount: 2, SuccessThreshold: 2})
	b.RecordFailure()
	time.Sleep(15 * time.Millisecond)
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, HalfOpen, b.State())
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, Closed, b.State())
}

func TestClosedSuccessesAreNoOp(t *testing.T) {
	b := New("adapter-idem", DefaultConfig())
	for i := 0; i < 10; i++ {
		b.RecordSuccess()
	}
	assert.Equal(t, Closed, b.State())
}

func TestRegistryLazyCreatesAndCaches(t *testing.T) {
	r := NewRegistry(DefaultConfig())
	a := r.Get("m01_company_context")
	b := r.Get("m01_company_context")
	assert.Same(t, a, b)

	other := r.Get("m02_technology_stack")
	assert.NotSame(t, a, other)
}
