package resilience

import (
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	for i := 0; i < 2; i++ {
		cb.Record(eris.New("fail"))
		assert.Equal(t, CircuitClosed, cb.State())
		require.NoError(t, cb.Allow())
	}

	cb.Record(eris.New("fail"))
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerSuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3})

	cb.Record(eris.New("fail"))
	cb.Record(eris.New("fail"))
	cb.Record(nil)
	cb.Record(eris.New("fail"))
	cb.Record(eris.New("fail"))

	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
}

func TestCircuitBreakerHalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	cb.nowFunc = func() time.Time { return now }

	cb.Record(eris.New("fail"))
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)

	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())
	assert.Equal(t, CircuitHalfOpen, cb.State())

	// Probe success closes the circuit.
	cb.Record(nil)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})

	now := time.Now()
	cb.nowFunc = func() time.Time { return now }

	cb.Record(eris.New("fail"))
	now = now.Add(2 * time.Minute)
	require.NoError(t, cb.Allow())

	cb.Record(eris.New("fail again"))
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Allow(), ErrCircuitOpen)
}

func TestCircuitBreakerShouldTripFilter(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ShouldTrip:       IsTransient,
	})

	// Permanent errors do not trip the breaker.
	cb.Record(eris.New("invalid request"))
	assert.Equal(t, CircuitClosed, cb.State())

	cb.Record(NewTransientError(eris.New("down"), 503))
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreakerReset(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	cb.Record(eris.New("fail"))
	cb.Reset()

	assert.Equal(t, CircuitClosed, cb.State())
	assert.NoError(t, cb.Allow())
	assert.Equal(t, []string{"closed->open", "open->closed"}, transitions)
}
