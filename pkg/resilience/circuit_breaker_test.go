package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastRetryConfig(retryable bool) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: func(err error) bool { return retryable },
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(true), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	cause := errors.New("permanent")
	err := Retry(context.Background(), fastRetryConfig(false), func() error {
		attempts++
		return cause
	})

	assert.Equal(t, cause, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryExhaustionWrapsLastError(t *testing.T) {
	cause := errors.New("still failing")
	err := Retry(context.Background(), fastRetryConfig(true), func() error {
		return cause
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "max retries (3) exceeded")
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, fastRetryConfig(true), func() error {
		t.Fatal("fn should not run after cancellation")
		return nil
	})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestDefaultRetryConfigDoesNotRetry(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), DefaultRetryConfig(), func() error {
		attempts++
		return errors.New("anything")
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCircuitBreakerTripsOnConsecutiveFailures(t *testing.T) {
	var transitions []gobreaker.State
	cfg := DefaultCircuitBreakerConfig("test")
	cfg.FailureThreshold = 3
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	}

	cb := NewCircuitBreaker(cfg, testLogger())
	failing := func() (interface{}, error) { return nil, errors.New("down") }

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(context.Background(), failing)
		require.Error(t, err)
	}

	require.Equal(t, gobreaker.StateOpen, cb.State())
	require.NotEmpty(t, transitions)
	assert.Equal(t, gobreaker.StateOpen, transitions[len(transitions)-1])

	_, err := cb.Execute(context.Background(), func() (interface{}, error) {
		t.Fatal("fn should not run while the circuit is open")
		return nil, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circuit breaker open for test")
}

func TestCircuitBreakerPassesThroughResults(t *testing.T) {
	cb := NewCircuitBreaker(DefaultCircuitBreakerConfig("test"), testLogger())

	result, err := cb.Execute(context.Background(), func() (interface{}, error) {
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	assert.Equal(t, "test", cb.Name())
}
