package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) *Config {
	return &Config{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        2 * time.Millisecond,
		BackoffMultiplier: 2,
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	got, err := Do(context.Background(), fastConfig(3), nil, "flaky", func(context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errors.New("not yet")
		}
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 3, calls)
}

func TestDoGivesUp(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	_, err := Do(context.Background(), fastConfig(2), nil, "broken", func(context.Context) (string, error) {
		calls++
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed after 2 attempts")
	assert.Equal(t, 2, calls)
}

func TestDoStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Do(ctx, fastConfig(5), nil, "cancelled", func(context.Context) (int, error) {
		return 0, errors.New("unreachable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCalculateBackoffCaps(t *testing.T) {
	cfg := &Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: time.Second, BackoffMultiplier: 2}
	assert.Equal(t, 100*time.Millisecond, calculateBackoff(0, cfg))
	assert.Equal(t, 400*time.Millisecond, calculateBackoff(2, cfg))
	assert.Equal(t, time.Second, calculateBackoff(10, cfg))
}

func TestDoStopsOnPermanentError(t *testing.T) {
	denied := errors.New("password authentication failed")
	calls := 0
	_, err := Do(context.Background(), fastConfig(5), nil, "database ping", func(context.Context) (int, error) {
		calls++
		return 0, Permanent(denied)
	})
	assert.ErrorIs(t, err, denied)
	assert.True(t, IsPermanent(err))
	assert.Equal(t, 1, calls)
	assert.NoError(t, Permanent(nil))
}
