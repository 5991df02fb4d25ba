package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cimillas/concert-ticketing/internal/clock"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	l, err := NewMemoryLimiter(2, time.Minute, clk)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		ok, err := l.Allow(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	// Other callers have their own budget.
	ok, err = l.Allow(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, ok)

	clk.Advance(time.Minute)
	ok, err = l.Allow(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiter_SweepsStaleWindows(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewManual(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	l, err := NewMemoryLimiter(1, time.Minute, clk)
	require.NoError(t, err)

	_, err = l.Allow(ctx, "a")
	require.NoError(t, err)
	_, err = l.Allow(ctx, "b")
	require.NoError(t, err)

	clk.Advance(2 * time.Minute)
	_, err = l.Allow(ctx, "c")
	require.NoError(t, err)
	assert.Len(t, l.windows, 1)
}

func TestMemoryLimiter_RejectsBadSettings(t *testing.T) {
	_, err := NewMemoryLimiter(0, time.Minute, nil)
	assert.Error(t, err)
	_, err = NewMemoryLimiter(1, 0, nil)
	assert.Error(t, err)
}

func TestMemoryLimiter_CancelledContext(t *testing.T) {
	l, err := NewMemoryLimiter(1, time.Minute, nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = l.Allow(ctx, "alice")
	assert.ErrorIs(t, err, context.Canceled)
}
