package transport

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when something sleeps, recording each sleep.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return nil
}

func TestLimiter_FirstCallPassesImmediately(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2*time.Second, true, clock)

	require.NoError(t, l.Wait(context.Background()))
	assert.Empty(t, clock.sleeps)
}

func TestLimiter_PacesBackToBackCalls(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2*time.Second, true, clock)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))
	require.NoError(t, l.Wait(ctx))

	// Second and third calls each wait out the remaining interval.
	require.Len(t, clock.sleeps, 2)
	assert.Equal(t, 2*time.Second, clock.sleeps[0])
	assert.Equal(t, 2*time.Second, clock.sleeps[1])
}

func TestLimiter_IdleGapConsumesTheInterval(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2*time.Second, true, clock)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx))
	clock.now = clock.now.Add(5 * time.Second)
	require.NoError(t, l.Wait(ctx))

	assert.Empty(t, clock.sleeps, "a call after an idle gap must not wait")
}

func TestLimiter_DisabledPassesThrough(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2*time.Second, false, clock)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	assert.Empty(t, clock.sleeps)
}

func TestLimiter_NilLimiterIsSafe(t *testing.T) {
	var l *Limiter
	assert.NoError(t, l.Wait(context.Background()))
}

func TestLimiter_CancelledContext(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(time.Second, true, clock)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.Canceled)
}
