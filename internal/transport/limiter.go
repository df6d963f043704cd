package transport

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time so tests can substitute a deterministic fake.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is done.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Limiter paces calls to at most one per Interval. One instance is shared
// process-wide by the Collector and the Applicator so total outbound
// traffic stays within the configured envelope; it is passed explicitly,
// never held as ambient state.
type Limiter struct {
	mu       sync.Mutex
	interval time.Duration
	enabled  bool
	clock    Clock
	next     time.Time
}

// NewLimiter builds a fixed-interval limiter. A disabled limiter or a
// non-positive interval lets every call through immediately.
func NewLimiter(interval time.Duration, enabled bool, clock Clock) *Limiter {
	if clock == nil {
		clock = RealClock{}
	}
	return &Limiter{interval: interval, enabled: enabled, clock: clock}
}

// Wait blocks until the next call slot is available or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || !l.enabled || l.interval <= 0 {
		return ctx.Err()
	}

	l.mu.Lock()
	now := l.clock.Now()
	delay := l.next.Sub(now)
	if l.next.Before(now) {
		l.next = now
	}
	l.next = l.next.Add(l.interval)
	l.mu.Unlock()

	if delay > 0 {
		return l.clock.Sleep(ctx, delay)
	}
	return ctx.Err()
}
