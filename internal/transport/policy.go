package transport

import (
	"math"
	"math/rand"
	"time"
)

// RetryPolicy bounds the retry loop around one logical call.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, first try included.
	MaxAttempts int
	// Base is the delay before the first retry.
	Base time.Duration
	// Cap is the ceiling the exponential delay never exceeds. A value of
	// zero or less means no ceiling.
	Cap time.Duration
	// JitterFrac spreads each delay uniformly within ±JitterFrac of its
	// computed value. Zero disables jitter.
	JitterFrac float64
	// RetryStatuses is the set of HTTP status codes treated as transient.
	RetryStatuses []int
}

// DefaultRetryStatuses mirror the usual throttle/server-error set.
var DefaultRetryStatuses = []int{429, 500, 502, 503, 504}

// DefaultRetryPolicy matches the configured defaults of the pipeline.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   3,
		Base:          700 * time.Millisecond,
		Cap:           4500 * time.Millisecond,
		RetryStatuses: DefaultRetryStatuses,
	}
}

// Delay returns the backoff before retry n (n ≥ 1):
// min(Base * 2^(n-1), Cap), optionally jittered. Without a positive Cap
// the delay grows unclamped. Jittered values stay within ±JitterFrac of
// the capped delay and never go negative.
func (p RetryPolicy) Delay(n int) time.Duration {
	if n < 1 || p.Base <= 0 {
		return 0
	}
	d := p.Base
	for i := 1; i < n; i++ {
		if p.Cap > 0 && d >= p.Cap {
			break
		}
		if d > math.MaxInt64/2 {
			break
		}
		d *= 2
	}
	if p.Cap > 0 && d > p.Cap {
		d = p.Cap
	}
	if p.JitterFrac > 0 {
		spread := float64(d) * p.JitterFrac
		d = time.Duration(float64(d) - spread + rand.Float64()*2*spread)
		if d < 0 {
			d = 0
		}
	}
	return d
}

// RetryableStatus reports whether code belongs to the configured
// transient status set.
func (p RetryPolicy) RetryableStatus(code int) bool {
	for _, s := range p.RetryStatuses {
		if s == code {
			return true
		}
	}
	return false
}
