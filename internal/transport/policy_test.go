package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDelay_ExponentialGrowthUnderCap(t *testing.T) {
	p := RetryPolicy{Base: 700 * time.Millisecond, Cap: 4500 * time.Millisecond}

	assert.Equal(t, 700*time.Millisecond, p.Delay(1))
	assert.Equal(t, 1400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 2800*time.Millisecond, p.Delay(3))
}

func TestDelay_CapClampsLateRetries(t *testing.T) {
	p := RetryPolicy{Base: 700 * time.Millisecond, Cap: 4500 * time.Millisecond}

	assert.Equal(t, 4500*time.Millisecond, p.Delay(4))
	assert.Equal(t, 4500*time.Millisecond, p.Delay(10))
	// Large attempt numbers must not overflow into negatives.
	assert.Equal(t, 4500*time.Millisecond, p.Delay(64))
}

func TestDelay_NoCapKeepsGrowing(t *testing.T) {
	p := RetryPolicy{Base: 700 * time.Millisecond}

	assert.Equal(t, 700*time.Millisecond, p.Delay(1))
	assert.Equal(t, 1400*time.Millisecond, p.Delay(2))
	assert.Equal(t, 2800*time.Millisecond, p.Delay(3))
	// Large attempt numbers must stay positive without a ceiling too.
	assert.Greater(t, p.Delay(64), time.Duration(0))
}

func TestDelay_ZeroForInvalidInput(t *testing.T) {
	p := RetryPolicy{Base: 700 * time.Millisecond, Cap: 4500 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, time.Duration(0), p.Delay(-1))

	noBase := RetryPolicy{Cap: time.Second}
	assert.Equal(t, time.Duration(0), noBase.Delay(1))
}

func TestDelay_JitterStaysWithinSpread(t *testing.T) {
	p := RetryPolicy{Base: time.Second, Cap: 10 * time.Second, JitterFrac: 0.2}
	lo := 800 * time.Millisecond
	hi := 1200 * time.Millisecond

	for i := 0; i < 200; i++ {
		d := p.Delay(1)
		assert.GreaterOrEqual(t, d, lo)
		assert.LessOrEqual(t, d, hi)
	}
}

func TestRetryableStatus(t *testing.T) {
	p := RetryPolicy{RetryStatuses: DefaultRetryStatuses}

	for _, code := range []int{429, 500, 502, 503, 504} {
		assert.True(t, p.RetryableStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404, 501} {
		assert.False(t, p.RetryableStatus(code), "status %d", code)
	}
}
