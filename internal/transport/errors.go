// Package transport wraps outbound calls (HTTP requests and driven
// browser actions) with per-call timeouts, bounded retry with exponential
// backoff, and a shared fixed-interval rate limiter.
package transport

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Callers classify their errors by wrapping one of these
// sentinels; the retry loop only re-attempts transient failures.
var (
	// ErrTransient marks a failure worth retrying (network error,
	// retryable status code, flaky render).
	ErrTransient = errors.New("transient failure")

	// ErrPermanent marks a failure that retrying cannot fix (auth
	// failure, parse error, unexpected page shape).
	ErrPermanent = errors.New("permanent failure")

	// ErrBlocked marks a site-imposed interactive verification
	// (CAPTCHA/2FA). Never retried automatically; surfaced to a human.
	ErrBlocked = errors.New("manual verification required")
)

// ExhaustedError is returned when every configured attempt failed. It
// carries the last underlying failure and the attempt count.
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

// Transient wraps err as retryable.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// Permanent wraps err as non-retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// Blocked wraps err (or a message) as a manual-verification condition.
func Blocked(msg string) error {
	return fmt.Errorf("%w: %s", ErrBlocked, msg)
}

// IsRetryable reports whether err should be re-attempted. Blocked and
// permanent failures are not; anything explicitly transient is.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBlocked) || errors.Is(err, ErrPermanent) {
		return false
	}
	return errors.Is(err, ErrTransient)
}
