// Package navigator abstracts the page-rendering layer behind a small
// capability interface so the pipeline never depends on a concrete
// browser driver, and tests can substitute a scripted fake.
package navigator

import (
	"context"
	"errors"
	"strings"
	"time"

	"jobpilot/internal/transport"
)

// Navigator is the page-driving capability consumed by the Collector and
// the Applicator. All methods are fallible and may block on network or
// rendering.
type Navigator interface {
	// Open navigates to url and waits for the document to load.
	Open(ctx context.Context, url string) error
	// HTML returns the outer HTML of the first node matching selector;
	// use "html" for the whole document.
	HTML(ctx context.Context, selector string) (string, error)
	// Text returns the visible text of the first node matching selector.
	Text(ctx context.Context, selector string) (string, error)
	// Click clicks the first node matching selector.
	Click(ctx context.Context, selector string) error
	// Fill sets the value of the first input matching selector.
	Fill(ctx context.Context, selector, value string) error
	// WaitVisible blocks until selector is visible or timeout elapses.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	// Scroll advances an infinite-scroll listing by one step.
	Scroll(ctx context.Context) error
	Close() error
}

// manualGateMarkers are the page-text fragments that indicate the site is
// demanding interactive verification. Matching is case-insensitive.
var manualGateMarkers = []string{
	"captcha", "recaptcha", "two-factor", "2fa", "security check",
}

// RequiresManualGate reports whether pageText shows a CAPTCHA/2FA wall.
// Such pages are never worked around automatically.
func RequiresManualGate(pageText string) bool {
	text := strings.ToLower(pageText)
	for _, marker := range manualGateMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Retrying wraps a Navigator so every action runs through the shared
// transport retry/backoff loop. Timeouts and renderer hiccups are
// transient; anything else (bad selector, closed browser) is permanent.
type Retrying struct {
	nav Navigator
	tc  *transport.Client
}

func NewRetrying(nav Navigator, tc *transport.Client) *Retrying {
	return &Retrying{nav: nav, tc: tc}
}

func (r *Retrying) Open(ctx context.Context, url string) error {
	return r.tc.Do(ctx, "open", func(ctx context.Context) error {
		return classify(r.nav.Open(ctx, url))
	})
}

func (r *Retrying) HTML(ctx context.Context, selector string) (out string, err error) {
	err = r.tc.Do(ctx, "html", func(ctx context.Context) error {
		var opErr error
		out, opErr = r.nav.HTML(ctx, selector)
		return classify(opErr)
	})
	return out, err
}

func (r *Retrying) Text(ctx context.Context, selector string) (out string, err error) {
	err = r.tc.Do(ctx, "text", func(ctx context.Context) error {
		var opErr error
		out, opErr = r.nav.Text(ctx, selector)
		return classify(opErr)
	})
	return out, err
}

func (r *Retrying) Click(ctx context.Context, selector string) error {
	return r.tc.Do(ctx, "click", func(ctx context.Context) error {
		return classify(r.nav.Click(ctx, selector))
	})
}

func (r *Retrying) Fill(ctx context.Context, selector, value string) error {
	return r.tc.Do(ctx, "fill", func(ctx context.Context) error {
		return classify(r.nav.Fill(ctx, selector, value))
	})
}

func (r *Retrying) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return r.tc.Do(ctx, "wait", func(ctx context.Context) error {
		return classify(r.nav.WaitVisible(ctx, selector, timeout))
	})
}

func (r *Retrying) Scroll(ctx context.Context) error {
	return r.tc.Do(ctx, "scroll", func(ctx context.Context) error {
		return classify(r.nav.Scroll(ctx))
	})
}

func (r *Retrying) Close() error { return r.nav.Close() }

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return transport.Transient(err)
	}
	msg := err.Error()
	if strings.Contains(msg, "net::") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "connection") {
		return transport.Transient(err)
	}
	return transport.Permanent(err)
}
