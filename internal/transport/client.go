package transport

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Request describes one outbound HTTP call.
type Request struct {
	Method  string
	URL     string
	Body    any
	Headers map[string]string
	// Timeout overrides the client default for this call when positive.
	Timeout time.Duration
}

// Response is the trimmed-down result handed back to callers.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Client executes HTTP requests and arbitrary fallible operations
// (browser actions) under one retry policy and one shared limiter. It
// holds no business state.
type Client struct {
	rest    *resty.Client
	policy  RetryPolicy
	limiter *Limiter
	clock   Clock
	log     *zap.SugaredLogger
}

// Options tune the underlying resty client.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Proxy     string
}

// NewClient builds a transport Client. The limiter may be shared with
// other clients; a nil limiter disables pacing.
func NewClient(policy RetryPolicy, limiter *Limiter, clock Clock, log *zap.SugaredLogger, opts Options) *Client {
	if clock == nil {
		clock = RealClock{}
	}
	rest := resty.New().
		SetRetryCount(0). // the attempt loop below owns retries
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))
	if opts.Timeout > 0 {
		rest.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		rest.SetHeader("User-Agent", opts.UserAgent)
	}
	if opts.Proxy != "" {
		rest.SetProxy(opts.Proxy)
	}
	return &Client{rest: rest, policy: policy, limiter: limiter, clock: clock, log: log}
}

// Execute performs req with bounded retry. Connection-level errors and
// statuses in the policy's retry set are re-attempted after backoff;
// any other response is returned to the caller as-is. When every attempt
// fails the call surfaces an *ExhaustedError carrying the last failure.
func (c *Client) Execute(ctx context.Context, req Request) (*Response, error) {
	var last error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := c.attempt(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			last = err
			c.log.Warnw("[transport] request error",
				"method", req.Method, "url", req.URL,
				"attempt", attempt, "max", c.policy.MaxAttempts, "err", err)
			if attempt == c.policy.MaxAttempts {
				break
			}
			if err := c.clock.Sleep(ctx, c.policy.Delay(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		if !c.policy.RetryableStatus(resp.StatusCode) {
			return resp, nil
		}

		last = fmt.Errorf("retryable status %d", resp.StatusCode)
		c.log.Warnw("[transport] retryable status",
			"method", req.Method, "url", req.URL, "status", resp.StatusCode,
			"attempt", attempt, "max", c.policy.MaxAttempts)
		if attempt == c.policy.MaxAttempts {
			break
		}

		delay := retryAfter(resp.Header)
		if delay <= 0 {
			delay = c.policy.Delay(attempt)
		}
		if err := c.clock.Sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	return nil, &ExhaustedError{Attempts: c.policy.MaxAttempts, Last: last}
}

func (c *Client) attempt(ctx context.Context, req Request) (*Response, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	r := c.rest.R().SetContext(ctx)
	if len(req.Headers) > 0 {
		r.SetHeaders(req.Headers)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	resp, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
		Header:     resp.Header(),
	}, nil
}

// Do runs a fallible operation (typically a navigator action) under the
// same retry policy and limiter as HTTP calls. Only errors classified as
// transient are re-attempted; blocked and permanent failures propagate
// immediately.
func (c *Client) Do(ctx context.Context, name string, fn func(context.Context) error) error {
	var last error

	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRetryable(err) {
			return err
		}

		last = err
		c.log.Warnw("[transport] operation failed",
			"op", name, "attempt", attempt, "max", c.policy.MaxAttempts, "err", err)
		if attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.clock.Sleep(ctx, c.policy.Delay(attempt)); err != nil {
			return err
		}
	}

	return &ExhaustedError{Attempts: c.policy.MaxAttempts, Last: last}
}

// retryAfter honors a numeric Retry-After header when the server sends one.
func retryAfter(h http.Header) time.Duration {
	raw := h.Get("Retry-After")
	if raw == "" {
		return 0
	}
	secs, err := strconv.ParseFloat(raw, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs * float64(time.Second))
}
