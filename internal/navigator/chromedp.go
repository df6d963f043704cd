package navigator

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Chrome drives a headless (or headed) Chrome instance via the DevTools
// protocol. One instance owns one browser for the lifetime of a run.
type Chrome struct {
	browserCtx   context.Context
	cancelCtx    context.CancelFunc
	cancelAlloc  context.CancelFunc
	actionBudget time.Duration
}

// ChromeOptions tune the browser session.
type ChromeOptions struct {
	Headless  bool
	UserAgent string
	Proxy     string
	// ActionBudget bounds each individual action; zero means 30s.
	ActionBudget time.Duration
}

func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{},
		chromedp.DefaultExecAllocatorOptions[:]...)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Start the browser eagerly so a broken environment fails at
	// construction, not mid-run.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	budget := opts.ActionBudget
	if budget <= 0 {
		budget = 30 * time.Second
	}
	return &Chrome{
		browserCtx:   browserCtx,
		cancelCtx:    cancelCtx,
		cancelAlloc:  cancelAlloc,
		actionBudget: budget,
	}, nil
}

// run executes actions against the browser target with a per-action
// deadline. The caller's ctx is honored by a cancellation bridge: chromedp
// actions must run on the browser context, which does not descend from the
// caller's.
func (c *Chrome) run(ctx context.Context, budget time.Duration, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(c.browserCtx, budget)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (c *Chrome) Open(ctx context.Context, url string) error {
	return c.run(ctx, c.actionBudget,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
}

func (c *Chrome) HTML(ctx context.Context, selector string) (string, error) {
	var html string
	err := c.run(ctx, c.actionBudget,
		chromedp.OuterHTML(selector, &html, chromedp.ByQuery))
	return html, err
}

func (c *Chrome) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := c.run(ctx, c.actionBudget,
		chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

func (c *Chrome) Click(ctx context.Context, selector string) error {
	return c.run(ctx, c.actionBudget,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (c *Chrome) Fill(ctx context.Context, selector, value string) error {
	return c.run(ctx, c.actionBudget,
		chromedp.SetValue(selector, value, chromedp.ByQuery))
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = c.actionBudget
	}
	return c.run(ctx, timeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (c *Chrome) Scroll(ctx context.Context) error {
	return c.run(ctx, c.actionBudget,
		chromedp.Evaluate(`window.scrollBy(0, 2200)`, nil))
}

func (c *Chrome) Close() error {
	c.cancelCtx()
	c.cancelAlloc()
	return nil
}
