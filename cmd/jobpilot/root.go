package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"jobpilot/internal/config"
	"jobpilot/internal/logger"
	"jobpilot/internal/model"
	"jobpilot/internal/navigator"
	"jobpilot/internal/repository"
	"jobpilot/internal/service"
	"jobpilot/internal/transport"
	"jobpilot/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:   "jobpilot",
	Short: "Collects job postings, scores them against a résumé and applies to the eligible ones",
	// Subcommands do their own error logging.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(autoCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(serveCmd)
}

// app holds the shared infrastructure every subcommand starts from.
type app struct {
	cfg   *config.Config
	log   *zap.SugaredLogger
	db    *gorm.DB
	jobs  *repository.JobRepository
	runs  *repository.RunRepository
	clock transport.Clock
	tc    *transport.Client
}

func bootstrap() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return nil, err
	}
	log := logger.New(cfg.App.LogLevel)

	db, err := repository.Open(cfg.Store)
	if err != nil {
		log.Errorw("open store", "path", cfg.Store.Path, "error", err)
		return nil, err
	}

	clock := transport.RealClock{}
	limiter := transport.NewLimiter(cfg.Transport.RateLimitInterval, cfg.Transport.RateLimitEnabled, clock)
	policy := transport.RetryPolicy{
		MaxAttempts:   cfg.Transport.Retries,
		Base:          cfg.Transport.BackoffBase,
		Cap:           cfg.Transport.BackoffCap,
		JitterFrac:    cfg.Transport.JitterFrac,
		RetryStatuses: cfg.Transport.RetryStatuses,
	}
	tc := transport.NewClient(policy, limiter, clock, log, transport.Options{
		Timeout:   cfg.Transport.Timeout,
		UserAgent: cfg.Transport.UserAgent,
		Proxy:     cfg.Transport.Proxy,
	})

	return &app{
		cfg:   cfg,
		log:   log,
		db:    db,
		jobs:  repository.NewJobRepository(db),
		runs:  repository.NewRunRepository(db),
		clock: clock,
		tc:    tc,
	}, nil
}

// signalContext is cancelled on SIGINT/SIGTERM so a run stops between
// items instead of mid-write.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func (a *app) newNavigator(ctx context.Context) (navigator.Navigator, func(), error) {
	chrome, err := navigator.NewChrome(ctx, navigator.ChromeOptions{
		Headless:  a.cfg.App.Headless,
		UserAgent: a.cfg.Transport.UserAgent,
		Proxy:     a.cfg.Transport.Proxy,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}
	cleanup := func() {
		if err := chrome.Close(); err != nil {
			a.log.Debugw("close browser", "error", err)
		}
	}
	return navigator.NewRetrying(chrome, a.tc), cleanup, nil
}

func (a *app) newScorer(ctx context.Context) (service.Scorer, error) {
	resume, err := service.LoadResumeText(a.cfg.Scorer.ResumePath)
	if err != nil {
		return nil, fmt.Errorf("load résumé: %w", err)
	}
	switch a.cfg.Scorer.Provider {
	case "openrouter":
		return service.NewOpenRouterScorer(a.cfg.Scorer, resume)
	default:
		return service.NewGeminiScorer(ctx, a.cfg.Scorer, resume, a.log)
	}
}

func (a *app) newCollector(nav navigator.Navigator) *usecase.Collector {
	site := ""
	if len(a.cfg.Collector.SourceURLs) > 0 {
		site = a.cfg.Collector.SourceURLs[0]
	}
	parser := navigator.NewListingParser(a.cfg.Collector.CardSelector, site)
	return usecase.NewCollector(a.cfg.Collector, nav, parser, a.jobs, a.runs, a.tc, a.clock, a.log)
}

func logStats(log *zap.SugaredLogger, kind string, stats model.RunStats) {
	log.Infow(kind+" finished",
		"seen", stats.Seen, "new", stats.New, "duplicate", stats.Duplicate,
		"scored", stats.Scored, "applied", stats.Applied,
		"would-apply", stats.WouldApply, "skipped", stats.Skipped,
		"failed", stats.Failed, "blocked", stats.Blocked)
}
