// Package scheduler wires up the cron job that periodically runs a full
// collect, score and apply pass.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"jobpilot/internal/model"
)

// Runner is the pass the scheduler fires, normally the full pipeline.
type Runner interface {
	Run(ctx context.Context) (model.RunStats, error)
}

// Scheduler wraps robfig/cron around the pipeline. Overlapping passes are
// skipped rather than queued.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string // cron spec, e.g. "@every 4h"
	log    *zap.SugaredLogger

	job cron.Job
	wg  sync.WaitGroup
}

// New creates a Scheduler that fires every intervalHours hours.
func New(runner Runner, intervalHours int, log *zap.SugaredLogger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		spec:   fmt.Sprintf("@every %dh", intervalHours),
		log:    log,
	}
}

// Start registers the job and starts the scheduler. One pass runs
// immediately so the store is populated without waiting for the first
// tick. The immediate pass shares the skip-if-still-running chain with
// the scheduled ticks, so the two can never overlap, and Stop waits
// for it.
func (s *Scheduler) Start(ctx context.Context) error {
	s.job = cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(func() {
		s.runPass(ctx)
	}))
	if _, err := s.cron.AddJob(s.spec, s.job); err != nil {
		return fmt.Errorf("cron.AddJob: %w", err)
	}

	s.cron.Start()
	s.log.Infow("[scheduler] started", "spec", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.job.Run()
	}()
	return nil
}

// Stop shuts down the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("[scheduler] stopped")
}

func (s *Scheduler) runPass(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.log.Info("[scheduler] pass started")
	stats, err := s.runner.Run(ctx)
	if err != nil {
		s.log.Errorw("[scheduler] pass failed", "error", err)
		return
	}
	s.log.Infow("[scheduler] pass complete",
		"new", stats.New, "scored", stats.Scored, "applied", stats.Applied,
		"failed", stats.Failed, "blocked", stats.Blocked)
}
