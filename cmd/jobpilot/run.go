package main

import (
	"context"

	"github.com/spf13/cobra"

	"jobpilot/internal/scheduler"
	"jobpilot/internal/usecase"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Discover postings from the configured listing pages",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		nav, cleanup, err := a.newNavigator(ctx)
		if err != nil {
			a.log.Errorw("collect", "error", err)
			return err
		}
		defer cleanup()

		stats, err := a.newCollector(nav).Run(ctx)
		logStats(a.log, "collect", stats)
		if err != nil {
			a.log.Errorw("collect", "error", err)
		}
		return err
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score unscored postings against the résumé",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		scorer, err := a.newScorer(ctx)
		if err != nil {
			a.log.Errorw("score", "error", err)
			return err
		}

		ev := usecase.NewEvaluator(a.cfg.Collector, a.cfg.Scorer, scorer, a.jobs, a.runs, a.clock, a.log)
		stats, err := ev.Run(ctx)
		logStats(a.log, "score", stats)
		if err != nil {
			a.log.Errorw("score", "error", err)
		}
		return err
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply to eligible postings under the safety gates",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		nav, cleanup, err := a.newNavigator(ctx)
		if err != nil {
			a.log.Errorw("apply", "error", err)
			return err
		}
		defer cleanup()

		ap := usecase.NewApplicator(a.cfg.Applicator, a.cfg.Scorer, nav, a.jobs, a.runs, a.clock, a.log)
		stats, err := ap.Run(ctx)
		logStats(a.log, "apply", stats)
		if err != nil {
			a.log.Errorw("apply", "error", err)
		}
		return err
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full collect, score and apply pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		pipeline, cleanup, err := a.newPipeline(ctx)
		if err != nil {
			a.log.Errorw("run", "error", err)
			return err
		}
		defer cleanup()

		stats, err := pipeline.Run(ctx)
		logStats(a.log, "run", stats)
		if err != nil {
			a.log.Errorw("run", "error", err)
		}
		return err
	},
}

var autoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run full passes on a fixed interval until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		ctx, cancel := signalContext()
		defer cancel()

		pipeline, cleanup, err := a.newPipeline(ctx)
		if err != nil {
			a.log.Errorw("auto", "error", err)
			return err
		}
		defer cleanup()

		sched := scheduler.New(pipeline, a.cfg.Auto.IntervalHours, a.log)
		if err := sched.Start(ctx); err != nil {
			a.log.Errorw("auto", "error", err)
			return err
		}
		<-ctx.Done()
		sched.Stop()
		return nil
	},
}

func (a *app) newPipeline(ctx context.Context) (*usecase.Pipeline, func(), error) {
	nav, cleanup, err := a.newNavigator(ctx)
	if err != nil {
		return nil, nil, err
	}
	scorer, err := a.newScorer(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	pipeline := usecase.NewPipeline(
		a.newCollector(nav),
		usecase.NewEvaluator(a.cfg.Collector, a.cfg.Scorer, scorer, a.jobs, a.runs, a.clock, a.log),
		usecase.NewApplicator(a.cfg.Applicator, a.cfg.Scorer, nav, a.jobs, a.runs, a.clock, a.log),
		a.log,
	)
	return pipeline, cleanup, nil
}
