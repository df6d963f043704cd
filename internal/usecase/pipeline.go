package usecase

import (
	"context"

	"go.uber.org/zap"

	"jobpilot/internal/model"
)

// Pipeline chains collect, score and apply into one full pass. A stage
// error stops the pass; the stages already appended their own run rows.
type Pipeline struct {
	collector *Collector
	evaluator *Evaluator
	applier   *Applicator
	log       *zap.SugaredLogger
}

func NewPipeline(c *Collector, e *Evaluator, a *Applicator, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{collector: c, evaluator: e, applier: a, log: log}
}

func (p *Pipeline) Run(ctx context.Context) (model.RunStats, error) {
	collected, err := p.collector.Run(ctx)
	if err != nil {
		return collected, err
	}
	scored, err := p.evaluator.Run(ctx)
	if err != nil {
		return addStats(collected, scored), err
	}
	applied, err := p.applier.Run(ctx)
	total := addStats(addStats(collected, scored), applied)
	p.log.Infow("[pipeline] full pass done",
		"new", total.New, "duplicate", total.Duplicate, "scored", total.Scored,
		"applied", total.Applied, "would-apply", total.WouldApply,
		"skipped", total.Skipped, "failed", total.Failed, "blocked", total.Blocked)
	return total, err
}
