package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
	"jobpilot/internal/repository"
	"jobpilot/internal/service"
	"jobpilot/internal/transport"
)

// Evaluator scores unscored records against the résumé and promotes the
// ones above the relevance threshold to ELIGIBLE. Scorer failures mark
// the single record FAILED and the pass moves on; such records are picked
// up again and re-scored on the next pass.
type Evaluator struct {
	scorer           service.Scorer
	jobs             *repository.JobRepository
	runs             *repository.RunRepository
	langs            *service.LanguageFilter
	filterByLanguage bool
	minScore         float64
	clock            transport.Clock
	log              *zap.SugaredLogger
}

func NewEvaluator(
	collectorCfg config.CollectorConfig,
	scorerCfg config.ScorerConfig,
	scorer service.Scorer,
	jobs *repository.JobRepository,
	runs *repository.RunRepository,
	clock transport.Clock,
	log *zap.SugaredLogger,
) *Evaluator {
	return &Evaluator{
		scorer:           scorer,
		jobs:             jobs,
		runs:             runs,
		langs:            service.NewLanguageFilter(collectorCfg.AllowedLangs, collectorCfg.KeepUnknownLang),
		filterByLanguage: collectorCfg.FilterByLanguage,
		minScore:         scorerCfg.MinScore,
		clock:            clock,
		log:              log,
	}
}

func (e *Evaluator) Run(ctx context.Context) (model.RunStats, error) {
	var stats model.RunStats
	started := e.clock.Now()

	pending, err := e.jobs.LoadByStatus(model.StatusNew, model.StatusFailed)
	if err != nil {
		return stats, fmt.Errorf("load pending records: %w", err)
	}

	for i := range pending {
		rec := &pending[i]
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if rec.Status == model.StatusFailed && rec.Scored() {
			// Apply-stage failure; the Applicator requeues it.
			continue
		}
		stats.Seen++

		if rec.Description == "" {
			// Nothing to score yet; a later collection pass may back-fill it.
			e.log.Debugw("[evaluator] no description yet", "id", rec.ID, "title", rec.Title)
			continue
		}

		if rec.Status == model.StatusNew {
			if skipped, err := e.languageGate(rec, &stats); err != nil {
				return stats, err
			} else if skipped {
				continue
			}
		}

		score, reason, err := e.scorer.Score(ctx, rec.Description)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			e.log.Errorw("[evaluator] scoring failed", "id", rec.ID, "title", rec.Title, "error", err)
			meta := repository.AttemptMeta{ReasonCode: model.ReasonScorerError, At: e.clock.Now()}
			if err := e.jobs.UpdateStatus(rec.ID, model.StatusFailed, meta); err != nil {
				return stats, err
			}
			stats.Failed++
			continue
		}

		if err := e.jobs.RecordScore(rec.ID, score, reason, model.StatusScored); err != nil {
			return stats, err
		}
		stats.Scored++

		if score >= e.minScore {
			if err := e.jobs.UpdateStatus(rec.ID, model.StatusEligible, repository.AttemptMeta{}); err != nil {
				return stats, err
			}
		}
		e.log.Infow("[evaluator] scored", "id", rec.ID, "title", rec.Title,
			"score", score, "eligible", score >= e.minScore)
	}

	run := model.RunRecord{
		RunUID:     uuid.NewString(),
		Kind:       model.RunScore,
		StartedAt:  started,
		FinishedAt: e.clock.Now(),
		RunStats:   stats,
	}
	if err := e.runs.Append(&run); err != nil {
		return stats, fmt.Errorf("append run record: %w", err)
	}
	return stats, nil
}

// languageGate filters records in disallowed languages before any scorer
// tokens are spent on them.
func (e *Evaluator) languageGate(rec *model.JobRecord, stats *model.RunStats) (bool, error) {
	if !e.filterByLanguage {
		return false, nil
	}
	lang := rec.Language
	if lang == "" {
		lang = service.DetectLanguage(rec.Description)
	}
	if e.langs.Allowed(lang) {
		return false, nil
	}
	meta := repository.AttemptMeta{ReasonCode: model.ReasonLanguageFiltered, At: e.clock.Now()}
	if err := e.jobs.UpdateStatus(rec.ID, model.StatusSkipped, meta); err != nil {
		return false, err
	}
	stats.Skipped++
	return true, nil
}
