package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
	"jobpilot/internal/navigator"
	"jobpilot/internal/repository"
	"jobpilot/internal/transport"
)

// outcome is the classification of one apply attempt.
type outcome struct {
	status model.Status
	reason string
}

// Applicator works through the eligible records, best score first, under
// hard safety gates: at most MaxActionsPerRun attempts, a global minimum
// interval between attempts (persisted across restarts), dry-run, and an
// explicit confirmation flag for real submissions. Every attempt is
// committed to the store before the next candidate is considered.
type Applicator struct {
	cfg      config.ApplicatorConfig
	minScore float64
	nav      navigator.Navigator
	jobs     *repository.JobRepository
	runs     *repository.RunRepository
	clock    transport.Clock
	log      *zap.SugaredLogger
}

func NewApplicator(
	cfg config.ApplicatorConfig,
	scorerCfg config.ScorerConfig,
	nav navigator.Navigator,
	jobs *repository.JobRepository,
	runs *repository.RunRepository,
	clock transport.Clock,
	log *zap.SugaredLogger,
) *Applicator {
	return &Applicator{
		cfg:      cfg,
		minScore: scorerCfg.MinScore,
		nav:      nav,
		jobs:     jobs,
		runs:     runs,
		clock:    clock,
		log:      log,
	}
}

func (a *Applicator) Run(ctx context.Context) (model.RunStats, error) {
	var stats model.RunStats
	started := a.clock.Now()

	requeued, err := a.jobs.Requeue()
	if err != nil {
		return stats, fmt.Errorf("requeue failed records: %w", err)
	}
	if requeued > 0 {
		a.log.Infow("[applicator] requeued failed records", "count", requeued)
	}

	candidates, err := a.candidates()
	if err != nil {
		return stats, err
	}
	a.log.Infow("[applicator] candidates selected", "count", len(candidates),
		"min-score", a.minScore, "max-actions", a.cfg.MaxActionsPerRun)

	lastAction, err := a.jobs.LastActionAt()
	if err != nil {
		return stats, fmt.Errorf("load last action time: %w", err)
	}

	actions := 0
	confirmWarned := false
	for i := range candidates {
		rec := &candidates[i]
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		if actions >= a.cfg.MaxActionsPerRun {
			a.log.Infow("[applicator] action cap reached, remaining candidates untouched",
				"cap", a.cfg.MaxActionsPerRun, "remaining", len(candidates)-i)
			break
		}
		stats.Seen++

		if rec.Status == model.StatusScored {
			if err := a.jobs.UpdateStatus(rec.ID, model.StatusEligible, repository.AttemptMeta{}); err != nil {
				return stats, err
			}
			rec.Status = model.StatusEligible
		}

		if !a.cfg.DryRun && !a.cfg.ConfirmApply {
			// Real submissions need the confirmation flag; without it the
			// candidate stays eligible and the run only reports the no-op.
			if !confirmWarned {
				a.log.Warnw("[applicator] confirmation flag not set, no submissions will be made")
				confirmWarned = true
			}
			stats.Skipped++
			continue
		}

		if lastAction != nil {
			if wait := a.cfg.ActionInterval - a.clock.Now().Sub(*lastAction); wait > 0 {
				a.log.Infow("[applicator] pacing before next action", "wait", wait)
				if err := a.clock.Sleep(ctx, wait); err != nil {
					return stats, err
				}
			}
		}

		actions++
		at := a.clock.Now()
		lastAction = &at

		out, err := a.attempt(ctx, rec)
		if err != nil {
			// Cancelled before anything was driven on the page; nothing to commit.
			return stats, err
		}

		meta := repository.AttemptMeta{ReasonCode: out.reason, At: at, CountAttempt: true}
		if err := a.jobs.UpdateStatus(rec.ID, out.status, meta); err != nil {
			return stats, fmt.Errorf("commit attempt %s: %w", rec.ID, err)
		}
		a.count(&stats, out)
		a.log.Infow("[applicator] attempt committed", "id", rec.ID, "title", rec.Title,
			"status", out.status, "reason", out.reason)
	}

	run := model.RunRecord{
		RunUID:     uuid.NewString(),
		Kind:       model.RunApply,
		StartedAt:  started,
		FinishedAt: a.clock.Now(),
		RunStats:   stats,
	}
	if err := a.runs.Append(&run); err != nil {
		return stats, fmt.Errorf("append run record: %w", err)
	}
	return stats, nil
}

// candidates returns the scored-or-eligible records at or above the
// threshold, best score first, oldest sighting breaking ties.
func (a *Applicator) candidates() ([]model.JobRecord, error) {
	records, err := a.jobs.LoadByStatus(model.StatusScored, model.StatusEligible)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	eligible := records[:0]
	for _, rec := range records {
		if rec.Scored() && *rec.RelevanceScore >= a.minScore {
			eligible = append(eligible, rec)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		si, sj := *eligible[i].RelevanceScore, *eligible[j].RelevanceScore
		if si != sj {
			return si > sj
		}
		if !eligible[i].DiscoveredAt.Equal(eligible[j].DiscoveredAt) {
			return eligible[i].DiscoveredAt.Before(eligible[j].DiscoveredAt)
		}
		return eligible[i].ID < eligible[j].ID
	})
	return eligible, nil
}

// attempt runs one apply flow and classifies the result. It never writes
// the store; the caller commits the outcome. A non-nil error means the
// context was cancelled before the page was reached and no attempt was
// made, so there is nothing to commit.
func (a *Applicator) attempt(ctx context.Context, rec *model.JobRecord) (outcome, error) {
	if rec.ExternalURL != "" {
		return outcome{model.StatusSkipped, model.ReasonExternalRedirect}, nil
	}

	if a.cfg.DryRun {
		// Everything up to the submission runs for real on a dry run, so
		// selection and pacing behave exactly as they would live.
		a.log.Infow("[applicator] dry run, would apply", "id", rec.ID, "title", rec.Title)
		return outcome{rec.Status, model.ReasonWouldApply}, nil
	}

	if err := ctx.Err(); err != nil {
		return outcome{}, err
	}
	if err := a.nav.Open(ctx, rec.URL); err != nil {
		if ctx.Err() != nil {
			return outcome{}, ctx.Err()
		}
		if isExhausted(err) {
			return outcome{model.StatusFailed, model.ReasonTransportExhausted}, nil
		}
		return outcome{model.StatusFailed, model.ReasonPageTimeout}, nil
	}

	if text, err := a.nav.Text(ctx, "body"); err == nil && navigator.RequiresManualGate(text) {
		a.log.Warnw("[applicator] manual verification required, resolve it in a browser and rerun",
			"id", rec.ID, "url", rec.URL)
		return outcome{model.StatusFailed, model.ReasonManualVerification}, nil
	}

	if err := a.nav.WaitVisible(ctx, a.cfg.ApplySelector, a.cfg.ControlTimeout); err != nil {
		if isExhausted(err) {
			return outcome{model.StatusFailed, model.ReasonTransportExhausted}, nil
		}
		return outcome{model.StatusFailed, model.ReasonNoApplyControl}, nil
	}
	if err := a.nav.Click(ctx, a.cfg.ApplySelector); err != nil {
		return outcome{model.StatusFailed, model.ReasonApplyError}, nil
	}

	if a.cfg.SuccessSelector != "" {
		if err := a.nav.WaitVisible(ctx, a.cfg.SuccessSelector, a.cfg.ControlTimeout); err != nil {
			return outcome{model.StatusFailed, model.ReasonNoConfirmation}, nil
		}
	}
	return outcome{model.StatusApplied, ""}, nil
}

func (a *Applicator) count(stats *model.RunStats, out outcome) {
	switch {
	case out.status == model.StatusApplied:
		stats.Applied++
	case out.reason == model.ReasonWouldApply:
		stats.WouldApply++
	case out.reason == model.ReasonManualVerification:
		stats.Blocked++
	case out.status == model.StatusSkipped:
		stats.Skipped++
	default:
		stats.Failed++
	}
}

func isExhausted(err error) bool {
	var ex *transport.ExhaustedError
	return errors.As(err, &ex)
}
