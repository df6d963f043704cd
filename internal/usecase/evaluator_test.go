package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
)

func newEvaluator(t *testing.T, scorer *fakeScorer, filterLangs bool) *Evaluator {
	t.Helper()
	jobs, runs := testRepos(t)
	collectorCfg := config.CollectorConfig{
		FilterByLanguage: filterLangs,
		AllowedLangs:     []string{"en"},
		KeepUnknownLang:  true,
	}
	scorerCfg := config.ScorerConfig{MinScore: 8.0}
	return NewEvaluator(collectorCfg, scorerCfg, scorer, jobs, runs, newFakeClock(), testLogger())
}

func TestEvaluator_PromotesAboveThreshold(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]float64{
		"desc for https://example.com/jobs/1": 9.2,
		"desc for https://example.com/jobs/2": 6.5,
	}}
	ev := newEvaluator(t, scorer, false)

	strong := seedJob(t, ev.jobs, "https://example.com/jobs/1", model.StatusNew, 0)
	weak := seedJob(t, ev.jobs, "https://example.com/jobs/2", model.StatusNew, 0)

	stats, err := ev.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Scored)
	assert.Equal(t, 2, scorer.calls)

	got, err := ev.jobs.Find(strong.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEligible, got.Status)
	require.True(t, got.Scored())
	assert.Equal(t, 9.2, *got.RelevanceScore)
	assert.Equal(t, "scripted verdict", got.ScoreReason)

	got, err = ev.jobs.Find(weak.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusScored, got.Status, "below threshold stays SCORED")
}

func TestEvaluator_ThresholdIsInclusive(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]float64{
		"desc for https://example.com/jobs/1": 8.0,
	}}
	ev := newEvaluator(t, scorer, false)
	rec := seedJob(t, ev.jobs, "https://example.com/jobs/1", model.StatusNew, 0)

	_, err := ev.Run(context.Background())
	require.NoError(t, err)

	got, err := ev.jobs.Find(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEligible, got.Status)
}

func TestEvaluator_ScorerFailureIsIsolated(t *testing.T) {
	scorer := &fakeScorer{
		scores: map[string]float64{"desc for https://example.com/jobs/2": 9.0},
		errs:   map[string]error{"desc for https://example.com/jobs/1": assert.AnError},
	}
	ev := newEvaluator(t, scorer, false)
	broken := seedJob(t, ev.jobs, "https://example.com/jobs/1", model.StatusNew, 0)
	fine := seedJob(t, ev.jobs, "https://example.com/jobs/2", model.StatusNew, 0)

	stats, err := ev.Run(context.Background())
	require.NoError(t, err, "one scorer failure must not abort the pass")
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Scored)

	got, err := ev.jobs.Find(broken.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
	assert.Equal(t, model.ReasonScorerError, got.ReasonCode)

	got, err = ev.jobs.Find(fine.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEligible, got.Status)
}

func TestEvaluator_RescoresFailedScorerRecords(t *testing.T) {
	scorer := &fakeScorer{
		errs: map[string]error{"desc for https://example.com/jobs/1": assert.AnError},
	}
	ev := newEvaluator(t, scorer, false)
	rec := seedJob(t, ev.jobs, "https://example.com/jobs/1", model.StatusNew, 0)

	_, err := ev.Run(context.Background())
	require.NoError(t, err)

	got, err := ev.jobs.Find(rec.ID)
	require.NoError(t, err)
	require.Equal(t, model.StatusFailed, got.Status)
	require.Nil(t, got.RelevanceScore)

	// The scorer recovers; the next pass picks the failed record up again.
	delete(scorer.errs, "desc for https://example.com/jobs/1")
	scorer.scores = map[string]float64{"desc for https://example.com/jobs/1": 9.0}

	stats, err := ev.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Scored)
	assert.Equal(t, 2, scorer.calls)

	got, err = ev.jobs.Find(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusEligible, got.Status)
	require.True(t, got.Scored())
	assert.Equal(t, 9.0, *got.RelevanceScore)
}

func TestEvaluator_LeavesApplyFailuresToTheApplicator(t *testing.T) {
	scorer := &fakeScorer{}
	ev := newEvaluator(t, scorer, false)
	rec := seedJob(t, ev.jobs, "https://example.com/jobs/1", model.StatusFailed, 9.0)

	stats, err := ev.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Seen)
	assert.Equal(t, 0, scorer.calls, "scored failures are requeued, not re-scored")

	got, err := ev.jobs.Find(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFailed, got.Status)
}

func TestEvaluator_LanguageGateBeforeScoring(t *testing.T) {
	scorer := &fakeScorer{scores: map[string]float64{}}
	ev := newEvaluator(t, scorer, true)

	german := model.NewJobRecord("https://example.com/jobs/1", "Entwickler", "Acme", newFakeClock().Now())
	german.Description = strings.Repeat(
		"Wir suchen eine erfahrene Softwareentwicklerin oder einen erfahrenen Softwareentwickler "+
			"für unser Team in Berlin. Sie entwickeln und betreiben Backend-Dienste. ", 4)
	_, err := ev.jobs.Upsert(&german)
	require.NoError(t, err)

	stats, err := ev.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 0, scorer.calls, "filtered postings never reach the scorer")

	got, err := ev.jobs.Find(german.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusSkipped, got.Status)
	assert.Equal(t, model.ReasonLanguageFiltered, got.ReasonCode)
}

func TestEvaluator_RecordsWithoutDescriptionStayNew(t *testing.T) {
	scorer := &fakeScorer{}
	ev := newEvaluator(t, scorer, false)

	bare := model.NewJobRecord("https://example.com/jobs/1", "Go Developer", "Acme", newFakeClock().Now())
	_, err := ev.jobs.Upsert(&bare)
	require.NoError(t, err)

	stats, err := ev.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Scored)
	assert.Equal(t, 0, scorer.calls)

	got, err := ev.jobs.Find(bare.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusNew, got.Status)
}
