package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
	"jobpilot/internal/navigator"
	"jobpilot/internal/repository"
	"jobpilot/internal/transport"
)

func testRepos(t *testing.T) (*repository.JobRepository, *repository.RunRepository) {
	t.Helper()
	db, err := repository.Open(config.StoreConfig{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		BusyTimeout: time.Second,
	})
	require.NoError(t, err)
	return repository.NewJobRepository(db), repository.NewRunRepository(db)
}

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func testClient(clock transport.Clock) *transport.Client {
	policy := transport.RetryPolicy{
		MaxAttempts:   2,
		Base:          time.Millisecond,
		Cap:           time.Millisecond,
		RetryStatuses: transport.DefaultRetryStatuses,
	}
	return transport.NewClient(policy, nil, clock, testLogger(), transport.Options{})
}

// fakeClock advances only when something sleeps.
type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d > 0 {
		c.sleeps = append(c.sleeps, d)
		c.now = c.now.Add(d)
	}
	return nil
}

// fakeNav is a scripted Navigator. Behavior is keyed by the URL currently
// open; zero values mean success.
type fakeNav struct {
	openErr  map[string]error
	bodyText map[string]string
	pageHTML map[string]string
	waitErr  map[string]error
	clickErr map[string]error

	onOpen func()

	current string
	opened  []string
	clicked []string
	scrolls int
}

func newFakeNav() *fakeNav {
	return &fakeNav{
		openErr:  map[string]error{},
		bodyText: map[string]string{},
		pageHTML: map[string]string{},
		waitErr:  map[string]error{},
		clickErr: map[string]error{},
	}
}

func (f *fakeNav) Open(ctx context.Context, url string) error {
	if f.onOpen != nil {
		f.onOpen()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	f.opened = append(f.opened, url)
	f.current = url
	return f.openErr[url]
}

func (f *fakeNav) HTML(ctx context.Context, selector string) (string, error) {
	return f.pageHTML[f.current], nil
}

func (f *fakeNav) Text(ctx context.Context, selector string) (string, error) {
	return f.bodyText[f.current], nil
}

func (f *fakeNav) Click(ctx context.Context, selector string) error {
	f.clicked = append(f.clicked, f.current)
	return f.clickErr[f.current]
}

func (f *fakeNav) Fill(ctx context.Context, selector, value string) error { return nil }

func (f *fakeNav) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	return f.waitErr[f.current]
}

func (f *fakeNav) Scroll(ctx context.Context) error {
	f.scrolls++
	return nil
}

func (f *fakeNav) Close() error { return nil }

// fakeParser hands back a fixed card list regardless of page content.
type fakeParser struct {
	cards []navigator.Card
}

func (p *fakeParser) Parse(pageHTML string) ([]navigator.Card, error) {
	return p.cards, nil
}

// fakeScorer scores by job text lookup.
type fakeScorer struct {
	scores map[string]float64
	errs   map[string]error
	calls  int
}

func (s *fakeScorer) Score(ctx context.Context, jobText string) (float64, string, error) {
	s.calls++
	if err := s.errs[jobText]; err != nil {
		return 0, "", err
	}
	return s.scores[jobText], "scripted verdict", nil
}

func seedJob(t *testing.T, jobs *repository.JobRepository, url string, status model.Status, score float64) model.JobRecord {
	t.Helper()
	rec := model.NewJobRecord(url, "Go Developer", "Acme", time.Now().UTC())
	rec.Description = "desc for " + url
	_, err := jobs.Upsert(&rec)
	require.NoError(t, err)

	if status == model.StatusNew {
		return rec
	}
	require.NoError(t, jobs.RecordScore(rec.ID, score, "seeded", model.StatusScored))
	if status == model.StatusScored {
		rec.Status = model.StatusScored
		return rec
	}
	require.NoError(t, jobs.UpdateStatus(rec.ID, status, repository.AttemptMeta{}))
	rec.Status = status
	return rec
}
