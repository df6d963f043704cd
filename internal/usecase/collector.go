// Package usecase wires the pipeline stages: collect discovers postings,
// evaluate scores them, apply submits the eligible ones. Each stage is a
// single Run method that reads policy from config, drives the shared
// infrastructure and appends one run log row per unit of work.
package usecase

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jobpilot/internal/config"
	"jobpilot/internal/model"
	"jobpilot/internal/navigator"
	"jobpilot/internal/repository"
	"jobpilot/internal/service"
	"jobpilot/internal/transport"
)

// Collector walks the configured listing pages, extracts job cards and
// merges them into the store. Per-item and per-source failures are
// isolated; only a store write failure aborts the run.
type Collector struct {
	cfg    config.CollectorConfig
	nav    navigator.Navigator
	parser navigator.CardParser
	jobs   *repository.JobRepository
	runs   *repository.RunRepository
	tc     *transport.Client
	langs  *service.LanguageFilter
	clock  transport.Clock
	log    *zap.SugaredLogger
}

func NewCollector(
	cfg config.CollectorConfig,
	nav navigator.Navigator,
	parser navigator.CardParser,
	jobs *repository.JobRepository,
	runs *repository.RunRepository,
	tc *transport.Client,
	clock transport.Clock,
	log *zap.SugaredLogger,
) *Collector {
	return &Collector{
		cfg:    cfg,
		nav:    nav,
		parser: parser,
		jobs:   jobs,
		runs:   runs,
		tc:     tc,
		langs:  service.NewLanguageFilter(cfg.AllowedLangs, cfg.KeepUnknownLang),
		clock:  clock,
		log:    log,
	}
}

// Run collects from every configured source and returns the aggregated
// counters. One run log row is appended per source.
func (c *Collector) Run(ctx context.Context) (model.RunStats, error) {
	var total model.RunStats
	runUID := uuid.NewString()
	collected := 0

	for _, src := range c.cfg.SourceURLs {
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
		if collected >= c.cfg.MaxJobsCollected {
			c.log.Infow("[collector] collection cap reached", "cap", c.cfg.MaxJobsCollected)
			break
		}

		started := c.clock.Now()
		stats, n, err := c.collectSource(ctx, src, c.cfg.MaxJobsCollected-collected)
		collected += n
		if err != nil {
			if ctx.Err() != nil {
				return total, err
			}
			// Source-level failure: log and move on to the next source.
			c.log.Errorw("[collector] source failed", "source", src, "error", err)
		}

		total = addStats(total, stats)
		run := model.RunRecord{
			RunUID:     runUID,
			Kind:       model.RunCollect,
			Source:     src,
			StartedAt:  started,
			FinishedAt: c.clock.Now(),
			RunStats:   stats,
		}
		if err := c.runs.Append(&run); err != nil {
			return total, fmt.Errorf("append run record: %w", err)
		}
		c.log.Infow("[collector] source done",
			"source", src, "seen", stats.Seen, "new", stats.New,
			"duplicate", stats.Duplicate, "skipped", stats.Skipped)
	}
	return total, nil
}

// collectSource renders one listing, scrolls it out and upserts every
// card. It returns the source counters and how many records it touched
// toward the global collection cap.
func (c *Collector) collectSource(ctx context.Context, src string, budget int) (model.RunStats, int, error) {
	var stats model.RunStats

	if err := c.nav.Open(ctx, src); err != nil {
		return stats, 0, fmt.Errorf("open %s: %w", src, err)
	}
	if text, err := c.nav.Text(ctx, "body"); err == nil && navigator.RequiresManualGate(text) {
		c.log.Warnw("[collector] manual verification required, resolve it in a browser and rerun",
			"source", src)
		stats.Blocked++
		return stats, 0, nil
	}

	for i := 0; i < c.cfg.MaxScrolls; i++ {
		if ctx.Err() != nil {
			return stats, 0, ctx.Err()
		}
		if err := c.nav.Scroll(ctx); err != nil {
			c.log.Debugw("[collector] scroll stopped", "step", i, "error", err)
			break
		}
	}

	pageHTML, err := c.nav.HTML(ctx, "html")
	if err != nil {
		return stats, 0, fmt.Errorf("read listing %s: %w", src, err)
	}
	cards, err := c.parser.Parse(pageHTML)
	if err != nil {
		return stats, 0, err
	}

	touched := 0
	for _, card := range cards {
		if ctx.Err() != nil {
			return stats, touched, ctx.Err()
		}
		if touched >= budget {
			break
		}
		created, err := c.ingest(ctx, card, &stats)
		if err != nil {
			return stats, touched, err
		}
		touched++
		if created {
			stats.New++
		} else {
			stats.Duplicate++
		}
	}
	return stats, touched, nil
}

// ingest turns one card into a store row. Enrichment failures degrade to
// a bare record; only the store write error propagates.
func (c *Collector) ingest(ctx context.Context, card navigator.Card, stats *model.RunStats) (bool, error) {
	stats.Seen++
	rec := model.NewJobRecord(card.URL, card.Title, card.Company, c.clock.Now())

	switch {
	case card.External:
		// The apply flow lives on another host; nothing to automate.
		rec.ExternalURL = card.URL
		rec.Status = model.StatusSkipped
		rec.ReasonCode = model.ReasonExternalRedirect
		stats.Skipped++
	default:
		if c.cfg.FetchDescriptions && c.needsDescription(rec.ID) {
			if desc, err := c.fetchDescription(ctx, card.URL); err != nil {
				c.log.Debugw("[collector] description fetch failed", "url", card.URL, "error", err)
			} else {
				rec.Description = desc
			}
		}
		if rec.Description != "" {
			rec.Language = service.DetectLanguage(rec.Description)
			if c.cfg.FilterByLanguage && !c.langs.Allowed(rec.Language) {
				rec.Status = model.StatusSkipped
				rec.ReasonCode = model.ReasonLanguageFiltered
				stats.Skipped++
			}
		}
	}

	created, err := c.jobs.Upsert(&rec)
	if err != nil {
		return false, fmt.Errorf("upsert %s: %w", rec.ID, err)
	}
	return created, nil
}

// needsDescription reports whether the record has no stored description
// yet. Duplicates seen on an earlier pass already carry one and must not
// trigger another detail-page fetch.
func (c *Collector) needsDescription(id string) bool {
	stored, err := c.jobs.Find(id)
	if err != nil {
		return true
	}
	return stored.Description == ""
}

func (c *Collector) fetchDescription(ctx context.Context, url string) (string, error) {
	resp, err := c.tc.Execute(ctx, transport.Request{Method: http.MethodGet, URL: url})
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("detail page %s: status %d", url, resp.StatusCode)
	}
	return navigator.ExtractDescription(string(resp.Body))
}

func addStats(a, b model.RunStats) model.RunStats {
	a.Seen += b.Seen
	a.New += b.New
	a.Duplicate += b.Duplicate
	a.Scored += b.Scored
	a.Applied += b.Applied
	a.WouldApply += b.WouldApply
	a.Skipped += b.Skipped
	a.Failed += b.Failed
	a.Blocked += b.Blocked
	return a
}
