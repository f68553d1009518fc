// Package collector drives a run: every query against every source, one at
// a time, filtering what was already seen in earlier runs.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"job-collector/internal/dedup"
	"job-collector/internal/extract"
	"job-collector/internal/logging"
	"job-collector/internal/models"
	"job-collector/internal/pace"
	"job-collector/internal/scraper"
)

// Enricher fetches the detail page of a single job.
type Enricher interface {
	Enrich(ctx context.Context, job models.JobRecord) (extract.Result, error)
}

type Collector struct {
	scrapers    []scraper.Scraper
	store       dedup.Store
	enricher    Enricher
	enrichDelay pace.Range
	sleep       func(ctx context.Context, d time.Duration) error
	log         *logging.Logger
}

type Option func(*Collector)

// WithEnricher enables Enrich.
func WithEnricher(e Enricher, delay pace.Range) Option {
	return func(c *Collector) {
		c.enricher = e
		c.enrichDelay = delay
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Collector) {
		c.sleep = sleep
	}
}

func New(scrapers []scraper.Scraper, store dedup.Store, log *logging.Logger, opts ...Option) *Collector {
	if log == nil {
		log = logging.Nop()
	}
	c := &Collector{
		scrapers: scrapers,
		store:    store,
		sleep:    pace.Sleep,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Plan describes one collection run.
type Plan struct {
	Queries  []string
	Location string
	Pages    int
	// Limit caps the number of new records; zero means no cap.
	Limit int
	// IgnoreHistory dedups within this run only, leaving the store untouched.
	IgnoreHistory bool
}

// SourceStats is what one source contributed over all queries.
type SourceStats struct {
	Found   int
	New     int
	Blocked bool
	Errors  int
}

type Summary struct {
	RunID    string
	Started  time.Time
	Duration time.Duration
	Queries  int
	Found    int
	New      int
	Sources  map[models.Source]*SourceStats
}

func (s Summary) stats(src models.Source) *SourceStats {
	st, ok := s.Sources[src]
	if !ok {
		st = &SourceStats{}
		s.Sources[src] = st
	}
	return st
}

var errLimitReached = errors.New("record limit reached")

// Run scrapes every query against every source and returns the records that
// were not seen before. A failing source counts as zero jobs and never stops
// the others. On cancellation the records gathered so far are returned
// together with the context error.
func (c *Collector) Run(ctx context.Context, plan Plan) (Summary, []models.JobRecord, error) {
	sum := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Queries: len(plan.Queries),
		Sources: make(map[models.Source]*SourceStats),
	}
	log := c.log.With("run_id", sum.RunID)

	store := c.store
	if plan.IgnoreHistory || store == nil {
		store = dedup.NewMemoryStore()
		log.Info("📝 history ignored, deduplicating within this run only")
	}

	log.Info("🚀 collection started", "queries", len(plan.Queries), "sources", len(c.scrapers), "location", plan.Location, "pages", plan.Pages)

	var fresh []models.JobRecord
	var runErr error

loop:
	for i, query := range plan.Queries {
		log.Info("🔎 query", "n", i+1, "of", len(plan.Queries), "query", query)

		for _, s := range c.scrapers {
			if err := ctx.Err(); err != nil {
				runErr = err
				break loop
			}

			st := sum.stats(s.Name())
			jobs, err := c.scrapeSource(ctx, s, query, plan)
			switch {
			case err == nil:
			case ctx.Err() != nil:
				runErr = ctx.Err()
			case errors.Is(err, scraper.ErrBlocked):
				st.Blocked = true
				log.Warn("⛔ source blocked", "source", s.Name(), "err", err)
			default:
				st.Errors++
				jobs = nil
				log.Error("❌ source failed", "source", s.Name(), "query", query, "err", err)
			}

			accepted, err := c.accept(ctx, store, jobs, query, plan.Limit-len(fresh), plan.Limit > 0)
			st.Found += len(jobs)
			st.New += len(accepted)
			sum.Found += len(jobs)
			fresh = append(fresh, accepted...)

			log.Info("📊 source done", "source", s.Name(), "query", query, "found", len(jobs), "new", len(accepted), "total", len(fresh))

			if runErr != nil {
				break loop
			}
			if errors.Is(err, errLimitReached) {
				log.Info("🛑 record limit reached", "limit", plan.Limit)
				break loop
			}
		}
	}

	sum.New = len(fresh)
	sum.Duration = time.Since(sum.Started)
	log.Info("🏁 collection finished", "found", sum.Found, "new", sum.New, "took", sum.Duration.Round(time.Second))
	return sum, fresh, runErr
}

func (c *Collector) scrapeSource(ctx context.Context, s scraper.Scraper, query string, plan Plan) (jobs []models.JobRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			jobs, err = nil, fmt.Errorf("panic in %s scraper: %v", s.Name(), r)
		}
	}()
	return s.Scrape(ctx, query, plan.Location, plan.Pages)
}

// accept filters jobs through the store and records the new ones. With
// capped set, at most room records are accepted and errLimitReached is
// returned once the cap is hit.
func (c *Collector) accept(ctx context.Context, store dedup.Store, jobs []models.JobRecord, query string, room int, capped bool) ([]models.JobRecord, error) {
	if capped && room <= 0 {
		return nil, errLimitReached
	}

	var out []models.JobRecord
	for _, job := range jobs {
		if !store.IsNew(ctx, job.URL) {
			c.log.Debug("skipping duplicate", "title", job.Title, "company", job.Company)
			continue
		}
		job.SearchQuery = query
		if err := store.Record(ctx, job); err != nil {
			c.log.Warn("⚠️ could not record job", "url", job.URL, "err", err)
		}
		out = append(out, job)

		if capped && len(out) >= room {
			return out, errLimitReached
		}
	}
	return out, nil
}
