package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"job-collector/internal/browser"
	"job-collector/internal/collector"
	"job-collector/internal/config"
	"job-collector/internal/dedup"
	"job-collector/internal/fetch"
	"job-collector/internal/logging"
	"job-collector/internal/models"
	"job-collector/internal/notify"
	"job-collector/internal/profile"
	"job-collector/internal/report"
	"job-collector/internal/scraper"
	"job-collector/internal/scraper/indeed"
	"job-collector/internal/scraper/irishjobs"
	"job-collector/internal/scraper/linkedin"
)

const (
	modeCollect = "collect"
	modeEnrich  = "enrich"
	modeFull    = "full"
)

// app runs one pass of the selected mode. Every pass gets its own browser,
// store and notifier so a scheduled process never carries state between runs.
type app struct {
	cfg  *config.Config
	opts options
	log  *logging.Logger
}

func (a *app) run(ctx context.Context) error {
	notifier := a.notifier()
	err := a.pass(ctx, notifier)
	a.reportFailure(ctx, notifier, err)
	return err
}

// reportFailure forwards err to the notifier unless the run was interrupted.
func (a *app) reportFailure(ctx context.Context, notifier notify.Notifier, err error) {
	if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return
	}
	if serr := notifier.SendError(ctx, err); serr != nil {
		a.log.Warn("⚠️ failed to send error notification", "err", serr)
	}
}

func (a *app) pass(ctx context.Context, notifier notify.Notifier) error {
	launcher, err := browser.Launch(a.cfg.Browser, a.log)
	if err != nil {
		return err
	}
	defer func() {
		if err := launcher.Close(); err != nil {
			a.log.Warn("⚠️ browser did not close cleanly", "err", err)
		}
	}()

	sites := a.sites(launcher)

	switch a.opts.mode {
	case modeEnrich:
		return a.enrich(ctx, sites)
	case modeFull:
		jobs, plan, err := a.collect(ctx, sites, notifier)
		if err != nil {
			return err
		}
		enriched, err := a.enrichJobs(ctx, sites, jobs)
		if err != nil {
			return err
		}
		return a.writeReports(enriched, plan, launcher)
	default:
		jobs, plan, err := a.collect(ctx, sites, notifier)
		if err != nil {
			return err
		}
		return a.writeReports(jobs, plan, launcher)
	}
}

func (a *app) sites(launcher *browser.Launcher) []*scraper.Site {
	acq := fetch.NewAcquirer(fetch.Options{
		Retry:        a.cfg.Retry.Policy(),
		HumanPause:   a.cfg.Pacing.HumanPause,
		ScrollPause:  a.cfg.Pacing.ScrollPause,
		Scrolls:      a.cfg.Pacing.Scrolls,
		ScrollStep:   a.cfg.Pacing.ScrollStep,
		PollInterval: a.cfg.Challenge.PollInterval,
		MaxWait:      a.cfg.Challenge.MaxWait,
	}, a.log)
	deps := scraper.Deps{Acquirer: acq, PageDelay: a.cfg.Pacing.Page, Log: a.log}

	builders := map[models.Source]func(config.SourceConfig, fetch.Opener, scraper.Deps) *scraper.Site{
		models.SourceIndeed:    indeed.New,
		models.SourceIrishJobs: irishjobs.New,
		models.SourceLinkedIn:  linkedin.New,
	}

	var sites []*scraper.Site
	for _, src := range models.Sources {
		sc, ok := a.cfg.Source(src)
		if !ok {
			a.log.Info("source not configured, skipping", "source", src)
			continue
		}
		sites = append(sites, builders[src](sc, launcher.Opener(src), deps))
	}
	return sites
}

func (a *app) notifier() notify.Notifier {
	if !a.cfg.Telegram.Enabled() {
		return notify.Nop{}
	}
	tg, err := notify.NewTelegram(a.cfg.Telegram, a.log)
	if err != nil {
		a.log.Warn("⚠️ telegram disabled", "err", err)
		return notify.Nop{}
	}
	return tg
}

func (a *app) store(ctx context.Context) dedup.Store {
	store, err := dedup.Open(ctx, dedup.Options{
		DatabaseURL: a.cfg.Storage.DatabaseURL,
		RedisURL:    a.cfg.Storage.RedisURL,
		SeenPath:    a.cfg.SeenPath(),
	}, a.log)
	if err != nil && (a.cfg.Storage.DatabaseURL != "" || a.cfg.Storage.RedisURL != "") {
		a.log.Warn("⚠️ seen store unavailable, falling back to sqlite", "err", err, "path", a.cfg.SeenPath())
		store, err = dedup.NewSQLiteStore(ctx, a.cfg.SeenPath(), a.log)
	}
	if err != nil {
		a.log.Error("❌ no persistent seen store, history is kept for this run only", "err", err)
		return dedup.NewMemoryStore()
	}
	a.log.Info("🗄️ seen store ready", "backend", store.Name())
	return store
}

type search struct {
	queries  []string
	location string
}

func (a *app) plan() (search, error) {
	s := search{location: a.opts.location}
	if a.opts.query != "" {
		s.queries = []string{a.opts.query}
		if s.location == "" {
			s.location = "Dublin"
		}
		return s, nil
	}

	path := a.opts.cv
	if path == "" {
		found, err := profile.FindCV(".")
		if err != nil {
			return s, err
		}
		path = found
	}
	a.log.Info("📄 using CV", "path", path)

	p, err := profile.Load(path)
	if err != nil {
		return s, fmt.Errorf("parse cv: %w", err)
	}
	a.log.Info("👤 profile parsed", "name", p.Name, "title", p.Title, "location", p.Location,
		"experience_years", p.ExperienceYears, "skills", len(p.Skills), "queries", p.Queries)

	s.queries = p.Queries
	if len(s.queries) > a.opts.queriesLimit {
		s.queries = s.queries[:a.opts.queriesLimit]
	}
	if len(s.queries) == 0 {
		return s, errors.New("no job search queries could be derived from the CV")
	}
	if s.location == "" {
		s.location = p.SearchLocation()
	}
	return s, nil
}

func (a *app) collect(ctx context.Context, sites []*scraper.Site, notifier notify.Notifier) ([]models.JobRecord, search, error) {
	s, err := a.plan()
	if err != nil {
		return nil, s, err
	}

	scrapers := make([]scraper.Scraper, len(sites))
	for i, site := range sites {
		scrapers[i] = site
	}

	c := collector.New(scrapers, a.store(ctx), a.log)
	sum, jobs, err := c.Run(ctx, collector.Plan{
		Queries:       s.queries,
		Location:      s.location,
		Pages:         a.opts.pages,
		Limit:         a.opts.limit,
		IgnoreHistory: a.opts.ignoreHistory,
	})
	if err != nil {
		// keep what was found before the interrupt
		if len(jobs) > 0 {
			if werr := a.writeReports(jobs, s, nil); werr != nil {
				a.log.Error("💾 could not save partial results", "err", werr)
			}
		}
		return jobs, s, err
	}

	for src, st := range sum.Sources {
		a.log.Info("📊 source summary", "source", src, "found", st.Found, "new", st.New, "blocked", st.Blocked, "errors", st.Errors)
	}
	if len(jobs) == 0 {
		a.log.Warn("no new jobs matched the profile")
	}

	sent, err := notifier.SendJobs(ctx, jobs)
	if err != nil {
		return jobs, s, err
	}
	status := fmt.Sprintf("✅ Run %s: %d queries, %d jobs found, %d new, %d sent.", sum.RunID, sum.Queries, sum.Found, sum.New, sent)
	if err := notifier.SendStatus(ctx, status); err != nil {
		a.log.Warn("⚠️ failed to send status", "err", err)
	}
	return jobs, s, nil
}

// enrich fetches descriptions for the jobs in -input.
func (a *app) enrich(ctx context.Context, sites []*scraper.Site) error {
	data, err := os.ReadFile(a.opts.input)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	var jobs []models.JobRecord
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("parse %s: %w", a.opts.input, err)
	}
	a.log.Info("📥 jobs loaded", "path", a.opts.input, "jobs", len(jobs))

	_, err = a.enrichJobs(ctx, sites, jobs)
	return err
}

// enrichJobs runs the enrichment pass over jobs and returns them as they
// now stand in the ledger.
func (a *app) enrichJobs(ctx context.Context, sites []*scraper.Site, jobs []models.JobRecord) ([]models.JobRecord, error) {
	if a.opts.mode == modeEnrich && a.opts.limit > 0 && len(jobs) > a.opts.limit {
		jobs = jobs[:a.opts.limit]
		a.log.Info("processing a subset", "limit", a.opts.limit)
	}

	path := a.opts.output
	if path == "" || a.opts.mode == modeFull && filepath.Ext(path) != ".json" {
		path = filepath.Join(a.cfg.DataDir, "jobs_with_descriptions.json")
	}
	ledger, err := dedup.LoadLedger(path)
	if err != nil {
		return nil, err
	}

	c := collector.New(nil, nil, a.log, collector.WithEnricher(scraper.NewEnricher(sites...), a.cfg.Pacing.Enrich))
	sum, err := c.Enrich(ctx, jobs, ledger)
	a.log.Info("📊 enrichment summary", "success", sum.Success, "failed", sum.Failed, "skipped", sum.Skipped,
		"updated", sum.Updated, "new", sum.New, "path", ledger.Path())
	if err != nil {
		return nil, err
	}

	out := make([]models.JobRecord, len(jobs))
	for i, j := range jobs {
		out[i] = j
		if current, ok := ledger.Find(j.URL); ok {
			out[i] = current
		}
	}
	return out, nil
}

// writeReports saves per-source and merged CSVs, the JSON array and the HTML
// report. The PDF needs the browser and is skipped when pdf is nil.
func (a *app) writeReports(jobs []models.JobRecord, s search, pdf report.PDFRenderer) error {
	if len(jobs) == 0 {
		a.log.Info("ℹ️ no jobs to save")
		return nil
	}

	w := report.NewWriter(a.cfg.DataDir, a.log)
	var errs []error

	if _, err := w.SourceCSVs(jobs); err != nil {
		errs = append(errs, err)
	}
	mergedPath := ""
	if a.opts.mode == modeCollect {
		mergedPath = a.opts.output
	}
	merged, err := w.MergedCSV(jobs, mergedPath)
	if err != nil {
		errs = append(errs, err)
	}
	if _, err := w.JSON(jobs); err != nil {
		errs = append(errs, err)
	}

	htmlPath, content, err := w.HTML(jobs, s.queries, s.location)
	if err != nil {
		errs = append(errs, err)
	} else if a.opts.reportPDF && pdf != nil {
		if _, err := w.PDF(pdf, htmlPath, content); err != nil {
			a.log.Warn("⚠️ pdf report failed", "err", err)
		}
	}

	a.log.Info("🏁 job collection completed",
		"queries", len(s.queries), "jobs", len(jobs), "csv", merged, "report", htmlPath)
	return errors.Join(errs...)
}
