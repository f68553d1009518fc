package scraper

import (
	"context"
	"fmt"
	"time"

	"job-collector/internal/config"
	"job-collector/internal/extract"
	"job-collector/internal/fetch"
	"job-collector/internal/logging"
	"job-collector/internal/models"
	"job-collector/internal/pace"
)

// Site scrapes one board using its selector catalog. One browser session
// serves a whole Scrape call; every detail fetch gets its own.
type Site struct {
	board  Board
	cfg    config.SourceConfig
	opener fetch.Opener
	deps   Deps
	log    *logging.Logger

	blocked bool
}

func NewSite(board Board, cfg config.SourceConfig, opener fetch.Opener, deps Deps) *Site {
	if deps.Sleep == nil {
		deps.Sleep = pace.Sleep
	}
	if deps.Log == nil {
		deps.Log = logging.Nop()
	}
	return &Site{
		board:  board,
		cfg:    cfg,
		opener: opener,
		deps:   deps,
		log:    deps.Log.With("source", board.Source()),
	}
}

func (s *Site) Name() models.Source {
	return s.board.Source()
}

// Blocked reports whether the board has hard-blocked us during this run.
func (s *Site) Blocked() bool {
	return s.blocked
}

func (s *Site) Scrape(ctx context.Context, query, location string, pages int) ([]models.JobRecord, error) {
	if s.blocked {
		return nil, ErrBlocked
	}
	if pages < 1 {
		pages = 1
	}

	log := s.log.With("query", query)
	log.Info("🔍 searching", "location", location, "pages", pages)

	page, err := s.opener.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("close session", "err", err)
		}
	}()

	var jobs []models.JobRecord
	for p := 0; p < pages; p++ {
		if p > 0 {
			wait := s.deps.PageDelay.Pick()
			log.Debug("⏳ pacing", "wait", wait)
			if err := s.deps.Sleep(ctx, wait); err != nil {
				return jobs, err
			}
		}

		target := s.target(s.board.SearchURL(s.cfg, query, location, p), s.cfg.NavTimeout, s.cfg.ListingMarkers)
		res := s.deps.Acquirer.Acquire(ctx, page, target)
		if err := ctx.Err(); err != nil {
			return jobs, err
		}

		if !res.Usable() {
			if fetch.IsHardBlock(res.Err) {
				s.blocked = true
				log.Error("⛔ blocked, skipping source for the rest of the run", "page", p+1, "err", res.Err)
				return jobs, fmt.Errorf("%w: %v", ErrBlocked, res.Err)
			}
			log.Warn("⚠️ page skipped", "page", p+1, "err", res.Err)
			continue
		}

		found, stats, err := extract.ParseCards(res.HTML, s.cfg.Listing, s.cfg.BaseURL, s.board.Source())
		if err != nil {
			log.Warn("⚠️ could not parse page", "page", p+1, "err", err)
			continue
		}
		if stats.Cards == 0 {
			log.Info("🏁 no cards found, stopping pagination", "page", p+1)
			break
		}

		for i := range found {
			found[i].URL = s.board.CanonicalURL(s.cfg, found[i].URL)
		}
		log.Info("📦 found cards", "page", p+1, "selector", stats.Selector, "cards", stats.Cards, "jobs", len(found), "skipped", stats.Skipped)
		jobs = append(jobs, found...)
	}

	log.Info("✅ search finished", "jobs", len(jobs))
	return jobs, nil
}

// FetchDetail loads a job's detail page in its own session and extracts
// the full description and posting date. The error is non-nil only when no
// session could be opened at all.
func (s *Site) FetchDetail(ctx context.Context, url string) (extract.Result, error) {
	if s.blocked {
		return extract.Result{Status: extract.StatusFailed, Err: ErrBlocked}, nil
	}

	url = s.board.CanonicalURL(s.cfg, url)
	timeout := s.cfg.DetailNavTimeout
	if timeout <= 0 {
		timeout = s.cfg.NavTimeout
	}

	var out extract.Result
	_, err := s.deps.Acquirer.Visit(ctx, s.opener, s.target(url, timeout, s.cfg.DetailMarkers), func(res fetch.Result) error {
		if !res.Usable() {
			if fetch.IsHardBlock(res.Err) {
				s.blocked = true
				s.log.Error("⛔ blocked on detail page", "url", url, "err", res.Err)
			}
			out = extract.Result{Status: extract.StatusFailed, Err: res.Err}
			return nil
		}
		out = extract.ParseDetail(res.HTML, s.cfg.Detail)
		return nil
	})
	if err != nil {
		return extract.Result{Status: extract.StatusFailed, Err: err}, err
	}
	return out, nil
}

// Owns reports whether url points at this board.
func (s *Site) Owns(url string) bool {
	return sameHost(s.cfg.BaseURL, url)
}

func (s *Site) target(url string, timeout time.Duration, markers []string) fetch.Target {
	return fetch.Target{
		URL:              url,
		Label:            string(s.board.Source()),
		Timeout:          timeout,
		Settle:           s.cfg.Settle,
		ChallengeMarkers: s.cfg.ChallengeMarkers,
		SuccessMarkers:   markers,
		AuthWallMarkers:  s.cfg.AuthWallMarkers,
	}
}
