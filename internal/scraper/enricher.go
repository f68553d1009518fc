package scraper

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"job-collector/internal/extract"
	"job-collector/internal/models"
)

// Enricher routes detail fetches to the site that owns each job.
type Enricher struct {
	sites map[models.Source]*Site
	order []*Site
}

func NewEnricher(sites ...*Site) *Enricher {
	e := &Enricher{sites: make(map[models.Source]*Site, len(sites))}
	for _, s := range sites {
		e.sites[s.Name()] = s
		e.order = append(e.order, s)
	}
	return e
}

// SiteFor finds the site for job by its source, falling back to the URL host.
func (e *Enricher) SiteFor(job models.JobRecord) (*Site, bool) {
	if s, ok := e.sites[job.Source]; ok {
		return s, true
	}
	for _, s := range e.order {
		if s.Owns(job.URL) {
			return s, true
		}
	}
	return nil, false
}

func (e *Enricher) Enrich(ctx context.Context, job models.JobRecord) (extract.Result, error) {
	s, ok := e.SiteFor(job)
	if !ok {
		return extract.Result{
			Status: extract.StatusFailed,
			Err:    fmt.Errorf("no source handles %q", job.URL),
		}, nil
	}
	return s.FetchDetail(ctx, job.URL)
}

func sameHost(base, raw string) bool {
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	bh := strings.TrimPrefix(strings.ToLower(b.Hostname()), "www.")
	uh := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return uh == bh || strings.HasSuffix(uh, "."+bh)
}
