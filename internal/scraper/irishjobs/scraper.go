package irishjobs

import (
	"net/url"
	"strconv"
	"strings"

	"job-collector/internal/config"
	"job-collector/internal/fetch"
	"job-collector/internal/models"
	"job-collector/internal/scraper"
)

type Board struct{}

func New(cfg config.SourceConfig, opener fetch.Opener, deps scraper.Deps) *scraper.Site {
	return scraper.NewSite(Board{}, cfg, opener, deps)
}

func (Board) Source() models.Source {
	return models.SourceIrishJobs
}

// SearchURL uses one-based page numbers.
func (Board) SearchURL(cfg config.SourceConfig, query, location string, page int) string {
	q := url.Values{}
	q.Set("Keywords", query)
	q.Set("Location", location)
	q.Set("Page", strconv.Itoa(page+1))
	return strings.TrimRight(cfg.BaseURL, "/") + "/jobs?" + q.Encode()
}

// CanonicalURL drops the fragment; the path already identifies the job.
func (Board) CanonicalURL(_ config.SourceConfig, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	return u.String()
}
