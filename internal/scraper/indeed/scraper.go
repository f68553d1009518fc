package indeed

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
	return models.SourceIndeed
}

// SearchURL pages with start offsets of JobsPerPage.
func (Board) SearchURL(cfg config.SourceConfig, query, location string, page int) string {
	perPage := cfg.JobsPerPage
	if perPage <= 0 {
		perPage = 10
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("l", location)
	q.Set("start", strconv.Itoa(page*perPage))
	return strings.TrimRight(cfg.BaseURL, "/") + "/jobs?" + q.Encode()
}

// CanonicalURL rewrites any link carrying a job key (jk) to the plain
// /viewjob?jk= form; click-tracking links otherwise differ on every search.
func (Board) CanonicalURL(cfg config.SourceConfig, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	jk := u.Query().Get("jk")
	if jk == "" {
		return raw
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if u.IsAbs() {
		base = u.Scheme + "://" + u.Host
	}
	return base + "/viewjob?jk=" + url.QueryEscape(jk)
}
