package linkedin

import (
	"net/url"
	"strconv"
	"strings"

	"job-collector/internal/config"
	"job-collector/internal/fetch"
	"job-collector/internal/models"
	"job-collector/internal/scraper"
)

// Board searches the public (guest) job listings. Redirects to the login or
// auth wall are hard blocks, configured as auth-wall markers.
type Board struct{}

func New(cfg config.SourceConfig, opener fetch.Opener, deps scraper.Deps) *scraper.Site {
	return scraper.NewSite(Board{}, cfg, opener, deps)
}

func (Board) Source() models.Source {
	return models.SourceLinkedIn
}

func (Board) SearchURL(cfg config.SourceConfig, query, location string, page int) string {
	perPage := cfg.JobsPerPage
	if perPage <= 0 {
		perPage = 25
	}
	q := url.Values{}
	q.Set("keywords", query)
	q.Set("location", location)
	q.Set("start", strconv.Itoa(page*perPage))
	return strings.TrimRight(cfg.BaseURL, "/") + "/jobs/search/?" + q.Encode()
}

// CanonicalURL removes query parameters. LinkedIn links carry tracking
// params (refId, trackingId) that make one job look like many.
func (Board) CanonicalURL(_ config.SourceConfig, raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
