// Define the capability every job board implements
// Share the config-driven page loop between boards

package scraper

import (
	"context"
	"errors"
	"time"

	"job-collector/internal/config"
	"job-collector/internal/extract"
	"job-collector/internal/fetch"
	"job-collector/internal/logging"
	"job-collector/internal/models"
	"job-collector/internal/pace"
)

// Scraper searches one job board.
type Scraper interface {
	Name() models.Source
	// Scrape returns the cards found for query in location over at most
	// pages result pages.
	Scrape(ctx context.Context, query, location string, pages int) ([]models.JobRecord, error)
}

// DetailFetcher loads the full description of a single job.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, url string) (extract.Result, error)
}

// ErrBlocked is returned once a board has refused us outright. The board
// is not contacted again for the rest of the run.
var ErrBlocked = errors.New("source blocked for this run")

// Board holds what differs between job boards beyond selector catalogs.
type Board interface {
	Source() models.Source
	// SearchURL builds the listing URL for a zero-based page index.
	SearchURL(cfg config.SourceConfig, query, location string, page int) string
	// CanonicalURL reduces a job link to its stable identity.
	CanonicalURL(cfg config.SourceConfig, raw string) string
}

// Deps are shared by every board of a run.
type Deps struct {
	Acquirer  *fetch.Acquirer
	PageDelay pace.Range
	Sleep     func(ctx context.Context, d time.Duration) error
	Log       *logging.Logger
}
