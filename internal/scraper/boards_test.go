package scraper_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"job-collector/internal/config"
	"job-collector/internal/models"
	"job-collector/internal/scraper"
	"job-collector/internal/scraper/indeed"
	"job-collector/internal/scraper/irishjobs"
	"job-collector/internal/scraper/linkedin"
)

func TestBoards_SearchURL(t *testing.T) {
	cfg := config.Default()

	tests := []struct {
		board scraper.Board
		page  int
		want  string
	}{
		{indeed.Board{}, 0, "https://ie.indeed.com/jobs?l=Dublin&q=go+developer&start=0"},
		{indeed.Board{}, 2, "https://ie.indeed.com/jobs?l=Dublin&q=go+developer&start=20"},
		{irishjobs.Board{}, 0, "https://www.irishjobs.ie/jobs?Keywords=go+developer&Location=Dublin&Page=1"},
		{linkedin.Board{}, 1, "https://www.linkedin.com/jobs/search/?keywords=go+developer&location=Dublin&start=25"},
	}

	for _, tt := range tests {
		t.Run(string(tt.board.Source()), func(t *testing.T) {
			sc, _ := cfg.Source(tt.board.Source())
			assert.Equal(t, tt.want, tt.board.SearchURL(sc, "go developer", "Dublin", tt.page))
		})
	}
}

func TestBoards_CanonicalURL(t *testing.T) {
	cfg := config.Default()
	indeedCfg, _ := cfg.Source(models.SourceIndeed)

	tests := []struct {
		name  string
		board scraper.Board
		cfg   config.SourceConfig
		raw   string
		want  string
	}{
		{
			name:  "indeed click link",
			board: indeed.Board{},
			cfg:   indeedCfg,
			raw:   "https://ie.indeed.com/rc/clk?jk=abc123&from=serp&vjs=3",
			want:  "https://ie.indeed.com/viewjob?jk=abc123",
		},
		{
			name:  "indeed without job key",
			board: indeed.Board{},
			cfg:   indeedCfg,
			raw:   "https://ie.indeed.com/cmp/acme",
			want:  "https://ie.indeed.com/cmp/acme",
		},
		{
			name:  "indeed relative",
			board: indeed.Board{},
			cfg:   indeedCfg,
			raw:   "/pagead/clk?jk=f00&tk=1",
			want:  "https://ie.indeed.com/viewjob?jk=f00",
		},
		{
			name:  "linkedin tracking params",
			board: linkedin.Board{},
			raw:   "https://ie.linkedin.com/jobs/view/go-engineer-at-acme-4012345678?refId=abc&trackingId=xyz#top",
			want:  "https://ie.linkedin.com/jobs/view/go-engineer-at-acme-4012345678",
		},
		{
			name:  "irishjobs fragment",
			board: irishjobs.Board{},
			raw:   "https://www.irishjobs.ie/job/go-developer/acme-job123#apply",
			want:  "https://www.irishjobs.ie/job/go-developer/acme-job123",
		},
		{
			name:  "empty",
			board: linkedin.Board{},
			raw:   "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.board.CanonicalURL(tt.cfg, tt.raw))
		})
	}
}
