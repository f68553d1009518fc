package collector

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-collector/internal/config"
	"job-collector/internal/dedup"
	"job-collector/internal/extract"
	"job-collector/internal/fetch"
	"job-collector/internal/models"
	"job-collector/internal/pace"
	"job-collector/internal/retry"
	"job-collector/internal/scraper"
	"job-collector/internal/scraper/indeed"
)

type stubScraper struct {
	name  models.Source
	jobs  []models.JobRecord
	err   error
	panic bool
	calls []string
}

func (s *stubScraper) Name() models.Source { return s.name }

func (s *stubScraper) Scrape(_ context.Context, query, _ string, _ int) ([]models.JobRecord, error) {
	s.calls = append(s.calls, query)
	if s.panic {
		panic("selector exploded")
	}
	return s.jobs, s.err
}

func jobsFor(src models.Source, n int) []models.JobRecord {
	out := make([]models.JobRecord, n)
	for i := range out {
		out[i] = models.JobRecord{
			Title:  fmt.Sprintf("Engineer %d", i),
			URL:    fmt.Sprintf("https://%s.test/job/%d", src, i),
			Source: src,
		}
	}
	return out
}

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

// listing serves the same results page for every URL.
type listing struct {
	html   string
	opened int
	closed int
}

func (l *listing) Open(context.Context) (fetch.Page, error) {
	l.opened++
	return &listingPage{l: l}, nil
}

type listingPage struct {
	l   *listing
	url string
}

func (p *listingPage) Goto(_ context.Context, url string, _ time.Duration) (int, error) {
	p.url = url
	return 200, nil
}
func (p *listingPage) Content() (string, error) { return p.l.html, nil }
func (p *listingPage) URL() string              { return p.url }
func (p *listingPage) Scroll(int) error         { return nil }
func (p *listingPage) Close() error {
	p.l.closed++
	return nil
}

func indeedPage(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<div class="job_seen_beacon">
			<h2 class="jobTitle"><a href="/rc/clk?jk=job%d&from=serp">Go Engineer %d</a></h2>
			<span class="companyName">Acme %d</span>
			<div class="companyLocation">Dublin</div>
		</div>`, i, i, i)
	}
	return "<html><body>" + b.String() + "</body></html>"
}

func TestRun_SecondRunFindsNothingNew(t *testing.T) {
	sc, _ := config.Default().Source(models.SourceIndeed)
	opener := &listing{html: indeedPage(5)}
	site := indeed.New(sc, opener, scraper.Deps{
		Acquirer: fetch.NewAcquirer(fetch.Options{Retry: retry.Once, Sleep: noSleep}, nil),
		Sleep:    noSleep,
	})

	store, err := dedup.NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "seen_jobs.db"), nil)
	require.NoError(t, err)
	c := New([]scraper.Scraper{site}, store, nil)
	plan := Plan{Queries: []string{"go developer"}, Location: "Dublin", Pages: 1}

	sum, jobs, err := c.Run(context.Background(), plan)
	require.NoError(t, err)
	require.Len(t, jobs, 5)
	assert.Equal(t, 5, sum.New)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, "https://ie.indeed.com/viewjob?jk=job0", jobs[0].URL)
	assert.Equal(t, "go developer", jobs[0].SearchQuery)

	seen, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, seen)

	sum, jobs, err = c.Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Empty(t, jobs)
	assert.Equal(t, 5, sum.Found)
	assert.Zero(t, sum.New)

	seen, _ = store.Count(context.Background())
	assert.Equal(t, 5, seen)
	assert.Equal(t, opener.opened, opener.closed)
}

func TestRun_SourceFailuresAreIsolated(t *testing.T) {
	broken := &stubScraper{name: models.SourceIndeed, err: errors.New("browser crashed")}
	panicky := &stubScraper{name: models.SourceIrishJobs, panic: true}
	healthy := &stubScraper{name: models.SourceLinkedIn, jobs: jobsFor(models.SourceLinkedIn, 3)}

	c := New([]scraper.Scraper{broken, panicky, healthy}, dedup.NewMemoryStore(), nil)
	sum, jobs, err := c.Run(context.Background(), Plan{Queries: []string{"go", "rust"}, Pages: 1})

	require.NoError(t, err)
	assert.Len(t, jobs, 3, "second query finds only duplicates")
	assert.Equal(t, []string{"go", "rust"}, healthy.calls)
	assert.Equal(t, 2, sum.Sources[models.SourceIndeed].Errors)
	assert.Equal(t, 2, sum.Sources[models.SourceIrishJobs].Errors)
	assert.Equal(t, 3, sum.Sources[models.SourceLinkedIn].New)
	assert.Equal(t, 6, sum.Found)
}

func TestRun_BlockedSourceKeepsPartialResults(t *testing.T) {
	blocked := &stubScraper{
		name: models.SourceLinkedIn,
		jobs: jobsFor(models.SourceLinkedIn, 2),
		err:  fmt.Errorf("%w: %v", scraper.ErrBlocked, fetch.ErrForbidden),
	}
	other := &stubScraper{name: models.SourceIndeed, jobs: jobsFor(models.SourceIndeed, 1)}

	c := New([]scraper.Scraper{blocked, other}, dedup.NewMemoryStore(), nil)
	sum, jobs, err := c.Run(context.Background(), Plan{Queries: []string{"go"}})

	require.NoError(t, err)
	assert.Len(t, jobs, 3)
	assert.True(t, sum.Sources[models.SourceLinkedIn].Blocked)
	assert.Len(t, other.calls, 1)
}

func TestRun_StampsQueryAndHonoursLimit(t *testing.T) {
	a := &stubScraper{name: models.SourceIndeed, jobs: jobsFor(models.SourceIndeed, 4)}
	b := &stubScraper{name: models.SourceLinkedIn, jobs: jobsFor(models.SourceLinkedIn, 4)}

	c := New([]scraper.Scraper{a, b}, dedup.NewMemoryStore(), nil)
	_, jobs, err := c.Run(context.Background(), Plan{Queries: []string{"go", "rust"}, Limit: 3})

	require.NoError(t, err)
	require.Len(t, jobs, 3)
	for _, j := range jobs {
		assert.Equal(t, "go", j.SearchQuery)
	}
	assert.Empty(t, b.calls, "no source is scraped after the limit")
}

func TestRun_IgnoreHistoryLeavesStoreUntouched(t *testing.T) {
	store := dedup.NewMemoryStore()
	for _, j := range jobsFor(models.SourceIndeed, 2) {
		require.NoError(t, store.Record(context.Background(), j))
	}
	s := &stubScraper{name: models.SourceIndeed, jobs: jobsFor(models.SourceIndeed, 2)}

	c := New([]scraper.Scraper{s, s}, store, nil)
	_, jobs, err := c.Run(context.Background(), Plan{Queries: []string{"go"}, IgnoreHistory: true})

	require.NoError(t, err)
	assert.Len(t, jobs, 2, "seen in history but new to this run; the repeat is dropped")
	assert.Equal(t, 2, store.Len())
}

type cancellingScraper struct {
	stubScraper
	cancel context.CancelFunc
}

func (s *cancellingScraper) Scrape(ctx context.Context, query, location string, pages int) ([]models.JobRecord, error) {
	s.cancel()
	jobs, _ := s.stubScraper.Scrape(ctx, query, location, pages)
	return jobs, ctx.Err()
}

func TestRun_CancellationReturnsCollected(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	first := &cancellingScraper{stubScraper: stubScraper{name: models.SourceIndeed, jobs: jobsFor(models.SourceIndeed, 2)}, cancel: cancel}
	second := &stubScraper{name: models.SourceLinkedIn, jobs: jobsFor(models.SourceLinkedIn, 2)}

	c := New([]scraper.Scraper{first, second}, dedup.NewMemoryStore(), nil)
	_, jobs, err := c.Run(ctx, Plan{Queries: []string{"go", "rust"}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, jobs, 2)
	assert.Empty(t, second.calls)
}

// detailStub answers detail fetches from a map of URL to description.
type detailStub struct {
	descriptions map[string]string
	fetched      []string
}

func (d *detailStub) Enrich(_ context.Context, job models.JobRecord) (extract.Result, error) {
	d.fetched = append(d.fetched, job.URL)
	desc, ok := d.descriptions[job.URL]
	if !ok {
		return extract.Result{Status: extract.StatusFailed, Err: extract.ErrNoDescription}, nil
	}
	return extract.Result{Status: extract.StatusSuccess, Description: desc, PostedDate: "Posted 2 days ago"}, nil
}

func onDisk(t *testing.T, path string) int {
	t.Helper()
	l, err := dedup.LoadLedger(path)
	require.NoError(t, err)
	return l.Len()
}

func TestEnrich_MergesAndSavesAfterEveryRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs_with_descriptions.json")
	long := strings.Repeat("x", 200)

	existing := models.JobRecord{Title: "Go Engineer", Company: "Acme", URL: "https://x/1", Source: models.SourceIndeed}
	ledger := dedup.NewLedger(path, []models.JobRecord{existing})

	stub := &detailStub{descriptions: map[string]string{"https://x/1": long, "https://x/3": long}}
	var savedBeforeFetch []int
	sleep := func(ctx context.Context, _ time.Duration) error {
		savedBeforeFetch = append(savedBeforeFetch, onDisk(t, path))
		return nil
	}
	c := New(nil, nil, nil, WithEnricher(stub, pace.Between(3*time.Second, 6*time.Second)), WithSleep(sleep))

	jobs := []models.JobRecord{
		{URL: "https://x/1", Source: models.SourceIndeed},
		{Title: "Broken", URL: "https://x/2"},
		{Title: "Rust Engineer", URL: "https://x/3"},
		{Title: "No link"},
		{Title: "Done", URL: "https://x/4", Description: long},
	}
	sum, err := c.Enrich(context.Background(), jobs, ledger)
	require.NoError(t, err)

	assert.Equal(t, EnrichSummary{Processed: 3, Success: 2, Failed: 1, Skipped: 2, Updated: 1, New: 3}, withoutDuration(sum))
	assert.Equal(t, []string{"https://x/1", "https://x/2", "https://x/3"}, stub.fetched)
	assert.Equal(t, []int{1, 2}, savedBeforeFetch, "progress is on disk before the next fetch")

	reloaded, err := dedup.LoadLedger(path)
	require.NoError(t, err)
	assert.Equal(t, 4, reloaded.Len())

	got, ok := reloaded.Find("https://x/1")
	require.True(t, ok)
	assert.Equal(t, long, got.Description)
	assert.Equal(t, "Posted 2 days ago", got.PostedDate)
	assert.Equal(t, "Go Engineer", got.Title)
	assert.Equal(t, "Acme", got.Company)

	failed, ok := reloaded.Find("https://x/2")
	require.True(t, ok)
	assert.Empty(t, failed.Description)
}

func TestEnrich_SkipsAlreadyEnrichedLedgerRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	ledger := dedup.NewLedger(path, []models.JobRecord{{URL: "https://x/1", Description: strings.Repeat("y", 101)}})
	stub := &detailStub{}
	c := New(nil, nil, nil, WithEnricher(stub, pace.Range{}), WithSleep(noSleep))

	sum, err := c.Enrich(context.Background(), []models.JobRecord{{URL: "https://x/1"}}, ledger)

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Skipped)
	assert.Empty(t, stub.fetched)
}

func TestEnrich_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ledger := dedup.NewLedger(filepath.Join(t.TempDir(), "jobs.json"), nil)
	stub := &detailStub{}
	sleep := func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}
	c := New(nil, nil, nil, WithEnricher(stub, pace.Range{}), WithSleep(sleep))

	sum, err := c.Enrich(ctx, []models.JobRecord{{URL: "https://x/1"}, {URL: "https://x/2"}}, ledger)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, sum.Processed)
	assert.Equal(t, 1, ledger.Len())
}

func TestEnrich_RequiresEnricher(t *testing.T) {
	_, err := New(nil, nil, nil).Enrich(context.Background(), nil, dedup.NewLedger("unused.json", nil))
	assert.ErrorIs(t, err, ErrNoEnricher)
}

func withoutDuration(s EnrichSummary) EnrichSummary {
	s.Duration = 0
	return s
}
