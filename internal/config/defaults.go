package config

import (
	"time"

	"job-collector/internal/extract"
	"job-collector/internal/models"
	"job-collector/internal/pace"
)

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// Default returns a complete configuration for the three supported boards,
// tuned for searches in Ireland.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		DataDir:  "data",
		Browser: BrowserConfig{
			Headless: true,
			Args: []string{
				"--disable-blink-features=AutomationControlled",
				"--disable-dev-shm-usage",
				"--no-sandbox",
				"--disable-setuid-sandbox",
			},
			UserAgents:     append([]string(nil), defaultUserAgents...),
			ViewportWidth:  1920,
			ViewportHeight: 1080,
			Locale:         "en-IE",
			TimezoneID:     "Europe/Dublin",
			Latitude:       53.3498,
			Longitude:      -6.2603,
			AcceptLanguage: "en-IE,en-US;q=0.9,en;q=0.8",
			Languages:      []string{"en-US", "en", "en-IE"},
			CookiesDir:     ".cookies",
			ScreenshotDir:  "data/screenshots",
		},
		Pacing: PacingConfig{
			Page:        pace.Between(5*time.Second, 15*time.Second),
			Enrich:      pace.Between(3*time.Second, 6*time.Second),
			HumanPause:  pace.Between(2*time.Second, 4*time.Second),
			ScrollPause: pace.Between(500*time.Millisecond, 1500*time.Millisecond),
			Scrolls:     2,
			ScrollStep:  300,
		},
		Challenge: ChallengeConfig{
			PollInterval: 500 * time.Millisecond,
			MaxWait:      15 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			Backoff:          []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
			RateLimitBackoff: time.Minute,
		},
		Sources: map[models.Source]SourceConfig{
			models.SourceIndeed:    indeedDefaults(),
			models.SourceIrishJobs: irishJobsDefaults(),
			models.SourceLinkedIn:  linkedInDefaults(),
		},
	}
}

var cloudflareMarkers = []string{
	"cf-challenge",
	"challenge-platform",
	"cf-turnstile",
	"Just a moment...",
	"Verify you are human",
}

func indeedDefaults() SourceConfig {
	return SourceConfig{
		BaseURL:          "https://ie.indeed.com",
		JobsPerPage:      10,
		NavTimeout:       30 * time.Second,
		DetailNavTimeout: 30 * time.Second,
		Settle:           3 * time.Second,
		Listing: extract.Catalog{
			Cards:       []string{"div.job_seen_beacon", "td.resultContent", "div.cardOutline"},
			Title:       []string{"h2.jobTitle", "a.jcs-JobTitle"},
			Company:     []string{"span.companyName", `span[data-testid="company-name"]`},
			Location:    []string{"div.companyLocation", `div[data-testid="text-location"]`},
			Salary:      []string{"div.salary-snippet", `div[data-testid="attribute_snippet_testid"]`},
			Description: []string{"div.job-snippet", `div[data-testid="job-snippet"]`},
		},
		Detail: extract.DetailCatalog{
			Description: []string{
				"div#jobDescriptionText",
				"div.jobsearch-jobDescriptionText",
				"div.jobsearch-JobComponent-description",
				`div[class*="jobsearch-JobComponent-description"]`,
				`div[id*="jobDesc"]`,
				"div.job-description",
			},
			PostedDate: []string{
				"div.jobsearch-JobMetadataFooter",
				"span.date",
				`div[class*="JobMetadataFooter"]`,
				`div[class*="date"]`,
				`span[class*="date"]`,
			},
		},
		ChallengeMarkers: cloudflareMarkers,
		ListingMarkers:   []string{"job_seen_beacon", "jobsearch-ResultsList", "cardOutline"},
		DetailMarkers:    []string{"jobDescriptionText"},
	}
}

func irishJobsDefaults() SourceConfig {
	return SourceConfig{
		BaseURL:          "https://www.irishjobs.ie",
		JobsPerPage:      25,
		NavTimeout:       60 * time.Second,
		DetailNavTimeout: 30 * time.Second,
		Settle:           8 * time.Second,
		Listing: extract.Catalog{
			Cards:       []string{"article.job", "div.job-item", "div.res-1t6m82k", `article[data-at="job-item"]`},
			Title:       []string{"h2.job-title", "a.job-link", "a.res-1na8b7y", `a[data-at="job-item-title"]`},
			Company:     []string{"span.company", "div.employer", "a.res-14k2z3y", `span[data-at="job-item-company-name"]`},
			Location:    []string{"span.location", "div.job-location", "span.res-1c25221", `span[data-at="job-item-location"]`},
			Salary:      []string{"span.salary", "div.job-salary", "span.res-1dp9s8x", `span[data-at="job-item-salary-info"]`},
			Description: []string{"div.job-description", "p.description", "span.res-162u0s4"},
		},
		Detail: extract.DetailCatalog{
			Description: []string{
				`div[data-at="job-ad-content"]`,
				"div.job-description",
				"section.job-description",
				"div#job-description",
				`div[class*="job-ad-display"]`,
			},
			PostedDate: []string{
				`span[data-at="metadata-online-date"]`,
				`li[class*="date"]`,
				`span[class*="date"]`,
				`div[class*="date"]`,
			},
		},
		ChallengeMarkers: []string{"bm-verify", "akamai", "please wait"},
		ListingMarkers:   []string{"job-item", "job-title", "res-1t6m82k"},
		DetailMarkers:    []string{"job-ad-content", "job-description"},
	}
}

func linkedInDefaults() SourceConfig {
	return SourceConfig{
		BaseURL:          "https://www.linkedin.com",
		JobsPerPage:      25,
		NavTimeout:       60 * time.Second,
		DetailNavTimeout: 30 * time.Second,
		Settle:           3 * time.Second,
		Listing: extract.Catalog{
			Cards:       []string{"li.jobs-search-results__list-item", "ul.jobs-search__results-list > li", "div.base-search-card"},
			Title:       []string{"h3.base-search-card__title"},
			Company:     []string{"h4.base-search-card__subtitle", "a.hidden-nested-link"},
			Location:    []string{"span.job-search-card__location"},
			Salary:      []string{"span.job-search-card__salary-info"},
			Description: []string{"p.base-search-card__snippet"},
			Link:        []string{"a.base-card__full-link", "a.base-card--link"},
		},
		Detail: extract.DetailCatalog{
			Description: []string{
				"div.show-more-less-html__markup",
				"div.description__text",
				"section.description",
			},
			PostedDate: []string{
				"span.posted-time-ago__text",
				"span.job-search-card__listdate",
				"time",
			},
		},
		ChallengeMarkers: []string{"captcha", "security verification"},
		ListingMarkers:   []string{"base-search-card", "jobs-search__results-list"},
		DetailMarkers:    []string{"show-more-less-html", "description__text"},
		AuthWallMarkers:  []string{"/authwall", "/login", "/checkpoint"},
	}
}
