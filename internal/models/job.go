package models

import (
	"fmt"
	"strings"
	"time"
)

type Source string

const (
	SourceIndeed    Source = "indeed"
	SourceIrishJobs Source = "irishjobs"
	SourceLinkedIn  Source = "linkedin"
)

// Sources lists every supported job board in scrape order.
var Sources = []Source{SourceIndeed, SourceIrishJobs, SourceLinkedIn}

func ParseSource(s string) (Source, error) {
	switch src := Source(strings.ToLower(strings.TrimSpace(s))); src {
	case SourceIndeed, SourceIrishJobs, SourceLinkedIn:
		return src, nil
	default:
		return "", fmt.Errorf("unknown source %q", s)
	}
}

// JobRecord is one discovered listing. URL is the identity key.
type JobRecord struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
	PostedDate  string `json:"posted_date"`
	SearchQuery string `json:"search_query"`
}

// Trackable reports whether the record can be deduplicated.
func (j JobRecord) Trackable() bool {
	return j.URL != ""
}

// Merge copies every non-empty field of other over j.
func (j *JobRecord) Merge(other JobRecord) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&j.Title, other.Title)
	set(&j.Company, other.Company)
	set(&j.Location, other.Location)
	set(&j.Salary, other.Salary)
	set(&j.Description, other.Description)
	set(&j.URL, other.URL)
	set(&j.PostedDate, other.PostedDate)
	set(&j.SearchQuery, other.SearchQuery)
	if other.Source != "" {
		j.Source = other.Source
	}
}

// SeenEntry is the persisted fact that a URL has been observed.
type SeenEntry struct {
	URL       string    `json:"url"`
	Title     string    `json:"title"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	Source    Source    `json:"source"`
	FirstSeen time.Time `json:"first_seen"`
}

func NewSeenEntry(job JobRecord, now time.Time) SeenEntry {
	return SeenEntry{
		URL:       job.URL,
		Title:     job.Title,
		Company:   job.Company,
		Location:  job.Location,
		Source:    job.Source,
		FirstSeen: now,
	}
}
