// Package extract turns acquired page HTML into job records using ordered
// lists of candidate CSS selectors. The first candidate that yields an
// acceptable value wins; later candidates are only tried on a miss.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"job-collector/internal/models"
)

// Catalog lists the candidate selectors for a listing page.
type Catalog struct {
	Cards       []string `yaml:"cards"`
	Title       []string `yaml:"title"`
	Company     []string `yaml:"company"`
	Location    []string `yaml:"location"`
	Salary      []string `yaml:"salary"`
	Description []string `yaml:"description"`
	// Link candidates locate the anchor holding the job URL. When empty the
	// title candidates are used.
	Link []string `yaml:"link"`
}

// DetailCatalog lists the candidate selectors for a detail page.
type DetailCatalog struct {
	Description []string `yaml:"description"`
	PostedDate  []string `yaml:"posted_date"`
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Result is the outcome of a detail-page extraction.
type Result struct {
	Status      Status
	Description string
	PostedDate  string
	Err         error
}

var ErrNoDescription = errors.New("no description element found")

// CardStats describes what a listing page yielded.
type CardStats struct {
	Selector string // container selector that matched, empty when none did
	Cards    int    // elements matched by Selector
	Skipped  int    // cards dropped for lacking a title
}

func parse(page string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// FirstMatch tries each candidate in order against sel and returns the first
// normalized text that accept approves. A nil accept approves any non-empty text.
func FirstMatch(sel *goquery.Selection, candidates []string, accept func(string) bool) (string, bool) {
	return firstMatchWith(sel, candidates, accept, func(s *goquery.Selection) string {
		return CleanText(s.Text())
	})
}

func firstMatchWith(sel *goquery.Selection, candidates []string, accept func(string) bool, text func(*goquery.Selection) string) (string, bool) {
	for _, c := range candidates {
		found := sel.Find(c).First()
		if found.Length() == 0 {
			continue
		}
		v := text(found)
		if v == "" {
			continue
		}
		if accept != nil && !accept(v) {
			continue
		}
		return v, true
	}
	return "", false
}

// FindCards returns the elements matched by the first container candidate
// that matches anything, together with that candidate.
func FindCards(doc *goquery.Selection, candidates []string) (*goquery.Selection, string) {
	for _, c := range candidates {
		found := doc.Find(c)
		if found.Length() > 0 {
			return found, c
		}
	}
	return nil, ""
}

// ParseCards extracts one record per card that has a title. A page with no
// matching container yields no records and a zero CardStats.Cards.
func ParseCards(page string, cat Catalog, baseURL string, source models.Source) ([]models.JobRecord, CardStats, error) {
	doc, err := parse(page)
	if err != nil {
		return nil, CardStats{}, err
	}

	cards, selector := FindCards(doc.Selection, cat.Cards)
	stats := CardStats{Selector: selector}
	if cards == nil {
		return nil, stats, nil
	}
	stats.Cards = cards.Length()

	jobs := make([]models.JobRecord, 0, stats.Cards)
	cards.Each(func(_ int, card *goquery.Selection) {
		job, ok := parseCard(card, cat, baseURL, source)
		if !ok {
			stats.Skipped++
			return
		}
		jobs = append(jobs, job)
	})
	return jobs, stats, nil
}

func parseCard(card *goquery.Selection, cat Catalog, baseURL string, source models.Source) (models.JobRecord, bool) {
	title, ok := FirstMatch(card, cat.Title, nil)
	if !ok {
		return models.JobRecord{}, false
	}

	company, _ := FirstMatch(card, cat.Company, nil)
	location, _ := FirstMatch(card, cat.Location, nil)
	salary, _ := FirstMatch(card, cat.Salary, nil)
	description, _ := FirstMatch(card, cat.Description, nil)

	links := cat.Link
	if len(links) == 0 {
		links = cat.Title
	}

	return models.JobRecord{
		Title:       title,
		Company:     company,
		Location:    location,
		Salary:      salary,
		Description: description,
		URL:         ResolveURL(baseURL, findHref(card, links)),
		Source:      source,
	}, true
}

// findHref returns the href of the first candidate element that is, contains,
// or sits inside an anchor.
func findHref(card *goquery.Selection, candidates []string) string {
	for _, c := range candidates {
		el := card.Find(c).First()
		if el.Length() == 0 {
			continue
		}
		if goquery.NodeName(el) == "a" {
			if href, ok := el.Attr("href"); ok && strings.TrimSpace(href) != "" {
				return href
			}
			continue
		}
		if href, ok := el.Find("a[href]").First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return href
		}
		if href, ok := el.Closest("a[href]").Attr("href"); ok && strings.TrimSpace(href) != "" {
			return href
		}
	}
	return ""
}

// ParseDetail extracts the full description and posting date from a detail
// page. A found description is enough for success; a missing date leaves
// PostedDate empty.
func ParseDetail(page string, cat DetailCatalog) Result {
	doc, err := parse(page)
	if err != nil {
		return Result{Status: StatusFailed, Err: err}
	}

	res := Result{Status: StatusFailed}
	if desc, ok := firstMatchWith(doc.Selection, cat.Description, AcceptDescription, textOf); ok {
		res.Description = desc
		res.Status = StatusSuccess
	} else {
		res.Err = ErrNoDescription
	}

	if date, ok := FirstMatch(doc.Selection, cat.PostedDate, HasTemporalKeyword); ok {
		res.PostedDate = date
	} else {
		res.PostedDate = footerDate(doc)
	}
	return res
}

func footerDate(doc *goquery.Document) string {
	var date string
	doc.Find("[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if !strings.Contains(strings.ToLower(class), "footer") {
			return true
		}
		date = FindPostedDate(CleanText(s.Text()))
		return date == ""
	})
	return date
}
