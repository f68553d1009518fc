package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// MinDescriptionLength is the number of characters a detail-page description
// must exceed to be accepted. Shorter matches are usually layout scaffolding.
const MinDescriptionLength = 50

var temporalKeywords = []string{"posted", "today", "yesterday", "day", "week", "hour", "ago"}

var footerDateRegex = regexp.MustCompile(`(?i)(posted|active)?\s*(today|yesterday|just posted|\d+\+?\s+(?:hour|day|week)s?\s+ago)`)

// CleanText collapses whitespace runs to single spaces and trims the ends.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// HasTemporalKeyword reports whether s reads like a posting date.
func HasTemporalKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range temporalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// AcceptDescription accepts texts longer than MinDescriptionLength characters.
func AcceptDescription(s string) bool {
	return utf8.RuneCountInString(s) > MinDescriptionLength
}

// FindPostedDate pulls a relative date phrase out of free text.
func FindPostedDate(s string) string {
	m := footerDateRegex.FindString(s)
	return strings.TrimSpace(m)
}

// ResolveURL resolves href against base. Absolute URLs are returned as-is.
func ResolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if ref.IsAbs() {
		return href
	}
	b, err := url.Parse(base)
	if err != nil || base == "" {
		return href
	}
	return b.ResolveReference(ref).String()
}

// textOf returns the normalized text of the selection, separating text
// nodes by spaces so that adjacent block elements do not run together.
func textOf(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			parts = append(parts, n.Data)
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return CleanText(strings.Join(parts, " "))
}
