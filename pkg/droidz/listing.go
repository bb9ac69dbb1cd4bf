package droidz

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stickscraper/pkg/errors"
)

// latestHeading is the marker text of the homepage's recent-submissions panel
const latestHeading = "Latest 50 Accepted"

var directHrefPattern = regexp.MustCompile(`/direct/\d+`)

// ParseListing extracts stick IDs from a category listing page, in document
// order. Duplicates are preserved; deduplication is the caller's job since
// pagination overlap is how the crawler detects the last page.
func ParseListing(html []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errors.Parsef("parse listing page: %v", err)
	}

	return collectDirectIDs(doc.Selection), nil
}

// ParseLatest extracts stick IDs from the homepage's "Latest 50 Accepted"
// panel, most recent first. A homepage without the panel heading means the
// site changed underneath us, which is fatal for the calling crawl step.
func ParseLatest(html []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, errors.Parsef("parse homepage: %v", err)
	}

	var panel *goquery.Selection
	doc.Find("h2").EachWithBreak(func(_ int, h2 *goquery.Selection) bool {
		if strings.Contains(h2.Text(), latestHeading) {
			panel = h2.Parent()
			return false
		}
		return true
	})

	if panel == nil {
		return nil, errors.Parsef("homepage is missing the %q heading", latestHeading)
	}

	return collectDirectIDs(panel), nil
}

// collectDirectIDs finds all detail-page anchors under sel and extracts
// their IDs in document order.
func collectDirectIDs(sel *goquery.Selection) []string {
	var ids []string
	sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if directHrefPattern.MatchString(href) {
			ids = append(ids, IDFromDirectURL(href))
		}
	})
	return ids
}
