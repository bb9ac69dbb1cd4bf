package droidz

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"stickscraper/pkg/errors"
)

// dateLayout matches the site's long-form submission dates, e.g.
// "January 2, 2006"
const dateLayout = "January 2, 2006"

var (
	// Some pages carry malformed break tags (missing or misplaced slashes)
	// that confuse tree construction. Normalize every variant first.
	brPattern = regexp.MustCompile(`(?i)<\s*br\s*/?\s*>`)

	authorHrefPattern   = regexp.MustCompile(`search\.php\?searchq=`)
	downloadHrefPattern = regexp.MustCompile(`/resources/grab\.php\?file=`)

	voteScorePattern   = regexp.MustCompile(`(?m)Vote Score: ([-\d]+)\s*$`)
	downloadsPattern   = regexp.MustCompile(`(?m)Downloads: (\d+)\s*$`)
	categoryPattern    = regexp.MustCompile(`(?m)Category: (.+?)\s*$`)
	versionPattern     = regexp.MustCompile(`(?m)Version: (.+?)\s*$`)
	usageRatingPattern = regexp.MustCompile(`(?m)Usage Rating: (.+?)\s*$`)
	datePattern        = regexp.MustCompile(`(?m)Date Submitted: (.+?)\s*$`)
)

// ParseDetail extracts a complete Stick from a detail page. It returns a
// parse error naming the missing field rather than a partial record: a
// stick either parses fully or not at all.
func ParseDetail(html []byte, id string) (*Stick, error) {
	// Break tags become newlines so the info block can be matched
	// line by line.
	text := brPattern.ReplaceAllString(string(html), "\n")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, errors.Parsef("parse detail page for %s: %v", id, err)
	}

	contents := doc.Find(".content")
	if contents.Length() < 2 {
		return nil, errors.Parsef("stick %s: info block missing", id)
	}
	info := contents.Eq(1).Text()

	author, err := findAnchorText(doc, authorHrefPattern)
	if err != nil {
		return nil, errors.Parsef("stick %s: author link missing", id)
	}

	voteScore, err := matchInt(voteScorePattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: vote score: %v", id, err)
	}
	downloads, err := matchInt(downloadsPattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: downloads: %v", id, err)
	}
	category, err := matchString(categoryPattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: category: %v", id, err)
	}
	version, err := matchString(versionPattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: version: %v", id, err)
	}
	usageRating, err := matchString(usageRatingPattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: usage rating: %v", id, err)
	}
	dateText, err := matchString(datePattern, info)
	if err != nil {
		return nil, errors.Parsef("stick %s: submission date: %v", id, err)
	}
	date, err := time.Parse(dateLayout, dateText)
	if err != nil {
		return nil, errors.Parsef("stick %s: submission date %q: %v", id, dateText, err)
	}

	heading := doc.Find(".section .top h2")
	if heading.Length() == 0 {
		return nil, errors.Parsef("stick %s: title heading missing", id)
	}
	name := strings.TrimSpace(heading.First().Text())

	description := normalizeDescription(
		strings.TrimSpace(doc.Find(".section .content").First().Text()),
		author,
	)

	downloadLink, err := findAnchorHref(doc, downloadHrefPattern)
	if err != nil {
		return nil, errors.Parsef("stick %s: download link missing", id)
	}

	retrieved := time.Now().UTC()

	return &Stick{
		ID:           id,
		Name:         name,
		Description:  description,
		Date:         date,
		Author:       author,
		DownloadLink: downloadLink,
		Category:     category,
		Downloads:    downloads,
		Version:      version,
		VoteScore:    voteScore,
		UsageRating:  usageRating,
		Retrieved:    &retrieved,
	}, nil
}

// normalizeDescription maps the site's canned no-comment placeholder to nil
// and strips the "{author} says, " prefix from real descriptions.
func normalizeDescription(description, author string) *string {
	if description == fmt.Sprintf("%s, has left no comments for this submission.", author) {
		return nil
	}
	description = strings.Replace(description, fmt.Sprintf("%s says, ", author), "", 1)
	return &description
}

// findAnchorText returns the text of the first anchor whose href matches
// pattern.
func findAnchorText(doc *goquery.Document, pattern *regexp.Regexp) (string, error) {
	a, err := findAnchor(doc, pattern)
	if err != nil {
		return "", err
	}
	return a.Text(), nil
}

// findAnchorHref returns the href of the first anchor whose href matches
// pattern.
func findAnchorHref(doc *goquery.Document, pattern *regexp.Regexp) (string, error) {
	a, err := findAnchor(doc, pattern)
	if err != nil {
		return "", err
	}
	href, _ := a.Attr("href")
	return href, nil
}

func findAnchor(doc *goquery.Document, pattern *regexp.Regexp) (*goquery.Selection, error) {
	var found *goquery.Selection
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if pattern.MatchString(href) {
			found = a
			return false
		}
		return true
	})
	if found == nil {
		return nil, fmt.Errorf("no anchor matching %s", pattern)
	}
	return found, nil
}

func matchString(pattern *regexp.Regexp, text string) (string, error) {
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("no line matching %s", pattern)
	}
	return m[1], nil
}

func matchInt(pattern *regexp.Regexp, text string) (int, error) {
	s, err := matchString(pattern, text)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return n, nil
}
