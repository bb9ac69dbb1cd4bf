package droidz

import "time"

// Categories lists every stick category on the site, in the order the
// crawler traverses them.
var Categories = []string{
	"stickmen",
	"stickpacks",
	"vehicles",
	"weapons",
	"objects",
	"random",
	"effects",
	"backgrounds",
}

// Stick represents one catalog entry's metadata.
//
// A stick goes through two lifecycle states: a stub, where only ID is set
// and Retrieved is nil, and a complete record after a successful detail
// scrape. ID never changes once assigned.
type Stick struct {
	// ID is the opaque identifier from the /direct/{id} URL
	ID string

	// Name is the submission title
	Name string

	// Description is the author's comment, nil when the site shows its
	// "has left no comments" placeholder
	Description *string

	// Date is the submission date
	Date time.Time

	// Author is the submitting user's name
	Author string

	// DownloadLink is the archive URL, possibly relative to the site root
	DownloadLink string

	// Category is one of Categories
	Category string

	// Downloads is the site-reported download counter
	Downloads int

	// Version is the submission's version string
	Version string

	// VoteScore is the site-reported vote total, may be negative
	VoteScore int

	// UsageRating is the site's usage rating text
	UsageRating string

	// Retrieved is when the detail page was last scraped, nil for stubs
	Retrieved *time.Time
}

// IsStub reports whether the stick has not yet been detail-scraped
func (s *Stick) IsStub() bool {
	return s.Retrieved == nil
}
