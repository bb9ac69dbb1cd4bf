package scraper

import "stickscraper/pkg/droidz"

// SiteClient defines the site operations the orchestrator needs. It is
// satisfied by droidz.Client and by test doubles.
type SiteClient interface {
	FetchHome() ([]byte, error)
	FetchCategoryPage(category string, page int) ([]byte, error)
	ScrapeDetail(id string) (*droidz.Stick, error)
}
