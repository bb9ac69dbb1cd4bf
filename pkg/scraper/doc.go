// Package scraper orchestrates the droidz.org crawl.
//
// Discovery and detail scraping are deliberately separate phases. Discovery
// walks the homepage's latest panel (incremental) or every category listing
// (full), inserting bare stub rows for each id it finds; it is strictly
// sequential because pagination termination depends on ordering. Detail
// scraping then fills in every stub, optionally across a worker pool, with
// all database writes funneled through the orchestrator so the store keeps
// a single writer.
//
// An incremental update trusts the latest panel: inserting most recent
// first, the first already-known id proves everything older is known too.
// Only when the whole panel turns out to be new, meaning more submissions
// arrived than the panel can hold, does it fall back to full category
// traversal.
package scraper
