// Package droidz provides the HTTP client and HTML parsers for droidz.org.
//
// The site exposes three kinds of pages the scraper cares about:
//
//   - The stickmain homepage, whose "Latest 50 Accepted" panel lists the
//     most recently accepted submissions.
//   - Paginated category listings (stickmen, weapons, ...), each page
//     linking to detail pages. The site publishes no total page count;
//     callers paginate until a page yields no new IDs.
//   - Per-stick detail pages at /direct/{id}, carrying the full metadata
//     block and the archive download link.
//
// Parsing is split into pure functions over a single HTML document
// (ParseListing, ParseLatest, ParseDetail) so they can be unit-tested
// against fixtures, and a Client that performs the rate-limited fetches.
package droidz
