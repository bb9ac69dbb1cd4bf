package droidz

import (
	"fmt"
	"strings"
)

const (
	// DefaultBaseURL is the base URL for droidz.org
	DefaultBaseURL = "http://droidz.org"

	// DirectEndpoint is the endpoint pattern for stick detail pages
	DirectEndpoint = "/direct/"

	// HomeEndpoint is the endpoint for the stickmain homepage with the
	// "Latest 50 Accepted" panel
	HomeEndpoint = "/stickmain/"
)

// DirectURL constructs the detail page URL for a stick
func DirectURL(baseURL, id string) string {
	return fmt.Sprintf("%s%s%s", strings.TrimSuffix(baseURL, "/"), DirectEndpoint, id)
}

// HomeURL constructs the stickmain homepage URL
func HomeURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + HomeEndpoint
}

// CategoryURL constructs the URL for one page of a category listing
func CategoryURL(baseURL, category string, page int) string {
	return fmt.Sprintf("%s%s%s.php?page=%d", strings.TrimSuffix(baseURL, "/"), HomeEndpoint, category, page)
}

// IDFromDirectURL extracts the stick ID from a detail page URL or href.
// The ID is the path segment following "/direct/", with any further path
// segments and query string stripped.
func IDFromDirectURL(href string) string {
	parts := strings.Split(href, DirectEndpoint)
	id := parts[len(parts)-1]
	id = strings.SplitN(id, "/", 2)[0]
	id = strings.SplitN(id, "?", 2)[0]
	return id
}

// ResolveURL makes href absolute against the site base URL. Absolute
// hrefs are returned unchanged.
func ResolveURL(baseURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return strings.TrimSuffix(baseURL, "/") + href
}
