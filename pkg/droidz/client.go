package droidz

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"stickscraper/pkg/errors"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/ratelimit"
)

// Client is a rate-limited HTTP client for droidz.org
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewClient creates a new site client. Every Get acquires a permit from
// limiter before touching the network.
func NewClient(baseURL, userAgent string, timeout time.Duration, limiter ratelimit.Limiter, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent": userAgent,
		},
		baseURL: baseURL,
		limiter: limiter,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// BaseURL returns the configured site base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches url and returns the response body. Relative URLs are
// resolved against the site base URL. Transport failures and non-2xx
// statuses are returned as fetch errors.
func (c *Client) Get(url string) ([]byte, error) {
	url = ResolveURL(c.baseURL, url)

	if c.limiter != nil {
		c.limiter.Wait()
	}

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Fetchf(0, "build request for %s: %v", url, err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    url,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Fetchf(0, "get %s: %v", url, err)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.Fetchf(resp.StatusCode, "get %s: %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Fetchf(0, "read body of %s: %v", url, err)
	}

	return body, nil
}

// FetchHome fetches the stickmain homepage
func (c *Client) FetchHome() ([]byte, error) {
	return c.Get(HomeURL(c.baseURL))
}

// FetchCategoryPage fetches one page of a category listing
func (c *Client) FetchCategoryPage(category string, page int) ([]byte, error) {
	return c.Get(CategoryURL(c.baseURL, category, page))
}

// FetchDetail fetches a stick's detail page
func (c *Client) FetchDetail(id string) ([]byte, error) {
	return c.Get(DirectURL(c.baseURL, id))
}

// ScrapeDetail fetches and parses a stick's detail page in one step
func (c *Client) ScrapeDetail(id string) (*Stick, error) {
	body, err := c.FetchDetail(id)
	if err != nil {
		return nil, err
	}
	return ParseDetail(body, id)
}

// String describes the client for logging
func (c *Client) String() string {
	return fmt.Sprintf("droidz.Client(%s)", c.baseURL)
}
