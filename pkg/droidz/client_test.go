package droidz

import (
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickscraper/pkg/errors"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/ratelimit"
)

const testUserAgent = "stickscraper-test/1.0"

func newTestClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	client := NewClient(DefaultBaseURL, testUserAgent, 10*time.Second,
		ratelimit.NewSlidingWindow(100, time.Second), logger.NewNopLogger())

	transport := httpmock.NewMockTransport()
	client.httpClient.Transport = transport

	return client, transport
}

func TestClientGet(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("GET", "http://droidz.org/stickmain/",
		httpmock.NewStringResponder(200, "<html>home</html>"))

	body, err := client.FetchHome()
	require.NoError(t, err)
	assert.Equal(t, "<html>home</html>", string(body))
}

func TestClientSendsUserAgent(t *testing.T) {
	client, transport := newTestClient(t)

	var gotUserAgent string
	transport.RegisterResponder("GET", "http://droidz.org/direct/42",
		func(req *http.Request) (*http.Response, error) {
			gotUserAgent = req.Header.Get("User-Agent")
			return httpmock.NewStringResponse(200, "ok"), nil
		})

	_, err := client.FetchDetail("42")
	require.NoError(t, err)
	assert.Equal(t, testUserAgent, gotUserAgent)
}

func TestClientNonSuccessStatus(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("GET", "http://droidz.org/direct/404",
		httpmock.NewStringResponder(404, "not found"))

	_, err := client.FetchDetail("404")
	require.Error(t, err)
	assert.True(t, errors.IsFetch(err), "expected a fetch error, got %v", err)

	fetchErr := err.(*errors.Error)
	assert.Equal(t, 404, fetchErr.Code)
}

func TestClientTransportError(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("GET", "http://droidz.org/direct/1",
		httpmock.NewErrorResponder(assert.AnError))

	_, err := client.FetchDetail("1")
	require.Error(t, err)
	assert.True(t, errors.IsFetch(err), "expected a fetch error, got %v", err)
}

func TestClientResolvesRelativeURLs(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("GET", "http://droidz.org/resources/grab.php?file=a.zip",
		httpmock.NewStringResponder(200, "archive-bytes"))

	body, err := client.Get("/resources/grab.php?file=a.zip")
	require.NoError(t, err)
	assert.Equal(t, "archive-bytes", string(body))
}

func TestClientRateLimited(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(1, 300*time.Millisecond)
	client := NewClient(DefaultBaseURL, testUserAgent, 10*time.Second, limiter, logger.NewNopLogger())

	transport := httpmock.NewMockTransport()
	client.httpClient.Transport = transport
	transport.RegisterResponder("GET", "http://droidz.org/stickmain/",
		httpmock.NewStringResponder(200, "ok"))

	start := time.Now()
	_, err := client.FetchHome()
	require.NoError(t, err)
	_, err = client.FetchHome()
	require.NoError(t, err)

	if elapsed := time.Since(start); elapsed < 250*time.Millisecond {
		t.Errorf("Expected the second fetch to be rate limited, both completed in %v", elapsed)
	}
}

func TestClientScrapeDetail(t *testing.T) {
	client, transport := newTestClient(t)

	transport.RegisterResponder("GET", "http://droidz.org/direct/101",
		httpmock.NewStringResponder(200, detailPage("Alice", "Alice says, Hello.", "<br/>")))

	stick, err := client.ScrapeDetail("101")
	require.NoError(t, err)
	assert.Equal(t, "101", stick.ID)
	assert.Equal(t, "Super Stickman", stick.Name)
}
