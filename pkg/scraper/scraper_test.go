package scraper

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickscraper/pkg/config"
	"stickscraper/pkg/droidz"
	"stickscraper/pkg/errors"
	"stickscraper/pkg/logger"
	"stickscraper/pkg/store"
)

// listingHTML renders a synthetic category listing page
func listingHTML(ids ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"listing\">")
	for _, id := range ids {
		fmt.Fprintf(&b, `<a href="/direct/%s">Stick %s</a>`, id, id)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// latestHTML renders a synthetic homepage with the latest panel
func latestHTML(ids ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><div class=\"panel\"><h2>Latest 50 Accepted Submissions</h2>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<a href="/direct/%s">Stick %s</a>`, id, id)
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

// mockSite is a SiteClient serving synthetic pages
type mockSite struct {
	home  string
	pages map[string][]string // category -> listing page HTML
	// pageFunc overrides pages when set
	pageFunc func(category string, page int) string
	details  map[string]*droidz.Stick
	failIDs  map[string]bool

	mu          sync.Mutex
	pageFetches int
	detailCalls []string
}

func (m *mockSite) FetchHome() ([]byte, error) {
	return []byte(m.home), nil
}

func (m *mockSite) FetchCategoryPage(category string, page int) ([]byte, error) {
	m.mu.Lock()
	m.pageFetches++
	m.mu.Unlock()

	if m.pageFunc != nil {
		return []byte(m.pageFunc(category, page)), nil
	}

	pages := m.pages[category]
	if len(pages) == 0 {
		return []byte(listingHTML()), nil
	}
	// The site repeats the last page for out-of-range page numbers
	if page > len(pages) {
		page = len(pages)
	}
	return []byte(pages[page-1]), nil
}

func (m *mockSite) ScrapeDetail(id string) (*droidz.Stick, error) {
	m.mu.Lock()
	m.detailCalls = append(m.detailCalls, id)
	m.mu.Unlock()

	if m.failIDs[id] {
		return nil, errors.Parsef("stick %s: info block missing", id)
	}

	stick, ok := m.details[id]
	if !ok {
		return nil, errors.Fetchf(404, "get /direct/%s: 404 Not Found", id)
	}

	copied := *stick
	retrieved := time.Now().UTC().Truncate(time.Second)
	copied.Retrieved = &retrieved
	return &copied, nil
}

func testStick(id string) *droidz.Stick {
	description := "Stick number " + id
	return &droidz.Stick{
		ID:           id,
		Name:         "Stick " + id,
		Description:  &description,
		Date:         time.Date(2008, time.January, 15, 0, 0, 0, 0, time.UTC),
		Author:       "Alice",
		DownloadLink: "/resources/grab.php?file=" + id + ".zip",
		Category:     "weapons",
		Downloads:    10,
		Version:      "1.0",
		VoteScore:    1,
		UsageRating:  "Free to use",
	}
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "sticks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func testConfig() config.UpdateConfig {
	return config.UpdateConfig{Threads: 1, MaxCategoryPages: 100}
}

func TestCrawlCategoryFixedPoint(t *testing.T) {
	site := &mockSite{
		pages: map[string][]string{
			"weapons": {
				listingHTML("1", "2"),
				listingHTML("2", "3"),
				// Page 3 repeats page 2, so traversal stops there
			},
		},
	}

	s := New(site, newTestStore(t), testConfig(), logger.NewNopLogger())

	ids, err := s.crawlCategory("weapons")
	require.NoError(t, err)

	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, 3, site.pageFetches, "expected traversal to stop on the first page with no new ids")
}

func TestCrawlCategoryPageCap(t *testing.T) {
	// A server that invents a new id on every page must not loop forever
	site := &mockSite{
		pageFunc: func(category string, page int) string {
			return listingHTML(fmt.Sprintf("%d", page))
		},
	}

	cfg := testConfig()
	cfg.MaxCategoryPages = 5
	s := New(site, newTestStore(t), cfg, logger.NewNopLogger())

	ids, err := s.crawlCategory("weapons")
	require.NoError(t, err)

	assert.Len(t, ids, 5)
	assert.Equal(t, 5, site.pageFetches)
}

func TestIncrementalUpdate(t *testing.T) {
	st := newTestStore(t)

	// Stick 3 is already known and complete
	known := testStick("3")
	retrieved := time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC)
	known.Retrieved = &retrieved
	require.NoError(t, st.UpsertStick(known))

	site := &mockSite{
		home: latestHTML("5", "4", "3"),
		details: map[string]*droidz.Stick{
			"5": testStick("5"),
			"4": testStick("4"),
		},
	}

	s := New(site, st, testConfig(), logger.NewNopLogger())
	require.NoError(t, s.IncrementalUpdate(1))

	// 5 and 4 were inserted and detailed, 3 was left alone
	for _, id := range []string{"5", "4"} {
		stick, err := st.GetStick(id)
		require.NoError(t, err)
		assert.False(t, stick.IsStub(), "stick %s should be complete", id)
	}

	unchanged, err := st.GetStick("3")
	require.NoError(t, err)
	assert.Equal(t, retrieved, *unchanged.Retrieved, "known stick must not be re-scraped")

	assert.ElementsMatch(t, []string{"5", "4"}, site.detailCalls)
	assert.Equal(t, 0, site.pageFetches, "latest panel covered everything, categories must not be traversed")
}

func TestIncrementalUpdateNothingNew(t *testing.T) {
	st := newTestStore(t)

	known := testStick("3")
	retrieved := time.Now().UTC().Truncate(time.Second)
	known.Retrieved = &retrieved
	require.NoError(t, st.UpsertStick(known))

	site := &mockSite{home: latestHTML("3")}

	s := New(site, st, testConfig(), logger.NewNopLogger())
	require.NoError(t, s.IncrementalUpdate(1))

	assert.Empty(t, site.detailCalls)
	assert.Equal(t, 0, site.pageFetches)
}

func TestIncrementalUpdateOverflow(t *testing.T) {
	st := newTestStore(t)

	// Every id in the panel is new, so the panel may have overflowed and
	// the categories are checked too
	details := map[string]*droidz.Stick{
		"9": testStick("9"),
		"8": testStick("8"),
		"7": testStick("7"),
	}
	site := &mockSite{
		home: latestHTML("9", "8"),
		pages: map[string][]string{
			"weapons": {listingHTML("9", "7")},
		},
		details: details,
	}

	s := New(site, st, testConfig(), logger.NewNopLogger())
	require.NoError(t, s.IncrementalUpdate(1))

	assert.Greater(t, site.pageFetches, 0, "expected category traversal after an all-new panel")

	for id := range details {
		stick, err := st.GetStick(id)
		require.NoError(t, err)
		assert.False(t, stick.IsStub(), "stick %s should be complete", id)
	}
}

func TestIncrementalUpdateMissingPanel(t *testing.T) {
	site := &mockSite{home: `<html><body><h2>Something else</h2></body></html>`}

	s := New(site, newTestStore(t), testConfig(), logger.NewNopLogger())

	err := s.IncrementalUpdate(1)
	require.Error(t, err)
	assert.True(t, errors.IsParse(err), "expected a parse error, got %v", err)
}

func TestFullUpdate(t *testing.T) {
	st := newTestStore(t)

	// Two known sticks with different staleness
	stale := testStick("1")
	staleTime := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	stale.Retrieved = &staleTime
	require.NoError(t, st.UpsertStick(stale))

	fresh := testStick("2")
	freshTime := time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC)
	fresh.Retrieved = &freshTime
	require.NoError(t, st.UpsertStick(fresh))

	site := &mockSite{
		pages: map[string][]string{
			"weapons": {listingHTML("1", "2", "3")},
		},
		details: map[string]*droidz.Stick{
			"1": testStick("1"),
			"2": testStick("2"),
			"3": testStick("3"),
		},
	}

	s := New(site, st, testConfig(), logger.NewNopLogger())
	require.NoError(t, s.FullUpdate(1))

	// New stub first, then stalest first
	assert.Equal(t, []string{"3", "1", "2"}, site.detailCalls)

	for _, id := range []string{"1", "2", "3"} {
		stick, err := st.GetStick(id)
		require.NoError(t, err)
		require.NotNil(t, stick.Retrieved)
		assert.True(t, stick.Retrieved.After(freshTime), "stick %s should have been re-scraped", id)
	}
}

func TestDetailErrorAbortsSequentialBatch(t *testing.T) {
	st := newTestStore(t)

	site := &mockSite{
		home: latestHTML("5", "4"),
		details: map[string]*droidz.Stick{
			"5": testStick("5"),
		},
		failIDs: map[string]bool{"4": true},
	}

	s := New(site, st, testConfig(), logger.NewNopLogger())

	err := s.IncrementalUpdate(1)
	require.Error(t, err)
	assert.True(t, errors.IsParse(err), "expected a parse error, got %v", err)

	// The failing stick is still a stub, the row itself survives
	stick, err := st.GetStick("4")
	require.NoError(t, err)
	assert.True(t, stick.IsStub())
}

func TestConcurrentDispatchMatchesSequential(t *testing.T) {
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

	run := func(t *testing.T, threads int) *store.Store {
		st := newTestStore(t)
		require.NoError(t, st.InsertStubs(ids))

		details := make(map[string]*droidz.Stick, len(ids))
		for _, id := range ids {
			details[id] = testStick(id)
		}
		// First latest id already known, so no discovery happens
		site := &mockSite{home: latestHTML("1"), details: details}

		s := New(site, st, testConfig(), logger.NewNopLogger())
		require.NoError(t, s.IncrementalUpdate(threads))
		return st
	}

	sequential := run(t, 1)
	concurrent := run(t, 4)

	for _, id := range ids {
		want, err := sequential.GetStick(id)
		require.NoError(t, err)
		got, err := concurrent.GetStick(id)
		require.NoError(t, err)

		assert.False(t, got.IsStub(), "stick %s should be complete", id)

		// Retrieved is wall-clock dependent, compare everything else
		want.Retrieved = nil
		got.Retrieved = nil
		assert.Equal(t, want, got)
	}
}

func TestConcurrentDispatchSurfacesFirstError(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.InsertStubs([]string{"1", "2", "3", "4"}))

	details := map[string]*droidz.Stick{
		"1": testStick("1"),
		"2": testStick("2"),
		"4": testStick("4"),
	}
	site := &mockSite{home: latestHTML("1"), details: details, failIDs: map[string]bool{"3": true}}

	s := New(site, st, testConfig(), logger.NewNopLogger())

	err := s.IncrementalUpdate(4)
	require.Error(t, err)
	assert.True(t, errors.IsParse(err), "expected a parse error, got %v", err)
}
