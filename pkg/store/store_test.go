package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stickscraper/pkg/droidz"
	"stickscraper/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "sticks.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func completeStick(id string) *droidz.Stick {
	description := "A test stick."
	retrieved := time.Now().UTC().Truncate(time.Second)

	return &droidz.Stick{
		ID:           id,
		Name:         "Test Stick " + id,
		Description:  &description,
		Date:         time.Date(2008, time.January, 15, 0, 0, 0, 0, time.UTC),
		Author:       "Alice",
		DownloadLink: "/resources/grab.php?file=" + id + ".zip",
		Category:     "Weapons",
		Downloads:    120,
		Version:      "1.0",
		VoteScore:    3,
		UsageRating:  "Free to use",
		Retrieved:    &retrieved,
	}
}

func TestInsertStubIdempotent(t *testing.T) {
	s := newTestStore(t)

	status, err := s.InsertStub("100")
	require.NoError(t, err)
	assert.True(t, status.IsNew)
	assert.Equal(t, "100", status.ID)

	// Second insert of the same id reports not-new and leaves one row
	status, err = s.InsertStub("100")
	require.NoError(t, err)
	assert.False(t, status.IsNew)

	ids, err := s.AllIDs()
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, ids)
}

func TestInsertStubs(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertStub("2")
	require.NoError(t, err)

	require.NoError(t, s.InsertStubs([]string{"1", "2", "3", "1"}))

	ids, err := s.AllIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2", "3"}, ids)
}

func TestUpsertRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := completeStick("100")
	require.NoError(t, s.UpsertStick(want))

	got, err := s.GetStick("100")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestUpsertOverwritesInPlace(t *testing.T) {
	s := newTestStore(t)

	first := completeStick("100")
	require.NoError(t, s.UpsertStick(first))

	second := completeStick("100")
	second.Downloads = 140
	second.VoteScore = -2
	later := first.Retrieved.Add(time.Hour)
	second.Retrieved = &later
	require.NoError(t, s.UpsertStick(second))

	got, err := s.GetStick("100")
	require.NoError(t, err)
	assert.Equal(t, 140, got.Downloads)
	assert.Equal(t, -2, got.VoteScore)
	assert.Equal(t, later, *got.Retrieved)

	ids, err := s.AllIDs()
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestStubToCompleteTransition(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertStub("100")
	require.NoError(t, err)

	stub, err := s.GetStick("100")
	require.NoError(t, err)
	assert.True(t, stub.IsStub())

	needing, err := s.IDsNeedingDetail()
	require.NoError(t, err)
	assert.Equal(t, []string{"100"}, needing)

	require.NoError(t, s.UpsertStick(completeStick("100")))

	complete, err := s.GetStick("100")
	require.NoError(t, err)
	assert.False(t, complete.IsStub())

	needing, err = s.IDsNeedingDetail()
	require.NoError(t, err)
	assert.Empty(t, needing)
}

func TestNullDescriptionRoundTrip(t *testing.T) {
	s := newTestStore(t)

	want := completeStick("100")
	want.Description = nil
	require.NoError(t, s.UpsertStick(want))

	got, err := s.GetStick("100")
	require.NoError(t, err)
	assert.Nil(t, got.Description)
}

func TestIDsByRetrieved(t *testing.T) {
	s := newTestStore(t)

	base := time.Now().UTC().Truncate(time.Second)

	newest := completeStick("3")
	newest.Retrieved = &base
	older := completeStick("1")
	olderTime := base.Add(-2 * time.Hour)
	older.Retrieved = &olderTime
	middle := completeStick("2")
	middleTime := base.Add(-1 * time.Hour)
	middle.Retrieved = &middleTime

	require.NoError(t, s.UpsertStick(newest))
	require.NoError(t, s.UpsertStick(older))
	require.NoError(t, s.UpsertStick(middle))

	// One stub; null retrieved sorts first so interrupted crawls resume
	// with undetailed sticks
	_, err := s.InsertStub("4")
	require.NoError(t, err)

	ids, err := s.IDsByRetrieved()
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "1", "2", "3"}, ids)
}

func TestDownloadLink(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.UpsertStick(completeStick("100")))

	link, err := s.DownloadLink("100")
	require.NoError(t, err)
	assert.Equal(t, "/resources/grab.php?file=100.zip", link)
}

func TestDownloadLinkNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.DownloadLink("999")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "expected a not-found error, got %v", err)
}

func TestDownloadLinkStub(t *testing.T) {
	s := newTestStore(t)

	_, err := s.InsertStub("100")
	require.NoError(t, err)

	// A stub has no link yet
	_, err = s.DownloadLink("100")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "expected a not-found error, got %v", err)
}

func TestGetStickNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetStick("999")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "expected a not-found error, got %v", err)
}
