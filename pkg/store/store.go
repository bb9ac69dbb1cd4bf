package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"stickscraper/pkg/droidz"
	"stickscraper/pkg/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS sticks(
	id TEXT PRIMARY KEY NOT NULL,
	name TEXT,
	description TEXT,
	date INT,
	author TEXT,
	download_link TEXT,
	category TEXT,
	downloads INT,
	version TEXT,
	vote_score INT,
	usage_rating TEXT,
	retrieved INT
);
CREATE INDEX IF NOT EXISTS index_sticks_id ON sticks(id);
`

// CrawlStatus pairs a stick ID with whether it was newly inserted. The
// orchestrator uses it to decide if the latest panel covered everything.
type CrawlStatus struct {
	ID    string
	IsNew bool
}

// Store is the single-writer table of sticks.
//
// All writes are serialized through a mutex; sqlite has no meaningful
// write concurrency and the crawl's correctness depends on one writer.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the stick database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single connection keeps sqlite happy under concurrent readers
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertStub inserts a bare row for id if absent and reports whether it
// was new. Calling it again with the same id is a no-op.
func (s *Store) InsertStub(id string) (CrawlStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertStub(s.db, id)
}

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func (s *Store) insertStub(tx execer, id string) (CrawlStatus, error) {
	var exists int
	err := tx.QueryRow(`SELECT 1 FROM sticks WHERE id = ?`, id).Scan(&exists)
	if err == nil {
		return CrawlStatus{ID: id, IsNew: false}, nil
	}
	if err != sql.ErrNoRows {
		return CrawlStatus{}, fmt.Errorf("check stick %s: %w", id, err)
	}

	if _, err := tx.Exec(`INSERT INTO sticks(id) VALUES(?)`, id); err != nil {
		return CrawlStatus{}, fmt.Errorf("insert stub %s: %w", id, err)
	}

	return CrawlStatus{ID: id, IsNew: true}, nil
}

// InsertStubs inserts bare rows for all ids in one transaction, so an
// interrupted crawl never leaves half a listing page behind.
func (s *Store) InsertStubs(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin stub batch: %w", err)
	}

	for _, id := range ids {
		if _, err := s.insertStub(tx, id); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

// UpsertStick writes a complete stick record, overwriting every mutable
// field if the row exists and inserting it otherwise. This is the stub to
// complete transition.
func (s *Store) UpsertStick(stick *droidz.Stick) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO sticks(id, name, description, date, author, download_link,
			category, downloads, version, vote_score, usage_rating, retrieved)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			date = excluded.date,
			author = excluded.author,
			download_link = excluded.download_link,
			category = excluded.category,
			downloads = excluded.downloads,
			version = excluded.version,
			vote_score = excluded.vote_score,
			usage_rating = excluded.usage_rating,
			retrieved = excluded.retrieved`,
		stick.ID,
		stick.Name,
		nullString(stick.Description),
		stick.Date.Unix(),
		stick.Author,
		stick.DownloadLink,
		stick.Category,
		stick.Downloads,
		stick.Version,
		stick.VoteScore,
		stick.UsageRating,
		nullTime(stick.Retrieved),
	)
	if err != nil {
		return fmt.Errorf("upsert stick %s: %w", stick.ID, err)
	}

	return nil
}

// IDsNeedingDetail returns the ids of all stubs, i.e. rows that have never
// been detail-scraped.
func (s *Store) IDsNeedingDetail() ([]string, error) {
	return s.queryIDs(`SELECT id FROM sticks WHERE retrieved IS NULL`)
}

// IDsByRetrieved returns every known id, stalest first. Stubs (null
// retrieved) sort before everything else, so an interrupted full crawl
// picks up where it left off on the next run.
func (s *Store) IDsByRetrieved() ([]string, error) {
	return s.queryIDs(`SELECT id FROM sticks ORDER BY retrieved ASC`)
}

// AllIDs returns every known id
func (s *Store) AllIDs() ([]string, error) {
	return s.queryIDs(`SELECT id FROM sticks`)
}

func (s *Store) queryIDs(query string) ([]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// DownloadLink returns the archive URL recorded for id
func (s *Store) DownloadLink(id string) (string, error) {
	var link sql.NullString
	err := s.db.QueryRow(`SELECT download_link FROM sticks WHERE id = ?`, id).Scan(&link)
	if err == sql.ErrNoRows {
		return "", errors.NotFoundf("stick %s is not in the database", id)
	}
	if err != nil {
		return "", fmt.Errorf("query download link for %s: %w", id, err)
	}
	if !link.Valid || link.String == "" {
		return "", errors.NotFoundf("stick %s has no download link yet", id)
	}

	return link.String, nil
}

// GetStick reads back the full record for id
func (s *Store) GetStick(id string) (*droidz.Stick, error) {
	row := s.db.QueryRow(`
		SELECT id, name, description, date, author, download_link,
			category, downloads, version, vote_score, usage_rating, retrieved
		FROM sticks WHERE id = ?`, id)

	var (
		stick       droidz.Stick
		name        sql.NullString
		description sql.NullString
		date        sql.NullInt64
		author      sql.NullString
		link        sql.NullString
		category    sql.NullString
		downloads   sql.NullInt64
		version     sql.NullString
		voteScore   sql.NullInt64
		usageRating sql.NullString
		retrieved   sql.NullInt64
	)

	err := row.Scan(&stick.ID, &name, &description, &date, &author, &link,
		&category, &downloads, &version, &voteScore, &usageRating, &retrieved)
	if err == sql.ErrNoRows {
		return nil, errors.NotFoundf("stick %s is not in the database", id)
	}
	if err != nil {
		return nil, fmt.Errorf("query stick %s: %w", id, err)
	}

	stick.Name = name.String
	if description.Valid {
		stick.Description = &description.String
	}
	if date.Valid {
		stick.Date = time.Unix(date.Int64, 0).UTC()
	}
	stick.Author = author.String
	stick.DownloadLink = link.String
	stick.Category = category.String
	stick.Downloads = int(downloads.Int64)
	stick.Version = version.String
	stick.VoteScore = int(voteScore.Int64)
	stick.UsageRating = usageRating.String
	if retrieved.Valid {
		t := time.Unix(retrieved.Int64, 0).UTC()
		stick.Retrieved = &t
	}

	return &stick, nil
}

func nullString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Unix()
}
