// Package store persists sticks in a local sqlite database.
//
// The database is the single source of truth for crawl state: a row with a
// null retrieved column is a stub awaiting its detail scrape, and the
// retrieved ordering doubles as the full-update priority queue. All writes
// go through one mutex so concurrent fetch workers can never interleave
// partial updates.
package store
