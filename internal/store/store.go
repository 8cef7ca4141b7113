// Package store persists tracks, playlists, playlist membership and ambient
// tracks in a SQLite database.
package store

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is the SQLite-backed durable store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and initializes the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Single writer; also keeps PRAGMA settings on the one connection.
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

// DB returns the underlying database handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Timestamp converts t to fractional unix seconds as stored in creation_timestamp.
func Timestamp(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

// FromTimestamp converts fractional unix seconds back to a time.
func FromTimestamp(ts float64) time.Time {
	sec, frac := math.Modf(ts)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9)))
}
