package store

import (
	"database/sql"

	dbutil "github.com/llehouerou/liveset/internal/db"
	"github.com/llehouerou/liveset/internal/track"
)

// InsertTrack stores a track row, ignoring it if the id or path already exists.
func (s *Store) InsertTrack(r track.Row) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO tracks (id, title, artist, duration, file_path)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Title, r.Artist, r.Duration, r.Path)
	return err
}

// Tracks returns every track row.
func (s *Store) Tracks() ([]track.Row, error) {
	return queryTrackRows(s.db, `SELECT id, title, artist, duration, file_path FROM tracks`)
}

// ReplaceTracks deletes every track row and inserts rows in one batch.
func (s *Store) ReplaceTracks(rows []track.Row) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM tracks`); err != nil {
			return err
		}
		args := make([][]any, 0, len(rows))
		for _, r := range rows {
			args = append(args, []any{r.ID, r.Title, r.Artist, r.Duration, r.Path})
		}
		return dbutil.ExecEach(tx, `
			INSERT OR IGNORE INTO tracks (id, title, artist, duration, file_path)
			VALUES (?, ?, ?, ?, ?)
		`, args)
	})
}

func queryTrackRows(db *sql.DB, query string, args ...any) ([]track.Row, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []track.Row
	for rows.Next() {
		var r track.Row
		if err := rows.Scan(&r.ID, &r.Title, &r.Artist, &r.Duration, &r.Path); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
