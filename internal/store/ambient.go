package store

import (
	"database/sql"

	dbutil "github.com/llehouerou/liveset/internal/db"
	"github.com/llehouerou/liveset/internal/track"
)

// AmbientRow is a persisted ambient track with its selection flag.
type AmbientRow struct {
	track.Row
	Selected bool
}

// AmbientCount returns the number of ambient rows.
func (s *Store) AmbientCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ambient_tracks`).Scan(&n)
	return n, err
}

// InsertAmbient stores an ambient row, ignoring it if the id or path already exists.
func (s *Store) InsertAmbient(r AmbientRow) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO ambient_tracks (id, title, artist, duration, file_path, selected)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Title, r.Artist, r.Duration, r.Path, boolToInt(r.Selected))
	return err
}

// UpsertAmbient writes every row in one batch, updating existing ids.
func (s *Store) UpsertAmbient(rows []AmbientRow) error {
	args := make([][]any, 0, len(rows))
	for _, r := range rows {
		args = append(args, []any{r.ID, r.Title, r.Artist, r.Duration, r.Path, boolToInt(r.Selected)})
	}
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		return dbutil.ExecEach(tx, `
			INSERT INTO ambient_tracks (id, title, artist, duration, file_path, selected)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				artist = excluded.artist,
				duration = excluded.duration,
				file_path = excluded.file_path,
				selected = excluded.selected
		`, args)
	})
}

// AmbientTracks returns every ambient row.
func (s *Store) AmbientTracks() ([]AmbientRow, error) {
	rows, err := s.db.Query(`
		SELECT id, title, artist, duration, file_path, selected FROM ambient_tracks
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AmbientRow
	for rows.Next() {
		var r AmbientRow
		var selected int
		if err := rows.Scan(&r.ID, &r.Title, &r.Artist, &r.Duration, &r.Path, &selected); err != nil {
			return nil, err
		}
		r.Selected = selected != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
