package store

import (
	"database/sql"

	dbutil "github.com/llehouerou/liveset/internal/db"
)

// PlaylistRow is the persisted tuple for a playlist.
type PlaylistRow struct {
	ID        string
	Name      string
	CreatedAt float64 // unix seconds
}

// UpsertPlaylist inserts the playlist row or updates its name and timestamp.
func (s *Store) UpsertPlaylist(r PlaylistRow) error {
	_, err := s.db.Exec(`
		INSERT INTO playlists (id, name, creation_timestamp)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			creation_timestamp = excluded.creation_timestamp
	`, r.ID, r.Name, r.CreatedAt)
	return err
}

// Playlists returns every playlist row, in no particular order.
func (s *Store) Playlists() ([]PlaylistRow, error) {
	rows, err := s.db.Query(`SELECT id, name, creation_timestamp FROM playlists`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PlaylistRow
	for rows.Next() {
		var r PlaylistRow
		if err := rows.Scan(&r.ID, &r.Name, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// PlaylistSongs returns the song ids of a playlist ordered by position.
func (s *Store) PlaylistSongs(playlistID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT song_id FROM playlist_songs
		WHERE playlist_id = ?
		ORDER BY position
	`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SetPlaylistSongs replaces the membership rows of a playlist.
// Positions are the zero-based indices in songIDs.
func (s *Store) SetPlaylistSongs(playlistID string, songIDs []string) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, playlistID)
		if err != nil {
			return err
		}

		args := make([][]any, 0, len(songIDs))
		for i, id := range songIDs {
			args = append(args, []any{playlistID, id, i})
		}
		return dbutil.ExecEach(tx, `
			INSERT OR IGNORE INTO playlist_songs (playlist_id, song_id, position)
			VALUES (?, ?, ?)
		`, args)
	})
}

// DeletePlaylist removes a playlist row and its membership rows.
func (s *Store) DeletePlaylist(id string) error {
	return dbutil.WithTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM playlist_songs WHERE playlist_id = ?`, id); err != nil {
			return err
		}
		_, err := tx.Exec(`DELETE FROM playlists WHERE id = ?`, id)
		return err
	})
}
