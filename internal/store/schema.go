package store

import (
	"database/sql"
)

const currentSchemaVersion = 1

// Foreign keys stay declared but unenforced: membership rows are written
// before the tracks table is rebuilt on shutdown.
func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
		PRAGMA foreign_keys = OFF;

		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		);

		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			duration REAL NOT NULL,
			file_path TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS playlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			creation_timestamp REAL NOT NULL
		);

		CREATE TABLE IF NOT EXISTS playlist_songs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			playlist_id TEXT NOT NULL REFERENCES playlists(id),
			song_id TEXT NOT NULL REFERENCES tracks(id),
			position INTEGER NOT NULL,
			UNIQUE(playlist_id, song_id, position)
		);

		CREATE INDEX IF NOT EXISTS idx_playlist_songs_playlist ON playlist_songs(playlist_id, position);

		CREATE TABLE IF NOT EXISTS ambient_tracks (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL,
			duration REAL NOT NULL,
			file_path TEXT NOT NULL UNIQUE,
			selected INTEGER NOT NULL DEFAULT 0 CHECK (selected IN (0, 1))
		);
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT OR IGNORE INTO schema_version (version) VALUES (?)
	`, currentSchemaVersion)
	return err
}
