package store

import (
	"database/sql"

	"github.com/llehouerou/liveset/internal/track"
)

// Interface defines the durable store contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB

	InsertTrack(r track.Row) error
	Tracks() ([]track.Row, error)
	ReplaceTracks(rows []track.Row) error

	UpsertPlaylist(r PlaylistRow) error
	Playlists() ([]PlaylistRow, error)
	PlaylistSongs(playlistID string) ([]string, error)
	SetPlaylistSongs(playlistID string, songIDs []string) error
	DeletePlaylist(id string) error

	AmbientCount() (int, error)
	InsertAmbient(r AmbientRow) error
	UpsertAmbient(rows []AmbientRow) error
	AmbientTracks() ([]AmbientRow, error)

	Close() error
}

// Verify Store implements Interface at compile time.
var _ Interface = (*Store)(nil)
