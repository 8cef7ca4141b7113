package store

import (
	"database/sql"
	"slices"

	"github.com/llehouerou/liveset/internal/track"
)

// Mock is an in-memory test double for Store.
// Operations named in Fail return the mapped error instead of running.
type Mock struct {
	tracks    map[string]track.Row
	playlists map[string]PlaylistRow
	songs     map[string][]string
	ambient   map[string]AmbientRow
	closed    bool

	Fail  map[string]error
	Calls []string
}

// NewMock creates an empty mock store.
func NewMock() *Mock {
	return &Mock{
		tracks:    make(map[string]track.Row),
		playlists: make(map[string]PlaylistRow),
		songs:     make(map[string][]string),
		ambient:   make(map[string]AmbientRow),
		Fail:      make(map[string]error),
	}
}

func (m *Mock) call(op string) error {
	m.Calls = append(m.Calls, op)
	return m.Fail[op]
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) InsertTrack(r track.Row) error {
	if err := m.call("InsertTrack"); err != nil {
		return err
	}
	if _, ok := m.tracks[r.ID]; !ok {
		m.tracks[r.ID] = r
	}
	return nil
}

func (m *Mock) Tracks() ([]track.Row, error) {
	if err := m.call("Tracks"); err != nil {
		return nil, err
	}
	return sortedValues(m.tracks), nil
}

func (m *Mock) ReplaceTracks(rows []track.Row) error {
	if err := m.call("ReplaceTracks"); err != nil {
		return err
	}
	m.tracks = make(map[string]track.Row, len(rows))
	for _, r := range rows {
		m.tracks[r.ID] = r
	}
	return nil
}

func (m *Mock) UpsertPlaylist(r PlaylistRow) error {
	if err := m.call("UpsertPlaylist"); err != nil {
		return err
	}
	m.playlists[r.ID] = r
	return nil
}

func (m *Mock) Playlists() ([]PlaylistRow, error) {
	if err := m.call("Playlists"); err != nil {
		return nil, err
	}
	return sortedValues(m.playlists), nil
}

func (m *Mock) PlaylistSongs(playlistID string) ([]string, error) {
	if err := m.call("PlaylistSongs"); err != nil {
		return nil, err
	}
	return slices.Clone(m.songs[playlistID]), nil
}

func (m *Mock) SetPlaylistSongs(playlistID string, songIDs []string) error {
	if err := m.call("SetPlaylistSongs"); err != nil {
		return err
	}
	m.songs[playlistID] = slices.Clone(songIDs)
	return nil
}

func (m *Mock) DeletePlaylist(id string) error {
	if err := m.call("DeletePlaylist"); err != nil {
		return err
	}
	delete(m.playlists, id)
	delete(m.songs, id)
	return nil
}

func (m *Mock) AmbientCount() (int, error) {
	if err := m.call("AmbientCount"); err != nil {
		return 0, err
	}
	return len(m.ambient), nil
}

func (m *Mock) InsertAmbient(r AmbientRow) error {
	if err := m.call("InsertAmbient"); err != nil {
		return err
	}
	if _, ok := m.ambient[r.ID]; !ok {
		m.ambient[r.ID] = r
	}
	return nil
}

func (m *Mock) UpsertAmbient(rows []AmbientRow) error {
	if err := m.call("UpsertAmbient"); err != nil {
		return err
	}
	for _, r := range rows {
		m.ambient[r.ID] = r
	}
	return nil
}

func (m *Mock) AmbientTracks() ([]AmbientRow, error) {
	if err := m.call("AmbientTracks"); err != nil {
		return nil, err
	}
	return sortedValues(m.ambient), nil
}

func (m *Mock) Close() error {
	m.closed = true
	return m.call("Close")
}

// Test helpers

func (m *Mock) IsClosed() bool { return m.closed }

func (m *Mock) TrackRows() []track.Row { return sortedValues(m.tracks) }

func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
