package library

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/store"
)

// CreatePlaylist registers a new empty playlist. It is listed right away;
// a playlist that is never changed reaches the store only through
// PersistPlaylist.
func (e *Engine) CreatePlaylist(name string) *playlist.Playlist {
	p := playlist.New(name)
	e.playlists[p.ID] = p
	e.log.Info().Str("playlist", p.ID.String()).Str("name", p.Name).Msg("playlist created")
	return p
}

// PersistPlaylist writes a playlist row and its membership to the store
// right away.
func (e *Engine) PersistPlaylist(id uuid.UUID) error {
	if !e.started {
		return ErrNotStarted
	}
	p, err := e.playlist(id)
	if err != nil {
		return err
	}
	if err := e.writePlaylist(p); err != nil {
		return fmt.Errorf("persist playlist %s: %w", id, err)
	}
	return nil
}

// writePlaylist upserts the row of p and replaces its membership rows.
// Failures are logged under the failing store operation.
func (e *Engine) writePlaylist(p *playlist.Playlist) error {
	if err := e.store.UpsertPlaylist(playlistRow(p)); err != nil {
		e.persistErr("UpsertPlaylist", err)
		return err
	}
	songs := p.Songs()
	ids := make([]string, len(songs))
	for i, s := range songs {
		ids[i] = s.String()
	}
	if err := e.store.SetPlaylistSongs(p.ID.String(), ids); err != nil {
		e.persistErr("SetPlaylistSongs", err)
		return err
	}
	return nil
}

// Playlist returns a resident playlist. Callers must not mutate it directly.
func (e *Engine) Playlist(id uuid.UUID) (*playlist.Playlist, bool) {
	p, ok := e.playlists[id]
	return p, ok
}

// Playlists returns every playlist in creation order.
func (e *Engine) Playlists() []*playlist.Playlist {
	out := make([]*playlist.Playlist, 0, len(e.playlists))
	for _, p := range e.playlists {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *playlist.Playlist) int {
		return cmp.Or(
			a.CreatedAt.Compare(b.CreatedAt),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return out
}

// FindPlaylist returns the first playlist, in creation order, named name.
func (e *Engine) FindPlaylist(name string) (*playlist.Playlist, bool) {
	for _, p := range e.Playlists() {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

func (e *Engine) playlist(id uuid.UUID) (*playlist.Playlist, error) {
	p, ok := e.playlists[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, id)
	}
	return p, nil
}

// AddSong inserts a resident track at index, appending when index is
// negative or past the end.
func (e *Engine) AddSong(playlistID, trackID uuid.UUID, index int) error {
	p, err := e.playlist(playlistID)
	if err != nil {
		return err
	}
	if _, ok := e.tracks[trackID]; !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, trackID)
	}
	p.Add(trackID, index)
	return nil
}

// AddFile ingests src and inserts the resulting track at index.
func (e *Engine) AddFile(playlistID uuid.UUID, src string, index int) error {
	if _, err := e.playlist(playlistID); err != nil {
		return err
	}
	t, err := e.AddTrack(src)
	if err != nil {
		return err
	}
	return e.AddSong(playlistID, t.ID, index)
}

// RemoveSongAt removes the entry at index. It reports whether anything changed.
func (e *Engine) RemoveSongAt(playlistID uuid.UUID, index int) (bool, error) {
	p, err := e.playlist(playlistID)
	if err != nil {
		return false, err
	}
	return p.Remove(index), nil
}

// RemoveAllInstances removes every entry for trackID and returns how many were removed.
func (e *Engine) RemoveAllInstances(playlistID, trackID uuid.UUID) (int, error) {
	p, err := e.playlist(playlistID)
	if err != nil {
		return 0, err
	}
	return p.RemoveAll(trackID), nil
}

// ShiftUp swaps the entry at index with the previous one.
func (e *Engine) ShiftUp(playlistID uuid.UUID, index int) (bool, error) {
	p, err := e.playlist(playlistID)
	if err != nil {
		return false, err
	}
	return p.ShiftUp(index), nil
}

// ShiftDown swaps the entry at index with the next one.
func (e *Engine) ShiftDown(playlistID uuid.UUID, index int) (bool, error) {
	p, err := e.playlist(playlistID)
	if err != nil {
		return false, err
	}
	return p.ShiftDown(index), nil
}

// RenamePlaylist changes a playlist name.
func (e *Engine) RenamePlaylist(playlistID uuid.UUID, name string) error {
	p, err := e.playlist(playlistID)
	if err != nil {
		return err
	}
	p.Rename(name)
	return nil
}

// DeletePlaylist removes a playlist from the store and from memory.
// The in-memory copy is dropped even if the store fails.
func (e *Engine) DeletePlaylist(playlistID uuid.UUID) error {
	if _, err := e.playlist(playlistID); err != nil {
		return err
	}
	delete(e.playlists, playlistID)

	if !e.started {
		return nil
	}
	if err := e.store.DeletePlaylist(playlistID.String()); err != nil {
		e.persistErr("DeletePlaylist", err)
		return fmt.Errorf("delete playlist %s: %w", playlistID, err)
	}
	e.log.Info().Str("playlist", playlistID.String()).Msg("playlist deleted")
	return nil
}

func playlistRow(p *playlist.Playlist) store.PlaylistRow {
	return store.PlaylistRow{
		ID:        p.ID.String(),
		Name:      p.Name,
		CreatedAt: store.Timestamp(p.CreatedAt),
	}
}
