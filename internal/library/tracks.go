package library

import (
	"cmp"
	"fmt"
	"os"
	"slices"

	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/archive"
	"github.com/llehouerou/liveset/internal/tags"
	"github.com/llehouerou/liveset/internal/track"
)

// AddTrack ingests src into the main archive and returns the resident track.
// A track with the same identity already resident is returned as is, without
// copying. The track is written to the store on Stop, or by PersistTrack.
func (e *Engine) AddTrack(src string) (*track.Track, error) {
	if !e.started {
		return nil, ErrNotStarted
	}
	return e.addTo(src, e.paths.Archive, e.tracks)
}

func (e *Engine) addTo(src, dir string, into map[uuid.UUID]*track.Track) (*track.Track, error) {
	candidate, err := e.candidate(src)
	if err != nil {
		return nil, err
	}
	if existing, ok := into[candidate.ID]; ok {
		e.log.Debug().Str("file", src).Str("id", existing.ID.String()).Msg("track already in library")
		return existing, nil
	}
	t, err := e.copyInto(candidate, dir)
	if err != nil {
		return nil, err
	}
	into[t.ID] = t
	e.log.Info().Str("id", t.ID.String()).Str("title", t.Title).Str("artist", t.Artist).Msg("track added")
	return t, nil
}

// candidate builds a track for src without touching the archive.
func (e *Engine) candidate(src string) (*track.Track, error) {
	if !tags.IsMusicFile(src) {
		return nil, fmt.Errorf("%w: %s", archive.ErrNotFound, src)
	}
	if info, err := os.Stat(src); err != nil || !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", archive.ErrNotFound, src)
	}
	return track.FromFile(src, e.extract)
}

func (e *Engine) copyInto(t *track.Track, dir string) (*track.Track, error) {
	target, err := archive.Ingest(t.Path, dir, t.ID)
	if err != nil {
		return nil, err
	}
	return t.WithPath(target), nil
}

// ingest builds and copies src into dir without registering it anywhere.
func (e *Engine) ingest(src, dir string) (*track.Track, error) {
	t, err := e.candidate(src)
	if err != nil {
		return nil, err
	}
	return e.copyInto(t, dir)
}

// PersistTrack writes a resident track to the store right away.
func (e *Engine) PersistTrack(id uuid.UUID) error {
	if !e.started {
		return ErrNotStarted
	}
	t, ok := e.tracks[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrTrackNotFound, id)
	}
	if err := e.store.InsertTrack(e.rowIn(t, e.paths.Archive)); err != nil {
		e.persistErr("InsertTrack", err)
		return fmt.Errorf("persist track %s: %w", id, err)
	}
	return nil
}

// Track returns a resident track.
func (e *Engine) Track(id uuid.UUID) (*track.Track, bool) {
	t, ok := e.tracks[id]
	return t, ok
}

// Tracks returns every resident track ordered by title, then artist.
func (e *Engine) Tracks() []*track.Track {
	return sortedTracks(e.tracks)
}

func sortedTracks(m map[uuid.UUID]*track.Track) []*track.Track {
	out := make([]*track.Track, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *track.Track) int {
		return cmp.Or(
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.Artist, b.Artist),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return out
}
