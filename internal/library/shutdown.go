package library

import (
	"context"

	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/archive"
	"github.com/llehouerou/liveset/internal/store"
	"github.com/llehouerou/liveset/internal/track"
)

// Stop saves the working set and garbage-collects the main archive:
// dirty playlists are written, the tracks table is replaced by the tracks
// reachable from a playlist, ambient tracks are upserted, and archive files
// of unreachable tracks are deleted. Store failures are logged and skipped.
// Stop always runs to completion once started.
func (e *Engine) Stop() {
	if !e.started {
		return
	}

	retained := e.retained()

	for _, p := range e.Playlists() {
		if !p.Dirty() {
			continue
		}
		_ = e.writePlaylist(p)
	}

	rows := make([]track.Row, 0, len(retained))
	keep := make([]string, 0, len(retained))
	for _, t := range sortedTracks(retained) {
		rows = append(rows, e.rowIn(t, e.paths.Archive))
		keep = append(keep, t.Path)
	}
	if err := e.store.ReplaceTracks(rows); err != nil {
		e.persistErr("ReplaceTracks", err)
	}

	ambient := make([]store.AmbientRow, 0, len(e.ambient))
	for _, t := range sortedTracks(e.ambient) {
		ambient = append(ambient, store.AmbientRow{
			Row:      e.rowIn(t, e.paths.AmbientDir),
			Selected: t.ID == e.selectedAmbient,
		})
	}
	if err := e.store.UpsertAmbient(ambient); err != nil {
		e.persistErr("UpsertAmbient", err)
	}

	res := archive.Reconcile(e.paths.Archive, keep, e.log)

	dropped := len(e.tracks) - len(retained)
	e.tracks = retained
	if err := e.store.Close(); err != nil {
		e.persistErr("Close", err)
	}
	e.started = false

	e.log.Info().
		Int("retained", len(retained)).
		Int("dropped", dropped).
		Int("files_deleted", res.Deleted).
		Msg("library stopped")
}

// Shutdown runs Stop and waits for it until ctx is done. On timeout it
// returns ctx.Err() while Stop keeps running in the background; the caller
// must not touch the engine again.
func (e *Engine) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Stop()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		e.log.Error().Err(ctx.Err()).Msg("library shutdown timed out")
		return ctx.Err()
	}
}

// retained returns the resident tracks referenced by at least one playlist.
func (e *Engine) retained() map[uuid.UUID]*track.Track {
	out := make(map[uuid.UUID]*track.Track)
	for _, p := range e.playlists {
		for _, id := range p.Songs() {
			if t, ok := e.tracks[id]; ok {
				out[id] = t
			}
		}
	}
	return out
}
