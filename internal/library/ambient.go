package library

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/track"
)

// AmbientTracks returns the ambient tracks ordered by title.
func (e *Engine) AmbientTracks() []*track.Track {
	return sortedTracks(e.ambient)
}

// SelectedAmbientTrack returns the selected ambient track, if any.
func (e *Engine) SelectedAmbientTrack() (*track.Track, bool) {
	if e.selectedAmbient == uuid.Nil {
		return nil, false
	}
	t, ok := e.ambient[e.selectedAmbient]
	return t, ok
}

// SetSelectedAmbientTrack selects an ambient track. uuid.Nil clears the selection.
func (e *Engine) SetSelectedAmbientTrack(id uuid.UUID) error {
	if id != uuid.Nil {
		if _, ok := e.ambient[id]; !ok {
			return fmt.Errorf("%w: ambient %s", ErrTrackNotFound, id)
		}
	}
	e.selectedAmbient = id
	return nil
}

// AddAmbientTrack ingests src into the ambient archive. Same-identity tracks
// already in the ambient set are returned without copying.
func (e *Engine) AddAmbientTrack(src string) (*track.Track, error) {
	if !e.started {
		return nil, ErrNotStarted
	}
	return e.addTo(src, e.paths.AmbientDir, e.ambient)
}
