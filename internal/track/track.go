// Package track holds the in-memory representation of one archived audio file
// and the content identity derived from its metadata.
package track

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/tags"
)

// UnknownArtist is used when the file carries no artist tag.
const UnknownArtist = "<Inconnu>"

var (
	// ErrInvalidField is returned when a track would be built with an empty
	// title or artist, a non-positive duration, a malformed id or a missing file.
	ErrInvalidField = errors.New("invalid track field")

	// ErrExtraction is returned when the metadata extractor cannot read the file as audio.
	ErrExtraction = errors.New("metadata extraction failed")
)

// Extractor reads metadata from an audio file.
type Extractor func(path string) (*tags.Metadata, error)

// Track is one audio asset known to the library.
// Values are immutable once built; WithPath returns a relocated copy.
type Track struct {
	ID       uuid.UUID
	Title    string
	Artist   string
	Duration float64 // seconds
	Path     string
}

// Row is the persisted tuple for a track.
type Row struct {
	ID       string
	Title    string
	Artist   string
	Duration float64
	Path     string
}

// FromFile builds a track from a real audio file, extracting its metadata
// and computing its identity.
func FromFile(path string, extract Extractor) (*Track, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: path %s: %w", ErrInvalidField, path, err)
	}

	meta, err := extract(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrExtraction, path, err)
	}

	artist := meta.Artist
	if artist == "" {
		artist = UnknownArtist
	}
	title := meta.Title
	if title == "" {
		title = stem(path)
	}

	t := &Track{
		ID:       ComputeID(artist, title, meta.Duration),
		Title:    title,
		Artist:   artist,
		Duration: meta.Duration,
		Path:     path,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// FromRow rebuilds a track from its persisted tuple. The stored id is kept as is.
// The file itself is not checked; callers cross-reference the archive listing.
func FromRow(r Row) (*Track, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q: %w", ErrInvalidField, r.ID, err)
	}
	t := &Track{
		ID:       id,
		Title:    r.Title,
		Artist:   r.Artist,
		Duration: r.Duration,
		Path:     r.Path,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the field invariants.
func (t *Track) Validate() error {
	switch {
	case t.ID == uuid.Nil:
		return fmt.Errorf("%w: empty id", ErrInvalidField)
	case t.Title == "":
		return fmt.Errorf("%w: empty title", ErrInvalidField)
	case t.Artist == "":
		return fmt.Errorf("%w: empty artist", ErrInvalidField)
	case !(t.Duration > 0):
		return fmt.Errorf("%w: duration %v", ErrInvalidField, t.Duration)
	case t.Path == "":
		return fmt.Errorf("%w: empty path", ErrInvalidField)
	}
	return nil
}

// WithPath returns a copy of the track located at path.
func (t *Track) WithPath(path string) *Track {
	c := *t
	c.Path = path
	return &c
}

// Row returns the persisted tuple for the track.
func (t *Track) Row() Row {
	return Row{
		ID:       t.ID.String(),
		Title:    t.Title,
		Artist:   t.Artist,
		Duration: t.Duration,
		Path:     t.Path,
	}
}

// FormatDuration renders the duration as MM:SS, or HH:MM:SS past one hour.
func (t *Track) FormatDuration() string {
	total := int(t.Duration)
	if total <= 0 {
		return "--:--"
	}
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h == 0 {
		return fmt.Sprintf("%02d:%02d", m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
