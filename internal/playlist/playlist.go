package playlist

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Playlist holds an ordered sequence of track ids.
// The same track may appear several times.
type Playlist struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time

	songs []uuid.UUID
	dirty bool
}

// New creates an empty playlist with a fresh random id.
// An empty name is replaced by a generated one.
func New(name string) *Playlist {
	id := uuid.New()
	if name == "" {
		name = DefaultName(id)
	}
	return &Playlist{
		ID:        id,
		Name:      name,
		CreatedAt: time.Now(),
		songs:     make([]uuid.UUID, 0),
	}
}

// Restore rebuilds a persisted playlist. It starts clean.
func Restore(id uuid.UUID, name string, createdAt time.Time) *Playlist {
	return &Playlist{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
		songs:     make([]uuid.UUID, 0),
	}
}

// DefaultName returns the placeholder name for a playlist id.
func DefaultName(id uuid.UUID) string {
	return "Playlist_" + id.String()[:8]
}

// Dirty reports whether the playlist changed since it was built.
// The flag is never reset, so a playlist touched once is written on every save.
func (p *Playlist) Dirty() bool {
	return p.dirty
}

// Rename changes the playlist name.
func (p *Playlist) Rename(name string) {
	if name == "" {
		name = DefaultName(p.ID)
	}
	p.Name = name
	p.dirty = true
}

// Add inserts a track id at index, or appends it when index is negative or
// past the end.
func (p *Playlist) Add(id uuid.UUID, index int) {
	if index < 0 || index >= len(p.songs) {
		p.songs = append(p.songs, id)
	} else {
		p.songs = slices.Insert(p.songs, index, id)
	}
	p.dirty = true
}

// Load appends persisted membership in stored order without marking the playlist dirty.
func (p *Playlist) Load(ids ...uuid.UUID) {
	p.songs = append(p.songs, ids...)
}

// Remove removes the track at the given index.
// Returns false if index is out of bounds.
func (p *Playlist) Remove(index int) bool {
	if index < 0 || index >= len(p.songs) {
		return false
	}
	p.songs = slices.Delete(p.songs, index, index+1)
	p.dirty = true
	return true
}

// RemoveAll removes every occurrence of id and returns how many were removed.
func (p *Playlist) RemoveAll(id uuid.UUID) int {
	before := len(p.songs)
	p.songs = slices.DeleteFunc(p.songs, func(s uuid.UUID) bool { return s == id })
	removed := before - len(p.songs)
	if removed > 0 {
		p.dirty = true
	}
	return removed
}

// ShiftUp swaps the track at index with the one before it.
// Returns false at the start of the sequence or when index is out of bounds.
func (p *Playlist) ShiftUp(index int) bool {
	if index <= 0 || index >= len(p.songs) {
		return false
	}
	p.songs[index-1], p.songs[index] = p.songs[index], p.songs[index-1]
	p.dirty = true
	return true
}

// ShiftDown swaps the track at index with the one after it.
// Returns false at the end of the sequence or when index is out of bounds.
func (p *Playlist) ShiftDown(index int) bool {
	if index < 0 || index >= len(p.songs)-1 {
		return false
	}
	p.songs[index], p.songs[index+1] = p.songs[index+1], p.songs[index]
	p.dirty = true
	return true
}

// Song returns the track id at index.
func (p *Playlist) Song(index int) (uuid.UUID, bool) {
	if index < 0 || index >= len(p.songs) {
		return uuid.Nil, false
	}
	return p.songs[index], true
}

// Songs returns a copy of the track ids in order.
func (p *Playlist) Songs() []uuid.UUID {
	return slices.Clone(p.songs)
}

// Contains reports whether id appears in the playlist.
func (p *Playlist) Contains(id uuid.UUID) bool {
	return slices.Contains(p.songs, id)
}

// Len returns the number of entries.
func (p *Playlist) Len() int {
	return len(p.songs)
}

// IsEmpty returns true if the playlist has no entries.
func (p *Playlist) IsEmpty() bool {
	return len(p.songs) == 0
}
