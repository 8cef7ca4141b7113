// Package tags extracts the metadata the library needs from audio files:
// artist, title and duration. It supports the MP3, Ogg and FLAC containers.
package tags

import (
	"path/filepath"
	"strings"
	"time"
)

// File extensions accepted by the library.
const (
	ExtMP3  = ".mp3"
	ExtOGG  = ".ogg"
	ExtFLAC = ".flac"
)

// id3Magic is the magic bytes for ID3v2 header detection.
const id3Magic = "ID3"

// Tag contains the textual metadata read from a file.
// Empty fields mean the tag was absent.
type Tag struct {
	Title  string
	Artist string
}

// AudioInfo contains audio stream properties (not tags).
type AudioInfo struct {
	Duration   time.Duration
	Format     string // MP3, FLAC, VORBIS, OPUS
	SampleRate int
}

// Metadata is what the library consumes to build a track.
// Artist and Title are empty when absent; Duration is in seconds.
type Metadata struct {
	Artist   string
	Title    string
	Duration float64
}

// IsMusicFile returns true if the path has an accepted audio extension.
func IsMusicFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ExtMP3, ExtOGG, ExtFLAC:
		return true
	}
	return false
}

// taglibTags wraps a taglib result map with helper methods.
type taglibTags map[string][]string

// get returns the first value for any of the given keys, or empty string if not found.
func (t taglibTags) get(keys ...string) string {
	for _, key := range keys {
		if values, ok := t[key]; ok && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
