package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// ErrUnsupported is returned for files outside the accepted containers.
var ErrUnsupported = errors.New("unsupported audio format")

// Read reads tag metadata from a music file.
// It returns only tag metadata, not audio stream properties.
func Read(path string) (*Tag, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		switch strings.ToLower(filepath.Ext(path)) {
		case ExtMP3:
			// dhowden/tag has issues with some UTF-16 encoded ID3 tags
			return readMP3WithID3v2Fallback(path)
		case ExtFLAC, ExtOGG:
			return readWithTaglib(path)
		}
		return nil, err
	}

	return &Tag{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
	}, nil
}

// Extract reads the metadata the library needs. A file whose tags cannot be
// read still yields metadata as long as its audio stream has a duration;
// a file without a readable stream is rejected.
func Extract(path string) (*Metadata, error) {
	if !IsMusicFile(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
	}

	audio, err := ReadAudioInfo(path)
	if err != nil {
		return nil, fmt.Errorf("read audio info: %w", err)
	}
	if audio.Duration <= 0 {
		return nil, fmt.Errorf("read audio info: %s has no duration", path)
	}

	meta := &Metadata{Duration: audio.Duration.Seconds()}
	if t, err := Read(path); err == nil {
		meta.Artist = t.Artist
		meta.Title = t.Title
	}
	return meta, nil
}
