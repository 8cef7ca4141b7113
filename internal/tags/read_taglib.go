package tags

import (
	"strings"

	"go.senan.xyz/taglib"
)

// readWithTaglib reads FLAC and Ogg tags with TagLib as fallback when dhowden/tag fails.
func readWithTaglib(path string) (*Tag, error) {
	rawTags, err := taglib.ReadTags(path)
	if err != nil {
		return nil, err
	}
	tags := taglibTags(rawTags)

	return &Tag{
		Title:  strings.TrimSpace(tags.get(taglib.Title)),
		Artist: strings.TrimSpace(tags.get(taglib.Artist, taglib.AlbumArtist)),
	}, nil
}
