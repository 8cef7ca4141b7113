package tags

import (
	"strings"

	"github.com/bogem/id3v2/v2"
)

// readMP3WithID3v2Fallback reads MP3 tags with bogem/id3v2 when dhowden/tag fails.
func readMP3WithID3v2Fallback(path string) (*Tag, error) {
	id3tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer id3tag.Close()

	artist := id3tag.Artist()
	if artist == "" {
		// Some taggers only fill the album artist frame.
		artist = getID3TextFrame(id3tag, "TPE2")
	}

	return &Tag{
		Title:  strings.TrimSpace(id3tag.Title()),
		Artist: strings.TrimSpace(artist),
	}, nil
}

func getID3TextFrame(id3tag *id3v2.Tag, frameID string) string {
	frames := id3tag.GetFrames(frameID)
	if len(frames) == 0 {
		return ""
	}
	if tf, ok := frames[0].(id3v2.TextFrame); ok {
		return tf.Text
	}
	return ""
}
