package track

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// identitySeparator joins the fields hashed into a track id.
// Changing it changes every persisted id.
const identitySeparator = ";"

// ComputeID derives the stable 128-bit identity of a track from its artist,
// title and duration: the SHA-256 of "artist;title;duration", keeping every
// other hex character of the digest.
func ComputeID(artist, title string, duration float64) uuid.UUID {
	text := artist + identitySeparator + title + identitySeparator + durationText(duration)
	sum := sha256.Sum256([]byte(text))
	digest := hex.EncodeToString(sum[:])

	var b strings.Builder
	b.Grow(len(digest) / 2)
	for i := 0; i < len(digest); i += 2 {
		b.WriteByte(digest[i])
	}

	// 32 hex characters always parse.
	return uuid.MustParse(b.String())
}

// durationText renders a float the way the ids were first computed:
// shortest round-trip digits, always with a decimal point, and exponent
// notation below 1e-4 or from 1e16 upward.
func durationText(d float64) string {
	switch {
	case math.IsNaN(d):
		return "nan"
	case math.IsInf(d, 1):
		return "inf"
	case math.IsInf(d, -1):
		return "-inf"
	}

	abs := math.Abs(d)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(d, 'e', -1, 64)
	}

	s := strconv.FormatFloat(d, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ArchiveName returns the archive file name for a track id and extension:
// the first 16 hex characters of the id without hyphens, plus ext.
func ArchiveName(id uuid.UUID, ext string) string {
	return strings.ReplaceAll(id.String(), "-", "")[:16] + ext
}
