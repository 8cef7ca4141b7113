// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Library lifecycle
	OpLibraryStart Op = "open library"
	OpLibrarySave  Op = "save library"
	OpConfigLoad   Op = "load configuration"

	// Tracks
	OpTrackList   Op = "list tracks"
	OpTrackImport Op = "import directory"

	// Playlist operations
	OpPlaylistList     Op = "list playlists"
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistRename   Op = "rename playlist"
	OpPlaylistDelete   Op = "delete playlist"
	OpPlaylistShow     Op = "show playlist"
	OpPlaylistAddTrack Op = "add track to playlist"
	OpPlaylistRemove   Op = "remove track from playlist"
	OpPlaylistMove     Op = "move playlist item"

	// Ambient tracks
	OpAmbientList   Op = "list ambient tracks"
	OpAmbientAdd    Op = "add ambient track"
	OpAmbientSelect Op = "select ambient track"

	// Playback and timers
	OpPlaybackPreview Op = "preview playback order"
	OpInboxWatch      Op = "watch inbox"
	OpCountdown       Op = "run countdown"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
