// Package main provides the liveset command line entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/llehouerou/liveset/internal/config"
	"github.com/llehouerou/liveset/internal/errmsg"
	"github.com/llehouerou/liveset/internal/logger"
)

var nextShuffleSet bool

var (
	app     = kingpin.New("liveset", "Playlist and sound engine for live events")
	baseDir = app.Flag("base-dir", "Directory holding the library (overrides config)").Envar(config.EnvBaseDir).String()
	verbose = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile = app.Flag("logfile", "Path to log file (overrides config)").String()

	playlistsCmd = app.Command("playlists", "List playlists").Alias("ls")

	createCmd  = app.Command("create", "Create a playlist")
	createName = createCmd.Arg("name", "Playlist name (default: Playlist_<id>)").String()

	renameCmd      = app.Command("rename", "Rename a playlist")
	renamePlaylist = renameCmd.Arg("playlist", "Playlist id or name").Required().String()
	renameName     = renameCmd.Arg("name", "New name (empty restores the default)").String()

	deleteCmd      = app.Command("delete", "Delete a playlist")
	deletePlaylist = deleteCmd.Arg("playlist", "Playlist id or name").Required().String()

	showCmd      = app.Command("show", "Show the songs of a playlist")
	showPlaylist = showCmd.Arg("playlist", "Playlist id or name").Required().String()

	addCmd      = app.Command("add", "Add audio files to a playlist")
	addPlaylist = addCmd.Arg("playlist", "Playlist id or name").Required().String()
	addFiles    = addCmd.Arg("files", "Audio files").Required().ExistingFiles()
	addAt       = addCmd.Flag("at", "Insert position (default: append)").Default("-1").Int()

	removeCmd      = app.Command("remove", "Remove a song from a playlist").Alias("rm")
	removePlaylist = removeCmd.Arg("playlist", "Playlist id or name").Required().String()
	removeIndex    = removeCmd.Arg("index", "Position to remove").Default("-1").Int()
	removeTrack    = removeCmd.Flag("track", "Remove every entry of this track id instead").String()

	upCmd      = app.Command("up", "Move a song one position up")
	upPlaylist = upCmd.Arg("playlist", "Playlist id or name").Required().String()
	upIndex    = upCmd.Arg("index", "Position to move").Required().Int()

	downCmd      = app.Command("down", "Move a song one position down")
	downPlaylist = downCmd.Arg("playlist", "Playlist id or name").Required().String()
	downIndex    = downCmd.Arg("index", "Position to move").Required().Int()

	tracksCmd = app.Command("tracks", "List archived tracks")

	importCmd      = app.Command("import", "Import a directory of audio files into a playlist")
	importDir      = importCmd.Arg("dir", "Directory to scan recursively").Required().ExistingDir()
	importPlaylist = importCmd.Arg("playlist", "Playlist id or name (created if missing)").Required().String()

	ambientCmd       = app.Command("ambient", "Manage ambient tracks")
	ambientListCmd   = ambientCmd.Command("list", "List ambient tracks").Default()
	ambientAddCmd    = ambientCmd.Command("add", "Add an ambient track")
	ambientAddFile   = ambientAddCmd.Arg("file", "Audio file").Required().ExistingFile()
	ambientSelectCmd = ambientCmd.Command("select", "Select the ambient track played during breaks")
	ambientSelectRef = ambientSelectCmd.Arg("track", "Ambient track id, list number, or \"none\"").Required().String()

	nextCmd      = app.Command("next", "Preview the songs the player would pick")
	nextPlaylist = nextCmd.Arg("playlist", "Playlist id or name").Required().String()
	nextFrom     = nextCmd.Flag("from", "Starting position").Default("0").Int()
	nextCount    = nextCmd.Flag("count", "Number of steps").Default("5").Int()
	nextRepeat   = nextCmd.Flag("repeat", "Repeat mode: all, one, off (default from config)").String()
	nextShuffle  = nextCmd.Flag("shuffle", "Shuffle (default from config)").IsSetByUser(&nextShuffleSet).Bool()
	nextBack     = nextCmd.Flag("back", "Step backward").Bool()

	watchCmd      = app.Command("watch", "Add audio files dropped in the inbox to a playlist")
	watchPlaylist = watchCmd.Arg("playlist", "Playlist id or name (created if missing)").Required().String()
	watchDir      = watchCmd.Flag("dir", "Inbox directory (default from config)").String()

	countdownCmd   = app.Command("countdown", "Run the match timers and print the cues they trigger")
	countdownMatch = countdownCmd.Flag("match", "Match length (default from config)").Duration()
	countdownBreak = countdownCmd.Flag("break", "Break length (default from config)").Duration()
	countdownCycle = countdownCmd.Flag("cycle", "Chain match and break timers").Bool()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, errmsg.Format(errmsg.OpConfigLoad, err))
		os.Exit(1)
	}
	if *baseDir != "" {
		cfg.BaseDir = *baseDir
	}

	logCfg := logger.Config{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	}
	if *verbose {
		logCfg.Level = "debug"
	}
	if *logfile != "" {
		logCfg.File = *logfile
	}
	closer, err := logger.Init(logCfg, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := &cli{cfg: cfg, out: os.Stdout, log: zlog.Logger}
	if err := c.dispatch(ctx, command); err != nil {
		zlog.Error().Err(err).Str("command", command).Msg("command failed")
		fmt.Fprintln(os.Stderr, errmsg.Format(opFor(command), err))
		stop()
		closer.Close()
		os.Exit(1) //nolint:gocritic // resources released above
	}
}

// dispatch runs the parsed command.
func (c *cli) dispatch(ctx context.Context, command string) error {
	return c.withEngine(func(s *session) error {
		switch command {
		case playlistsCmd.FullCommand():
			return s.listPlaylists()
		case createCmd.FullCommand():
			return s.create(*createName)
		case renameCmd.FullCommand():
			return s.rename(*renamePlaylist, *renameName)
		case deleteCmd.FullCommand():
			return s.delete(*deletePlaylist)
		case showCmd.FullCommand():
			return s.show(*showPlaylist)
		case addCmd.FullCommand():
			return s.add(*addPlaylist, *addFiles, *addAt)
		case removeCmd.FullCommand():
			if *removeTrack != "" {
				return s.removeTrack(*removePlaylist, *removeTrack)
			}
			return s.removeAt(*removePlaylist, *removeIndex)
		case upCmd.FullCommand():
			return s.shift(*upPlaylist, *upIndex, true)
		case downCmd.FullCommand():
			return s.shift(*downPlaylist, *downIndex, false)
		case tracksCmd.FullCommand():
			return s.listTracks()
		case importCmd.FullCommand():
			return s.importDir(*importDir, *importPlaylist)
		case ambientListCmd.FullCommand():
			return s.listAmbient()
		case ambientAddCmd.FullCommand():
			return s.addAmbient(*ambientAddFile)
		case ambientSelectCmd.FullCommand():
			return s.selectAmbient(*ambientSelectRef)
		case nextCmd.FullCommand():
			return s.next(nextOptions{
				playlist:   *nextPlaylist,
				from:       *nextFrom,
				count:      *nextCount,
				repeat:     *nextRepeat,
				shuffle:    *nextShuffle,
				shuffleSet: nextShuffleSet,
				back:       *nextBack,
			})
		case watchCmd.FullCommand():
			return s.watch(ctx, *watchPlaylist, *watchDir)
		case countdownCmd.FullCommand():
			return s.countdown(ctx, *countdownMatch, *countdownBreak, *countdownCycle)
		}
		return fmt.Errorf("unknown command %q", command)
	})
}

// opFor names the operation behind a command for error messages.
func opFor(command string) errmsg.Op {
	switch command {
	case playlistsCmd.FullCommand():
		return errmsg.OpPlaylistList
	case createCmd.FullCommand():
		return errmsg.OpPlaylistCreate
	case renameCmd.FullCommand():
		return errmsg.OpPlaylistRename
	case deleteCmd.FullCommand():
		return errmsg.OpPlaylistDelete
	case showCmd.FullCommand():
		return errmsg.OpPlaylistShow
	case addCmd.FullCommand():
		return errmsg.OpPlaylistAddTrack
	case removeCmd.FullCommand():
		return errmsg.OpPlaylistRemove
	case upCmd.FullCommand(), downCmd.FullCommand():
		return errmsg.OpPlaylistMove
	case tracksCmd.FullCommand():
		return errmsg.OpTrackList
	case importCmd.FullCommand():
		return errmsg.OpTrackImport
	case ambientListCmd.FullCommand():
		return errmsg.OpAmbientList
	case ambientAddCmd.FullCommand():
		return errmsg.OpAmbientAdd
	case ambientSelectCmd.FullCommand():
		return errmsg.OpAmbientSelect
	case nextCmd.FullCommand():
		return errmsg.OpPlaybackPreview
	case watchCmd.FullCommand():
		return errmsg.OpInboxWatch
	case countdownCmd.FullCommand():
		return errmsg.OpCountdown
	default:
		return errmsg.Op(command)
	}
}
