// Package library owns the in-memory working set of tracks, playlists and
// ambient tracks, and keeps it in step with the archive directories and the
// durable store across a session.
//
// An Engine is not safe for concurrent use. A single owner goroutine calls
// every method; background producers hand work to that goroutine.
package library

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/archive"
	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/store"
	"github.com/llehouerou/liveset/internal/tags"
	"github.com/llehouerou/liveset/internal/track"
)

const (
	rootDirName    = "musicsAndPlaylists"
	dbFileName     = "musics_and_playlists.db"
	archiveDirName = "musicsArchive"
	ambientDirName = "ambientMusicsArchive"
)

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrTrackNotFound    = errors.New("track not found")
	ErrNotStarted       = errors.New("library not started")
)

// Options configures an Engine.
type Options struct {
	// Extractor reads audio metadata. Defaults to tags.Extract.
	Extractor track.Extractor

	// Preloaded lists the files seeding an empty ambient table.
	// The first one ingested becomes the selected ambient track.
	Preloaded []string

	// Logger defaults to a no-op logger.
	Logger *zerolog.Logger

	// OpenStore opens the durable store. Defaults to store.Open.
	OpenStore func(path string) (store.Interface, error)
}

// Paths locates the managed files under a base directory.
type Paths struct {
	Root       string
	DB         string
	Archive    string
	AmbientDir string
}

// PathsFor returns the layout managed under baseDir.
func PathsFor(baseDir string) Paths {
	root := filepath.Join(baseDir, rootDirName)
	return Paths{
		Root:       root,
		DB:         filepath.Join(root, dbFileName),
		Archive:    filepath.Join(root, archiveDirName),
		AmbientDir: filepath.Join(root, ambientDirName),
	}
}

// Engine is the library orchestrator.
type Engine struct {
	extract   track.Extractor
	preloaded []string
	openStore func(path string) (store.Interface, error)
	log       zerolog.Logger

	paths   Paths
	store   store.Interface
	started bool

	tracks          map[uuid.UUID]*track.Track
	playlists       map[uuid.UUID]*playlist.Playlist
	ambient         map[uuid.UUID]*track.Track
	selectedAmbient uuid.UUID
}

// New creates an engine. Call Start before using it.
func New(opts Options) *Engine {
	e := &Engine{
		extract:   opts.Extractor,
		preloaded: opts.Preloaded,
		openStore: opts.OpenStore,
		log:       zerolog.Nop(),
	}
	if e.extract == nil {
		e.extract = tags.Extract
	}
	if e.openStore == nil {
		e.openStore = func(path string) (store.Interface, error) {
			return store.Open(path)
		}
	}
	if opts.Logger != nil {
		e.log = opts.Logger.With().Str("component", "library").Logger()
	}
	e.reset()
	return e
}

func (e *Engine) reset() {
	e.tracks = make(map[uuid.UUID]*track.Track)
	e.playlists = make(map[uuid.UUID]*playlist.Playlist)
	e.ambient = make(map[uuid.UUID]*track.Track)
	e.selectedAmbient = uuid.Nil
}

// Paths returns the managed layout. It is empty before Start.
func (e *Engine) Paths() Paths {
	return e.paths
}

// Started reports whether Start succeeded and Stop has not run yet.
func (e *Engine) Started() bool {
	return e.started
}

// Start creates the managed directories, opens the store and loads the
// persisted working set. Rows whose archive file is missing are skipped.
func (e *Engine) Start(baseDir string) error {
	if e.started {
		return nil
	}
	e.paths = PathsFor(baseDir)

	for _, dir := range []string{e.paths.Archive, e.paths.AmbientDir} {
		if err := archive.EnsureDir(dir); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	s, err := e.openStore(e.paths.DB)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	e.store = s
	e.reset()

	e.seedAmbient()
	e.loadAmbient()
	e.loadTracks()
	e.loadPlaylists()

	e.started = true
	e.log.Info().
		Int("tracks", len(e.tracks)).
		Int("playlists", len(e.playlists)).
		Int("ambient", len(e.ambient)).
		Str("root", e.paths.Root).
		Msg("library started")
	return nil
}

// seedAmbient ingests the preloaded sounds when the ambient table is empty.
func (e *Engine) seedAmbient() {
	n, err := e.store.AmbientCount()
	if err != nil {
		e.persistErr("AmbientCount", err)
		return
	}
	if n > 0 {
		return
	}

	selected := false
	for _, src := range e.preloaded {
		t, err := e.ingest(src, e.paths.AmbientDir)
		if err != nil {
			e.log.Warn().Err(err).Str("file", src).Msg("skipping preloaded ambient sound")
			continue
		}
		row := store.AmbientRow{Row: e.rowIn(t, e.paths.AmbientDir), Selected: !selected}
		if err := e.store.InsertAmbient(row); err != nil {
			e.persistErr("InsertAmbient", err)
			continue
		}
		selected = true
	}
}

func (e *Engine) loadAmbient() {
	rows, err := e.store.AmbientTracks()
	if err != nil {
		e.persistErr("AmbientTracks", err)
		return
	}
	present := e.listing(e.paths.AmbientDir)
	for _, r := range rows {
		t := e.fromRow(r.Row, e.paths.AmbientDir, present)
		if t == nil {
			continue
		}
		e.ambient[t.ID] = t
		if r.Selected {
			e.selectedAmbient = t.ID
		}
	}
}

func (e *Engine) loadTracks() {
	rows, err := e.store.Tracks()
	if err != nil {
		e.persistErr("Tracks", err)
		return
	}
	present := e.listing(e.paths.Archive)
	for _, r := range rows {
		if t := e.fromRow(r, e.paths.Archive, present); t != nil {
			e.tracks[t.ID] = t
		}
	}
}

func (e *Engine) loadPlaylists() {
	rows, err := e.store.Playlists()
	if err != nil {
		e.persistErr("Playlists", err)
		return
	}
	for _, r := range rows {
		id, err := uuid.Parse(r.ID)
		if err != nil {
			e.log.Warn().Err(err).Str("id", r.ID).Msg("skipping playlist with malformed id")
			continue
		}
		p := playlist.Restore(id, r.Name, store.FromTimestamp(r.CreatedAt))

		songs, err := e.store.PlaylistSongs(r.ID)
		if err != nil {
			e.persistErr("PlaylistSongs", err)
		}
		for _, s := range songs {
			songID, err := uuid.Parse(s)
			if err != nil {
				e.log.Warn().Err(err).Str("playlist", r.ID).Str("song", s).Msg("skipping malformed song id")
				continue
			}
			p.Load(songID)
		}
		e.playlists[id] = p
	}
}

// listing returns the set of media files currently in dir.
func (e *Engine) listing(dir string) map[string]struct{} {
	files, err := archive.ListMediaFiles(dir)
	if err != nil {
		e.log.Error().Err(err).Str("dir", dir).Msg("list archive")
	}
	set := make(map[string]struct{}, len(files))
	for _, f := range files {
		set[f] = struct{}{}
	}
	return set
}

// fromRow rebuilds a track stored relative to dir, or returns nil when the
// row is invalid or its file is not in present.
func (e *Engine) fromRow(r track.Row, dir string, present map[string]struct{}) *track.Track {
	if !filepath.IsAbs(r.Path) {
		r.Path = filepath.Join(dir, r.Path)
	}
	r.Path = filepath.Clean(r.Path)
	if _, ok := present[r.Path]; !ok {
		e.log.Debug().Str("id", r.ID).Str("file", r.Path).Msg("archive file missing, row skipped")
		return nil
	}
	t, err := track.FromRow(r)
	if err != nil {
		e.log.Warn().Err(err).Str("id", r.ID).Msg("skipping invalid row")
		return nil
	}
	return t
}

// rowIn returns the persisted tuple for t with its path relative to dir.
func (e *Engine) rowIn(t *track.Track, dir string) track.Row {
	r := t.Row()
	if rel, err := filepath.Rel(dir, t.Path); err == nil && filepath.IsLocal(rel) {
		r.Path = rel
	}
	return r
}

func (e *Engine) persistErr(op string, err error) {
	e.log.Error().Err(err).Str("op", op).Msg("store operation failed")
}
