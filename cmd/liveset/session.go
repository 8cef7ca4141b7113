package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/config"
	"github.com/llehouerou/liveset/internal/library"
	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/track"
)

// cli holds what every command needs before the library is opened.
type cli struct {
	cfg     *config.Config
	out     io.Writer
	log     zerolog.Logger
	extract track.Extractor // nil means tags.Extract
}

// session is one started library plus the output of the running command.
type session struct {
	cfg *config.Config
	out io.Writer
	log zerolog.Logger
	lib *library.Engine
}

// withEngine starts the library, runs fn on it, and saves the library on
// the way out, bounded by the configured shutdown timeout.
func (c *cli) withEngine(fn func(s *session) error) (err error) {
	e := library.New(library.Options{
		Extractor: c.extract,
		Preloaded: c.cfg.AmbientSeeds(),
		Logger:    &c.log,
	})
	if err := e.Start(c.cfg.BaseDir); err != nil {
		return fmt.Errorf("start library: %w", err)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.ShutdownTimeout())
		defer cancel()
		if serr := e.Shutdown(ctx); serr != nil && err == nil {
			err = fmt.Errorf("save library: %w", serr)
		}
	}()

	return fn(&session{cfg: c.cfg, out: c.out, log: c.log, lib: e})
}

// playlist resolves ref as a playlist id, then as a name.
func (s *session) playlist(ref string) (*playlist.Playlist, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if p, ok := s.lib.Playlist(id); ok {
			return p, nil
		}
	}
	if p, ok := s.lib.FindPlaylist(ref); ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", library.ErrPlaylistNotFound, ref)
}

// playlistOrCreate resolves ref, creating a playlist named ref if none matches.
func (s *session) playlistOrCreate(ref string) (*playlist.Playlist, error) {
	p, err := s.playlist(ref)
	if errors.Is(err, library.ErrPlaylistNotFound) {
		p = s.lib.CreatePlaylist(ref)
		if err := s.lib.PersistPlaylist(p.ID); err != nil {
			return nil, err
		}
		fmt.Fprintf(s.out, "Created playlist %s (%s)\n", p.Name, p.ID)
		return p, nil
	}
	return p, err
}

func (s *session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}
