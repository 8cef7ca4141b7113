package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/llehouerou/liveset/internal/inbox"
	"github.com/llehouerou/liveset/internal/library"
	"github.com/llehouerou/liveset/internal/playback"
	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/track"
)

func (s *session) listPlaylists() error {
	pls := s.lib.Playlists()
	if len(pls) == 0 {
		s.printf("No playlists\n")
		return nil
	}
	for _, p := range pls {
		s.printf("%s  %-30s %3d songs  created %s\n",
			p.ID, p.Name, p.Len(), humanize.Time(p.CreatedAt))
	}
	return nil
}

func (s *session) create(name string) error {
	p := s.lib.CreatePlaylist(name)
	if err := s.lib.PersistPlaylist(p.ID); err != nil {
		return err
	}
	s.printf("Created playlist %s (%s)\n", p.Name, p.ID)
	return nil
}

func (s *session) rename(ref, name string) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	old := p.Name
	if err := s.lib.RenamePlaylist(p.ID, name); err != nil {
		return err
	}
	s.printf("Renamed %s to %s\n", old, p.Name)
	return nil
}

func (s *session) delete(ref string) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	if err := s.lib.DeletePlaylist(p.ID); err != nil {
		return err
	}
	s.printf("Deleted playlist %s\n", p.Name)
	return nil
}

func (s *session) show(ref string) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	s.printf("%s (%s)\n", p.Name, p.ID)
	var total float64
	for i, id := range p.Songs() {
		t, ok := s.lib.Track(id)
		if !ok {
			s.printf("%3d  %-8s <missing %s>\n", i, "", id)
			continue
		}
		total += t.Duration
		s.printf("%3d  %-8s %s - %s\n", i, t.FormatDuration(), t.Artist, t.Title)
	}
	s.printf("%d songs, %s\n", p.Len(), time.Duration(total*float64(time.Second)).Round(time.Second))
	return nil
}

func (s *session) add(ref string, files []string, at int) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	var failed int
	for i, f := range files {
		idx := at
		if at >= 0 {
			idx = at + i
		}
		if err := s.lib.AddFile(p.ID, f, idx); err != nil {
			s.log.Warn().Err(err).Str("file", f).Msg("file rejected")
			s.printf("Skipped %s: %v\n", filepath.Base(f), err)
			failed++
			continue
		}
		s.printf("Added %s\n", filepath.Base(f))
	}
	if failed == len(files) {
		return fmt.Errorf("no file added to %s", p.Name)
	}
	return nil
}

func (s *session) removeAt(ref string, index int) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	removed, err := s.lib.RemoveSongAt(p.ID, index)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("no song at position %d of %s", index, p.Name)
	}
	s.printf("Removed position %d from %s\n", index, p.Name)
	return nil
}

func (s *session) removeTrack(ref, trackRef string) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(trackRef)
	if err != nil {
		return fmt.Errorf("track id %q: %w", trackRef, err)
	}
	n, err := s.lib.RemoveAllInstances(p.ID, id)
	if err != nil {
		return err
	}
	s.printf("Removed %d %s from %s\n", n, plural(n, "entry", "entries"), p.Name)
	return nil
}

func (s *session) shift(ref string, index int, up bool) error {
	p, err := s.playlist(ref)
	if err != nil {
		return err
	}
	var moved bool
	if up {
		moved, err = s.lib.ShiftUp(p.ID, index)
	} else {
		moved, err = s.lib.ShiftDown(p.ID, index)
	}
	if err != nil {
		return err
	}
	if !moved {
		s.printf("Position %d unchanged\n", index)
		return nil
	}
	to := index + 1
	if up {
		to = index - 1
	}
	s.printf("Moved position %d to %d\n", index, to)
	return nil
}

func (s *session) listTracks() error {
	tracks := s.lib.Tracks()
	if len(tracks) == 0 {
		s.printf("No tracks\n")
		return nil
	}
	s.printTracks(tracks)
	return nil
}

func (s *session) printTracks(tracks []*track.Track) {
	var size uint64
	for i, t := range tracks {
		var fileSize uint64
		if info, err := os.Stat(t.Path); err == nil {
			fileSize = uint64(info.Size()) //nolint:gosec // file sizes are non-negative
		}
		size += fileSize
		s.printf("%3d  %s  %-8s %-9s %s - %s\n",
			i+1, t.ID, t.FormatDuration(), humanize.Bytes(fileSize), t.Artist, t.Title)
	}
	s.printf("%s %s, %s\n", humanize.Comma(int64(len(tracks))), plural(len(tracks), "track", "tracks"), humanize.Bytes(size))
}

func (s *session) importDir(dir, ref string) error {
	p, err := s.playlistOrCreate(ref)
	if err != nil {
		return err
	}

	progress := make(chan library.ImportProgress)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for pr := range progress {
			if pr.Phase == "processing" {
				s.log.Debug().Int("current", pr.Current).Int("total", pr.Total).Str("file", pr.CurrentFile).Msg("importing")
			}
		}
	}()
	stats, err := s.lib.ImportDir(dir, progress)
	<-done
	if err != nil {
		return err
	}

	var added int
	for _, t := range stats.Added {
		if p.Contains(t.ID) {
			continue
		}
		if err := s.lib.AddSong(p.ID, t.ID, -1); err != nil {
			return err
		}
		added++
	}

	s.printf("Imported %s %s into %s (%s already archived, %s failed)\n",
		humanize.Comma(int64(added)), plural(added, "song", "songs"), p.Name,
		humanize.Comma(int64(stats.Duplicates)), humanize.Comma(int64(len(stats.Failed))))
	for path, ferr := range stats.Failed {
		s.printf("  %s: %v\n", path, ferr)
	}
	return nil
}

func (s *session) listAmbient() error {
	tracks := s.lib.AmbientTracks()
	if len(tracks) == 0 {
		s.printf("No ambient tracks\n")
		return nil
	}
	sel, _ := s.lib.SelectedAmbientTrack()
	for i, t := range tracks {
		mark := " "
		if sel != nil && sel.ID == t.ID {
			mark = "*"
		}
		s.printf("%s %2d  %s  %-8s %s\n", mark, i+1, t.ID, t.FormatDuration(), t.Title)
	}
	return nil
}

func (s *session) addAmbient(file string) error {
	t, err := s.lib.AddAmbientTrack(file)
	if err != nil {
		return err
	}
	s.printf("Added ambient track %s (%s)\n", t.Title, t.ID)
	return nil
}

// selectAmbient accepts an id, a 1-based list number, or "none".
func (s *session) selectAmbient(ref string) error {
	id, err := s.ambientRef(ref)
	if err != nil {
		return err
	}
	if err := s.lib.SetSelectedAmbientTrack(id); err != nil {
		return err
	}
	if t, ok := s.lib.SelectedAmbientTrack(); ok {
		s.printf("Selected ambient track %s\n", t.Title)
	} else {
		s.printf("Ambient track cleared\n")
	}
	return nil
}

func (s *session) ambientRef(ref string) (uuid.UUID, error) {
	if strings.EqualFold(ref, "none") {
		return uuid.Nil, nil
	}
	if n, err := strconv.Atoi(ref); err == nil {
		tracks := s.lib.AmbientTracks()
		if n < 1 || n > len(tracks) {
			return uuid.Nil, fmt.Errorf("%w: number %d of %d", library.ErrTrackNotFound, n, len(tracks))
		}
		return tracks[n-1].ID, nil
	}
	id, err := uuid.Parse(ref)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ambient track %q: %w", ref, err)
	}
	return id, nil
}

type nextOptions struct {
	playlist   string
	from       int
	count      int
	repeat     string // empty means config
	shuffle    bool
	shuffleSet bool
	back       bool
}

// dryPlayer accepts every request without producing sound.
type dryPlayer struct {
	at time.Duration
}

func (p *dryPlayer) Play(string) error { return nil }

func (p *dryPlayer) Stop() {}

func (p *dryPlayer) Position() time.Duration { return p.at }

func (p *dryPlayer) SeekTo(position time.Duration) { p.at = position }

var _ playback.Player = (*dryPlayer)(nil)

// next prints the positions the transport would play, starting at o.from.
func (s *session) next(o nextOptions) error {
	p, err := s.playlist(o.playlist)
	if err != nil {
		return err
	}
	if p.IsEmpty() {
		s.printf("%s is empty\n", p.Name)
		return nil
	}

	mode, err := playback.ParseRepeatMode(cmp.Or(o.repeat, s.cfg.Playback.Repeat))
	if err != nil {
		return err
	}
	shuffle := s.cfg.Playback.Shuffle
	if o.shuffleSet {
		shuffle = o.shuffle
	}

	player := &dryPlayer{}
	t := playback.NewTransport(s.lib, player, playback.Options{
		PreviousGrace: s.cfg.PreviousGrace(),
		Repeat:        mode,
		Shuffle:       shuffle,
		Logger:        &s.log,
	})
	if err := t.Load(p.ID); err != nil {
		return err
	}

	s.printf("%s: repeat %s, shuffle %v\n", p.Name, mode, shuffle)
	if err := t.PlayAt(o.from); err != nil && !errors.Is(err, playback.ErrNothingPlayable) {
		return err
	}
	if _, idx := t.Current(); idx < 0 {
		return fmt.Errorf("no song at position %d of %s", o.from, p.Name)
	}
	s.printEntry(p, t)

	step := t.Next
	if o.back {
		step = t.Previous
	}
	for range o.count {
		if o.back {
			// Past the grace window so Previous moves instead of restarting.
			player.at = s.cfg.PreviousGrace()
		}
		err := step()
		switch {
		case errors.Is(err, playback.ErrNoNext):
			s.printf("  end of playlist\n")
			return nil
		case err != nil && !errors.Is(err, playback.ErrNothingPlayable):
			return err
		}
		s.printEntry(p, t)
	}
	return nil
}

func (s *session) printEntry(p *playlist.Playlist, t *playback.Transport) {
	_, idx := t.Current()
	id, _ := p.Song(idx)
	tr, ok := s.lib.Track(id)
	if !ok {
		s.printf("%3d  <missing %s>\n", idx, id)
		return
	}
	s.printf("%3d  %s - %s\n", idx, tr.Artist, tr.Title)
}

// watch adds every settled inbox file to the playlist until ctx is done.
func (s *session) watch(ctx context.Context, ref, dir string) error {
	dir = cmp.Or(dir, s.cfg.InboxDir)
	if dir == "" {
		return errors.New("no inbox directory: set inbox_dir or pass --dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create inbox: %w", err)
	}
	p, err := s.playlistOrCreate(ref)
	if err != nil {
		return err
	}

	w := inbox.New(dir, inbox.Options{Logger: &s.log})
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()

	s.printf("Watching %s for %s (Ctrl-C to stop)\n", dir, p.Name)
	for path := range w.Files() {
		if err := s.lib.AddFile(p.ID, path, -1); err != nil {
			s.log.Warn().Err(err).Str("file", path).Msg("inbox file rejected")
			s.printf("Skipped %s: %v\n", filepath.Base(path), err)
			continue
		}
		s.printf("Added %s to %s\n", filepath.Base(path), p.Name)
	}
	return <-errc
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
