// Package playback decides which playlist entry plays next and drives a
// Player accordingly.
package playback

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/events"
	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/track"
)

// DefaultPreviousGrace is how far into a track Previous still restarts it.
const DefaultPreviousGrace = 5 * time.Second

var (
	ErrNoPlaylist      = errors.New("no playlist loaded")
	ErrNoNext          = errors.New("no next track")
	ErrNothingPlayable = errors.New("nothing playable at position")
)

// Library resolves playlist and track ids.
type Library interface {
	Playlist(id uuid.UUID) (*playlist.Playlist, bool)
	Track(id uuid.UUID) (*track.Track, bool)
}

// Options configures a Transport.
type Options struct {
	PreviousGrace time.Duration // defaults to DefaultPreviousGrace
	Repeat        RepeatMode
	Shuffle       bool
	Pick          func(n int) int // defaults to rand.IntN
	Bus           *events.Bus     // optional
	Logger        *zerolog.Logger
}

// Transport plays the entries of one playlist at a time.
type Transport struct {
	mu sync.Mutex

	lib    Library
	player Player
	bus    *events.Bus
	log    zerolog.Logger
	pick   func(int) int
	grace  time.Duration

	repeat     RepeatMode
	shuffle    bool
	playlistID uuid.UUID
	index      int
}

// NewTransport creates a transport with nothing loaded.
func NewTransport(lib Library, p Player, opts Options) *Transport {
	t := &Transport{
		lib:     lib,
		player:  p,
		bus:     opts.Bus,
		log:     zerolog.Nop(),
		pick:    opts.Pick,
		grace:   opts.PreviousGrace,
		repeat:  opts.Repeat,
		shuffle: opts.Shuffle,
		index:   -1,
	}
	if t.pick == nil {
		t.pick = rand.IntN
	}
	if t.grace <= 0 {
		t.grace = DefaultPreviousGrace
	}
	if opts.Logger != nil {
		t.log = opts.Logger.With().Str("component", "playback").Logger()
	}
	return t
}

// Load selects the playlist to play from. Nothing plays until PlayAt or Next.
func (t *Transport) Load(playlistID uuid.UUID) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.lib.Playlist(playlistID); !ok {
		return fmt.Errorf("%w: %s", ErrNoPlaylist, playlistID)
	}
	t.playlistID = playlistID
	t.index = -1
	return nil
}

// Current returns the loaded playlist and the position last played (-1 if none).
func (t *Transport) Current() (uuid.UUID, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playlistID, t.index
}

// RepeatMode returns the current repeat mode.
func (t *Transport) RepeatMode() RepeatMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.repeat
}

// SetRepeatMode sets the repeat mode.
func (t *Transport) SetRepeatMode(m RepeatMode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repeat = m
}

// CycleRepeatMode advances to the next repeat mode and returns it.
func (t *Transport) CycleRepeatMode() RepeatMode {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.repeat = t.repeat.Next()
	return t.repeat
}

// Shuffle returns whether shuffle is enabled.
func (t *Transport) Shuffle() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shuffle
}

// SetShuffle enables or disables shuffle.
func (t *Transport) SetShuffle(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.shuffle = enabled
}

// PlayAt plays the entry at index.
func (t *Transport) PlayAt(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.loaded()
	if err != nil {
		return err
	}
	if index < 0 || index >= p.Len() {
		return fmt.Errorf("%w: index %d of %d", ErrNothingPlayable, index, p.Len())
	}
	return t.playLocked(p, index)
}

// Next plays the entry the resolver picks going forward.
// ErrNoNext leaves playback untouched.
func (t *Transport) Next() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stepLocked(Forward)
}

// Previous restarts the current track when it started less than the grace
// window ago, and otherwise plays the entry the resolver picks going backward.
func (t *Transport) Previous() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, err := t.loaded()
	if err != nil {
		return err
	}
	t.syncIndex(p)
	if t.index >= 0 && t.player.Position() < t.grace {
		t.player.SeekTo(0)
		return nil
	}
	return t.stepLocked(Backward)
}

// TrackFinished advances after the current track ended. When nothing
// follows, the player is stopped.
func (t *Transport) TrackFinished() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.stepLocked(Forward)
	if errors.Is(err, ErrNoNext) {
		t.player.Stop()
		t.log.Debug().Msg("end of playlist")
		return nil
	}
	return err
}

func (t *Transport) stepLocked(dir Direction) error {
	p, err := t.loaded()
	if err != nil {
		return err
	}
	t.syncIndex(p)
	next, ok := Resolve(p.Len(), t.index, t.repeat, t.shuffle, dir, t.pick)
	if !ok {
		return ErrNoNext
	}
	return t.playLocked(p, next)
}

// syncIndex forgets a position the playlist no longer has, after entries
// were removed while it played.
func (t *Transport) syncIndex(p *playlist.Playlist) {
	if t.index >= p.Len() {
		t.log.Debug().Int("index", t.index).Int("size", p.Len()).Msg("current position left the playlist")
		t.index = -1
	}
}

func (t *Transport) loaded() (*playlist.Playlist, error) {
	if t.playlistID == uuid.Nil {
		return nil, ErrNoPlaylist
	}
	p, ok := t.lib.Playlist(t.playlistID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoPlaylist, t.playlistID)
	}
	return p, nil
}

// playLocked plays the entry at index. A dangling entry still becomes the
// current position so the next step moves past it.
func (t *Transport) playLocked(p *playlist.Playlist, index int) error {
	songID, _ := p.Song(index)
	tr, ok := t.lib.Track(songID)
	if !ok {
		t.index = index
		t.log.Warn().Int("index", index).Str("song", songID.String()).Msg("unresolved playlist entry")
		return fmt.Errorf("%w: index %d", ErrNothingPlayable, index)
	}

	if err := t.player.Play(tr.Path); err != nil {
		t.log.Error().Err(err).Str("path", tr.Path).Msg("play failed")
		return fmt.Errorf("play %s: %w", tr.Path, err)
	}
	t.index = index

	if t.bus != nil {
		t.bus.Publish(events.TrackRequested{Path: tr.Path, Index: index, Channel: events.ChannelMusic})
	}
	t.log.Info().Int("index", index).Str("title", tr.Title).Msg("playing")
	return nil
}
