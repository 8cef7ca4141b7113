package playback

import (
	"errors"
	"testing"
	"testing/synctest"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/liveset/internal/events"
	"github.com/llehouerou/liveset/internal/playlist"
	"github.com/llehouerou/liveset/internal/track"
)

type fakeLibrary struct {
	playlists map[uuid.UUID]*playlist.Playlist
	tracks    map[uuid.UUID]*track.Track
}

func (l *fakeLibrary) Playlist(id uuid.UUID) (*playlist.Playlist, bool) {
	p, ok := l.playlists[id]
	return p, ok
}

func (l *fakeLibrary) Track(id uuid.UUID) (*track.Track, bool) {
	t, ok := l.tracks[id]
	return t, ok
}

// newFixture builds a playlist of n resident tracks at /archive/0.mp3 ...
func newFixture(n int) (*fakeLibrary, *playlist.Playlist) {
	lib := &fakeLibrary{
		playlists: make(map[uuid.UUID]*playlist.Playlist),
		tracks:    make(map[uuid.UUID]*track.Track),
	}
	p := playlist.New("set")
	for i := range n {
		tr := &track.Track{ID: uuid.New(), Title: string(rune('a' + i)), Artist: "x", Duration: 60, Path: "/archive/" + string(rune('0'+i)) + ".mp3"}
		lib.tracks[tr.ID] = tr
		p.Add(tr.ID, -1)
	}
	lib.playlists[p.ID] = p
	return lib, p
}

func TestTransport_NoPlaylist(t *testing.T) {
	lib, _ := newFixture(3)
	tr := NewTransport(lib, NewMock(), Options{})

	assert.ErrorIs(t, tr.Next(), ErrNoPlaylist)
	assert.ErrorIs(t, tr.PlayAt(0), ErrNoPlaylist)
	assert.ErrorIs(t, tr.Load(uuid.New()), ErrNoPlaylist)
}

func TestTransport_PlayAtAndNext(t *testing.T) {
	lib, p := newFixture(3)
	player := NewMock()
	bus := events.NewBus()
	sub := bus.Subscribe()
	tr := NewTransport(lib, player, Options{Repeat: NoRepeat, Bus: bus})
	require.NoError(t, tr.Load(p.ID))

	require.NoError(t, tr.PlayAt(1))
	require.NoError(t, tr.Next())
	assert.ErrorIs(t, tr.Next(), ErrNoNext)

	assert.Equal(t, []string{"/archive/1.mp3", "/archive/2.mp3"}, player.PlayCalls())
	_, idx := tr.Current()
	assert.Equal(t, 2, idx)
	assert.Equal(t, StatePlaying, player.State(), "ErrNoNext leaves playback untouched")

	e := <-sub.Events
	assert.Equal(t, events.TrackRequested{Path: "/archive/1.mp3", Index: 1, Channel: events.ChannelMusic}, e)

	assert.ErrorIs(t, tr.PlayAt(3), ErrNothingPlayable)
}

func TestTransport_NextFromNothingStartsAtZero(t *testing.T) {
	lib, p := newFixture(3)
	player := NewMock()
	tr := NewTransport(lib, player, Options{})
	require.NoError(t, tr.Load(p.ID))

	require.NoError(t, tr.Next())
	assert.Equal(t, []string{"/archive/0.mp3"}, player.PlayCalls())
}

func TestTransport_TrackFinished(t *testing.T) {
	t.Run("repeat all wraps", func(t *testing.T) {
		lib, p := newFixture(2)
		player := NewMock()
		tr := NewTransport(lib, player, Options{Repeat: RepeatAll})
		require.NoError(t, tr.Load(p.ID))
		require.NoError(t, tr.PlayAt(1))

		require.NoError(t, tr.TrackFinished())
		_, idx := tr.Current()
		assert.Equal(t, 0, idx)
	})

	t.Run("no repeat stops at the end", func(t *testing.T) {
		lib, p := newFixture(2)
		player := NewMock()
		tr := NewTransport(lib, player, Options{Repeat: NoRepeat})
		require.NoError(t, tr.Load(p.ID))
		require.NoError(t, tr.PlayAt(1))

		require.NoError(t, tr.TrackFinished())
		assert.Equal(t, StateStopped, player.State())
	})

	t.Run("repeat one replays", func(t *testing.T) {
		lib, p := newFixture(3)
		player := NewMock()
		tr := NewTransport(lib, player, Options{Repeat: RepeatOne})
		require.NoError(t, tr.Load(p.ID))
		require.NoError(t, tr.PlayAt(1))

		require.NoError(t, tr.TrackFinished())
		assert.Equal(t, []string{"/archive/1.mp3", "/archive/1.mp3"}, player.PlayCalls())
	})
}

func TestTransport_PreviousGraceWindow(t *testing.T) {
	lib, p := newFixture(3)
	player := NewMock()
	tr := NewTransport(lib, player, Options{Repeat: NoRepeat, PreviousGrace: 5 * time.Second})
	require.NoError(t, tr.Load(p.ID))
	require.NoError(t, tr.PlayAt(2))

	// Within the window: restart the current track.
	player.SetPosition(3 * time.Second)
	require.NoError(t, tr.Previous())
	assert.Equal(t, []time.Duration{0}, player.SeekCalls())
	_, idx := tr.Current()
	assert.Equal(t, 2, idx)

	// Past the window: step back.
	player.SetPosition(12 * time.Second)
	require.NoError(t, tr.Previous())
	_, idx = tr.Current()
	assert.Equal(t, 1, idx)
	assert.Equal(t, "/archive/1.mp3", player.PlayCalls()[len(player.PlayCalls())-1])

	// At the start of a no-repeat playlist there is nothing before.
	require.NoError(t, tr.PlayAt(0))
	player.SetPosition(10 * time.Second)
	assert.ErrorIs(t, tr.Previous(), ErrNoNext)
}

func TestTransport_PlaylistShrinksWhilePlaying(t *testing.T) {
	for _, mode := range []RepeatMode{RepeatOne, RepeatAll, NoRepeat} {
		t.Run(mode.String(), func(t *testing.T) {
			lib, p := newFixture(5)
			player := NewMock()
			tr := NewTransport(lib, player, Options{Repeat: mode})
			require.NoError(t, tr.Load(p.ID))
			require.NoError(t, tr.PlayAt(4))

			require.True(t, p.Remove(4))
			require.True(t, p.Remove(3))

			require.NoError(t, tr.TrackFinished())
			_, idx := tr.Current()
			assert.Equal(t, 0, idx, "a lost position starts over")
			assert.Equal(t, "/archive/0.mp3", player.PlayCalls()[len(player.PlayCalls())-1])
			assert.Equal(t, StatePlaying, player.State())
		})
	}
}

func TestTransport_PreviousAfterShrinkSkipsGrace(t *testing.T) {
	lib, p := newFixture(5)
	player := NewMock()
	tr := NewTransport(lib, player, Options{Repeat: NoRepeat})
	require.NoError(t, tr.Load(p.ID))
	require.NoError(t, tr.PlayAt(4))
	require.True(t, p.Remove(4))

	player.SetPosition(time.Second)
	require.NoError(t, tr.Previous())
	assert.Empty(t, player.SeekCalls())
	_, idx := tr.Current()
	assert.Equal(t, 3, idx)
}

func TestTransport_PreviousFromNothingPlaysLast(t *testing.T) {
	lib, p := newFixture(5)
	player := NewMock()
	tr := NewTransport(lib, player, Options{Repeat: RepeatAll})
	require.NoError(t, tr.Load(p.ID))

	require.NoError(t, tr.Previous())
	_, idx := tr.Current()
	assert.Equal(t, 4, idx)
	assert.Equal(t, []string{"/archive/4.mp3"}, player.PlayCalls())
}

func TestTransport_SingleTrackPlaylist(t *testing.T) {
	lib, p := newFixture(1)
	player := NewMock()
	tr := NewTransport(lib, player, Options{Repeat: RepeatAll})
	require.NoError(t, tr.Load(p.ID))
	require.NoError(t, tr.PlayAt(0))

	assert.ErrorIs(t, tr.Next(), ErrNoNext)
	require.NoError(t, tr.TrackFinished())
	assert.Equal(t, StateStopped, player.State())
}

func TestTransport_DanglingEntry(t *testing.T) {
	lib, p := newFixture(2)
	p.Add(uuid.New(), 1) // dangling at index 1
	player := NewMock()
	tr := NewTransport(lib, player, Options{Repeat: NoRepeat})
	require.NoError(t, tr.Load(p.ID))
	require.NoError(t, tr.PlayAt(0))

	err := tr.Next()
	assert.ErrorIs(t, err, ErrNothingPlayable)
	assert.Len(t, player.PlayCalls(), 1, "player untouched for a dangling entry")

	// The next step moves past it.
	require.NoError(t, tr.Next())
	_, idx := tr.Current()
	assert.Equal(t, 2, idx)
}

func TestTransport_PlayError(t *testing.T) {
	lib, p := newFixture(2)
	player := NewMock()
	player.SetPlayError(errors.New("device busy"))
	tr := NewTransport(lib, player, Options{})
	require.NoError(t, tr.Load(p.ID))

	assert.Error(t, tr.PlayAt(0))
	_, idx := tr.Current()
	assert.Equal(t, -1, idx)
}

func TestTransport_ShuffleUsesPick(t *testing.T) {
	lib, p := newFixture(5)
	player := NewMock()
	tr := NewTransport(lib, player, Options{Shuffle: true, Pick: func(n int) int { return n - 1 }})
	require.NoError(t, tr.Load(p.ID))
	require.NoError(t, tr.PlayAt(0))

	require.NoError(t, tr.Next())
	_, idx := tr.Current()
	assert.Equal(t, 4, idx, "last position is reachable")
}

func TestTransport_Modes(t *testing.T) {
	lib, _ := newFixture(1)
	tr := NewTransport(lib, NewMock(), Options{})

	assert.Equal(t, RepeatAll, tr.RepeatMode())
	assert.Equal(t, RepeatOne, tr.CycleRepeatMode())
	tr.SetRepeatMode(NoRepeat)
	assert.Equal(t, NoRepeat, tr.RepeatMode())

	assert.False(t, tr.Shuffle())
	tr.SetShuffle(true)
	assert.True(t, tr.Shuffle())
}

func TestTransport_ConcurrentCallers(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		lib, p := newFixture(4)
		tr := NewTransport(lib, NewMock(), Options{})
		if err := tr.Load(p.ID); err != nil {
			t.Fatal(err)
		}

		done := make(chan struct{})
		for range 4 {
			go func() {
				defer func() { done <- struct{}{} }()
				for range 10 {
					_ = tr.Next()
				}
			}()
		}
		for range 4 {
			<-done
		}
		_, idx := tr.Current()
		if idx < 0 || idx >= 4 {
			t.Errorf("index = %d out of range", idx)
		}
	})
}
