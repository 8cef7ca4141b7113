package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/synctest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/liveset/internal/config"
	"github.com/llehouerou/liveset/internal/cue"
	"github.com/llehouerou/liveset/internal/errmsg"
	"github.com/llehouerou/liveset/internal/events"
	"github.com/llehouerou/liveset/internal/library"
	"github.com/llehouerou/liveset/internal/tags"
	"github.com/llehouerou/liveset/internal/track"
)

// fakeExtract reads "artist|title|duration" from the file itself.
func fakeExtract(path string) (*tags.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(data), "|")
	if len(parts) != 3 {
		return nil, errors.New("not audio")
	}
	d, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return nil, err
	}
	return &tags.Metadata{Artist: parts[0], Title: parts[1], Duration: d}, nil
}

func writeSong(t *testing.T, dir, name, artist, title string, duration float64) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	content := fmt.Sprintf("%s|%s|%s", artist, title, strconv.FormatFloat(duration, 'f', -1, 64))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type harness struct {
	t   *testing.T
	cli *cli
	out *bytes.Buffer
	src string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		BaseDir:                t.TempDir(),
		ShutdownTimeoutSeconds: 5,
	}
	cfg.Playback.Repeat = "all"
	cfg.Playback.PreviousGraceSeconds = 5

	out := &bytes.Buffer{}
	return &harness{
		t:   t,
		cli: &cli{cfg: cfg, out: out, log: zerolog.Nop(), extract: fakeExtract},
		out: out,
		src: t.TempDir(),
	}
}

// run executes fn as one CLI invocation: start, command, save.
func (h *harness) run(fn func(s *session) error) string {
	h.t.Helper()
	h.out.Reset()
	require.NoError(h.t, h.cli.withEngine(fn))
	return h.out.String()
}

func (h *harness) runErr(fn func(s *session) error) error {
	h.t.Helper()
	h.out.Reset()
	return h.cli.withEngine(fn)
}

func (h *harness) song(name, title string) string {
	return writeSong(h.t, h.src, name, "Band", title, 200)
}

func TestCommands_PlaylistLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.run(func(s *session) error { return s.listPlaylists() })
	assert.Contains(t, out, "No playlists")

	out = h.run(func(s *session) error { return s.create("Warmup") })
	assert.Contains(t, out, "Created playlist Warmup")

	a, b, c := h.song("a.mp3", "Alpha"), h.song("b.mp3", "Bravo"), h.song("c.mp3", "Charlie")
	out = h.run(func(s *session) error { return s.add("Warmup", []string{a, b, c}, -1) })
	assert.Contains(t, out, "Added a.mp3")
	assert.Contains(t, out, "Added c.mp3")

	out = h.run(func(s *session) error { return s.show("Warmup") })
	assert.Regexp(t, `(?s)0 .*Alpha.*1 .*Bravo.*2 .*Charlie`, out)
	assert.Contains(t, out, "3 songs, 10m0s")

	out = h.run(func(s *session) error { return s.shift("Warmup", 2, true) })
	assert.Contains(t, out, "Moved position 2 to 1")
	out = h.run(func(s *session) error { return s.shift("Warmup", 0, true) })
	assert.Contains(t, out, "Position 0 unchanged")

	out = h.run(func(s *session) error { return s.removeAt("Warmup", 0) })
	assert.Contains(t, out, "Removed position 0")

	out = h.run(func(s *session) error { return s.show("Warmup") })
	assert.Regexp(t, `(?s)0 .*Charlie.*1 .*Bravo`, out)
	assert.NotContains(t, out, "Alpha")

	out = h.run(func(s *session) error { return s.rename("Warmup", "Finals") })
	assert.Contains(t, out, "Renamed Warmup to Finals")

	out = h.run(func(s *session) error { return s.listPlaylists() })
	assert.Contains(t, out, "Finals")
	assert.Contains(t, out, "2 songs")

	out = h.run(func(s *session) error { return s.listTracks() })
	assert.Contains(t, out, "2 tracks")
	assert.NotContains(t, out, "Alpha", "unreferenced track is dropped on save")

	h.run(func(s *session) error { return s.delete("Finals") })
	out = h.run(func(s *session) error { return s.listPlaylists() })
	assert.Contains(t, out, "No playlists")
	out = h.run(func(s *session) error { return s.listTracks() })
	assert.Contains(t, out, "No tracks")
}

func TestCommands_PlaylistByID(t *testing.T) {
	h := newHarness(t)

	h.run(func(s *session) error { return s.create("Same") })
	var id string
	h.run(func(s *session) error {
		id = s.lib.Playlists()[0].ID.String()
		return s.create("Same")
	})

	out := h.run(func(s *session) error { return s.rename(id, "Unique") })
	assert.Contains(t, out, "Renamed Same to Unique")
}

func TestCommands_PlaylistNotFound(t *testing.T) {
	h := newHarness(t)

	err := h.runErr(func(s *session) error { return s.show("nope") })
	require.ErrorIs(t, err, library.ErrPlaylistNotFound)
}

func TestCommands_RemoveTrackInstances(t *testing.T) {
	h := newHarness(t)
	a := h.song("a.mp3", "Alpha")
	id := track.ComputeID("Band", "Alpha", 200).String()

	h.run(func(s *session) error {
		s.lib.CreatePlaylist("Loop")
		return s.add("Loop", []string{a, a, a}, -1)
	})

	out := h.run(func(s *session) error { return s.removeTrack("Loop", id) })
	assert.Contains(t, out, "Removed 3 entries from Loop")
}

func TestCommands_AddRejectsEverything(t *testing.T) {
	h := newHarness(t)
	junk := filepath.Join(h.src, "notes.txt")
	require.NoError(t, os.WriteFile(junk, []byte("x"), 0o600))

	err := h.runErr(func(s *session) error {
		s.lib.CreatePlaylist("P")
		return s.add("P", []string{junk}, -1)
	})
	require.Error(t, err)
	assert.Contains(t, h.out.String(), "Skipped notes.txt")
}

func TestCommands_Import(t *testing.T) {
	h := newHarness(t)
	dir := filepath.Join(h.src, "set")
	writeSong(t, dir, "one.mp3", "Band", "One", 100)
	writeSong(t, dir, "sub/two.ogg", "Band", "Two", 120)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.flac"), []byte("garbage"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cover.jpg"), []byte("x"), 0o600))

	out := h.run(func(s *session) error { return s.importDir(dir, "Imported") })
	assert.Contains(t, out, "Created playlist Imported")
	assert.Contains(t, out, "Imported 2 songs into Imported (0 already archived, 1 failed)")
	assert.Contains(t, out, "bad.flac")

	out = h.run(func(s *session) error { return s.importDir(dir, "Imported") })
	assert.Contains(t, out, "Imported 0 songs into Imported (2 already archived, 1 failed)")

	out = h.run(func(s *session) error { return s.listTracks() })
	assert.Contains(t, out, "2 tracks")
}

func TestCommands_NextPreview(t *testing.T) {
	h := newHarness(t)
	files := []string{h.song("a.mp3", "Alpha"), h.song("b.mp3", "Bravo"), h.song("c.mp3", "Charlie")}
	h.run(func(s *session) error {
		s.lib.CreatePlaylist("Set")
		return s.add("Set", files, -1)
	})

	tests := []struct {
		name string
		opts nextOptions
		want []string
		end  bool
	}{
		{
			name: "repeat off stops at the end",
			opts: nextOptions{from: 1, count: 5, repeat: "off"},
			want: []string{"  1  Band - Bravo", "  2  Band - Charlie"},
			end:  true,
		},
		{
			name: "repeat all wraps",
			opts: nextOptions{from: 2, count: 2},
			want: []string{"  2  Band - Charlie", "  0  Band - Alpha", "  1  Band - Bravo"},
		},
		{
			name: "repeat one stays",
			opts: nextOptions{from: 1, count: 2, repeat: "one"},
			want: []string{"  1  Band - Bravo", "  1  Band - Bravo", "  1  Band - Bravo"},
		},
		{
			name: "backward wraps",
			opts: nextOptions{from: 0, count: 2, back: true},
			want: []string{"  0  Band - Alpha", "  2  Band - Charlie", "  1  Band - Bravo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.playlist = "Set"
			out := h.run(func(s *session) error { return s.next(tt.opts) })

			var got []string
			for _, line := range strings.Split(out, "\n") {
				if strings.Contains(line, "Band - ") {
					got = append(got, line)
				}
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.end, strings.Contains(out, "end of playlist"))
		})
	}
}

func TestCommands_NextShuffleNeverRepeatsCurrent(t *testing.T) {
	h := newHarness(t)
	files := []string{h.song("a.mp3", "Alpha"), h.song("b.mp3", "Bravo")}
	h.run(func(s *session) error {
		s.lib.CreatePlaylist("Duo")
		return s.add("Duo", files, -1)
	})

	out := h.run(func(s *session) error {
		return s.next(nextOptions{playlist: "Duo", count: 4, shuffle: true, shuffleSet: true})
	})
	assert.Contains(t, out, "shuffle true")
	assert.Contains(t, out, "  0  Band - Alpha\n  1  Band - Bravo\n  0  Band - Alpha\n  1  Band - Bravo\n  0  Band - Alpha")
}

func TestCommands_NextErrors(t *testing.T) {
	h := newHarness(t)
	h.run(func(s *session) error {
		if err := s.create("Empty"); err != nil {
			return err
		}
		p := s.lib.CreatePlaylist("One")
		return s.lib.AddFile(p.ID, h.song("a.mp3", "Alpha"), -1)
	})

	out := h.run(func(s *session) error { return s.next(nextOptions{playlist: "Empty", count: 1}) })
	assert.Contains(t, out, "Empty is empty")

	err := h.runErr(func(s *session) error { return s.next(nextOptions{playlist: "One", from: 3, count: 1}) })
	require.Error(t, err)

	err = h.runErr(func(s *session) error { return s.next(nextOptions{playlist: "One", repeat: "twice"}) })
	require.Error(t, err)
}

func TestCommands_Ambient(t *testing.T) {
	h := newHarness(t)
	rain := writeSong(t, h.src, "rain.ogg", "", "rain", 61.648)
	sax := writeSong(t, h.src, "sax.mp3", "", "sax", 30)

	out := h.run(func(s *session) error { return s.listAmbient() })
	assert.Contains(t, out, "No ambient tracks")

	h.run(func(s *session) error { return s.addAmbient(rain) })
	h.run(func(s *session) error { return s.addAmbient(sax) })

	out = h.run(func(s *session) error { return s.selectAmbient("2") })
	assert.Contains(t, out, "Selected ambient track sax")

	out = h.run(func(s *session) error { return s.listAmbient() })
	assert.Contains(t, out, "*  2")
	assert.Contains(t, out, "   1")

	id := track.ComputeID(track.UnknownArtist, "rain", 61.648).String()
	out = h.run(func(s *session) error { return s.selectAmbient(id) })
	assert.Contains(t, out, "Selected ambient track rain")

	out = h.run(func(s *session) error { return s.selectAmbient("none") })
	assert.Contains(t, out, "Ambient track cleared")

	err := h.runErr(func(s *session) error { return s.selectAmbient("9") })
	require.ErrorIs(t, err, library.ErrTrackNotFound)
}

func TestCommands_WatchRequiresDir(t *testing.T) {
	h := newHarness(t)

	err := h.runErr(func(s *session) error { return s.watch(context.Background(), "P", "") })
	require.Error(t, err)
}

func TestCommands_WatchAddsDroppedFiles(t *testing.T) {
	h := newHarness(t)
	inboxDir := filepath.Join(h.src, "inbox")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errc := make(chan error, 1)
	go func() {
		errc <- h.cli.withEngine(func(s *session) error {
			go func() {
				// Wait for the watcher to be registered, then drop a file.
				time.Sleep(100 * time.Millisecond)
				drop := filepath.Join(inboxDir, "drop.mp3")
				if err := os.WriteFile(drop, []byte("Band|Dropped|90"), 0o600); err != nil {
					t.Error(err)
				}
			}()
			go func() {
				time.Sleep(2 * time.Second)
				cancel()
			}()
			return s.watch(ctx, "Inbox", inboxDir)
		})
	}()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("watch did not return")
	}

	out := h.run(func(s *session) error { return s.show("Inbox") })
	assert.Contains(t, out, "Band - Dropped")
}

type fakeAmbient struct{ path string }

func (f fakeAmbient) SelectedAmbientTrack() (*track.Track, bool) {
	return &track.Track{Path: f.path, Title: "rain"}, true
}

func TestCountdownRun_FreeMode(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer
		r := countdownRun{
			match:  70 * time.Second,
			brk:    10 * time.Second,
			sounds: cue.Sounds{MatchStart: "/s/start.mp3", MatchEnd: "/s/end.mp3", FiveSeconds: "/s/five.mp3", OneMinuteMatch: "/s/minute.mp3"},
			log:    zerolog.Nop(),
		}

		require.NoError(t, r.run(context.Background(), &out))

		want := []string{
			"Match 1m10s, break 10s, cycling false",
			"match started",
			"  play start.mp3 on Cue",
			"match: 60s left",
			"  play minute.mp3 on Cue",
			"match: 5s left",
			"  play five.mp3 on Cue",
			"match ended",
			"  play end.mp3 on Cue",
		}
		assert.Equal(t, want, strings.Split(strings.TrimSpace(out.String()), "\n"))
	})
}

func TestCountdownRun_CycleRequestsAmbient(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var out bytes.Buffer
		r := countdownRun{
			match:   10 * time.Second,
			brk:     8 * time.Second,
			cycle:   true,
			sounds:  cue.Sounds{FiveSeconds: "/s/five.mp3"},
			ambient: fakeAmbient{path: "/amb/rain.ogg"},
			log:     zerolog.Nop(),
		}

		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		require.NoError(t, r.run(ctx, &out))

		text := out.String()
		assert.Contains(t, text, "match ended\nbreak started\n  play rain.ogg on Ambient\n")
		assert.Contains(t, text, "break: 5s left\n  play five.mp3 on Cue\n")
		assert.Contains(t, text, "break ended\nmatch started\n")
	})
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		ev   events.Event
		want string
	}{
		{events.TimerStarted{Timer: events.TimerBreak}, "break started"},
		{events.ThresholdCrossed{Timer: events.TimerMatch, Seconds: 60}, "match: 60s left"},
		{events.TimerEnded{Timer: events.TimerMatch}, "match ended"},
		{events.TimerStopped{Timer: events.TimerMatch, Mode: events.ModeSlave}, "match stopped (Slave)"},
		{events.TrackRequested{Path: "/a.mp3"}, "track requested: /a.mp3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, describe(tt.ev))
	}
}

func TestOpFor(t *testing.T) {
	assert.Equal(t, errmsg.OpPlaylistMove, opFor("up"))
	assert.Equal(t, errmsg.OpPlaylistMove, opFor("down"))
	assert.Equal(t, errmsg.OpAmbientSelect, opFor("ambient select"))
	assert.Equal(t, errmsg.OpInboxWatch, opFor("watch"))
	assert.Equal(t, errmsg.Op("mystery"), opFor("mystery"))
}
