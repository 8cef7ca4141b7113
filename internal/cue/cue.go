// Package cue turns timer notifications into sound requests: buzzers and
// spoken warnings on the cue channel, and the selected ambient track when a
// break starts.
package cue

import (
	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/events"
	"github.com/llehouerou/liveset/internal/track"
)

// Sounds holds the paths of the cue files. An empty path disables that cue.
type Sounds struct {
	MatchStart     string
	MatchEnd       string
	FiveSeconds    string
	OneMinuteMatch string
	OneMinuteBreak string
}

// AmbientSource provides the ambient track to play during breaks.
type AmbientSource interface {
	SelectedAmbientTrack() (*track.Track, bool)
}

// Director maps timer events to track requests. It keeps no state besides
// its configuration and is meant to run on the owner goroutine.
type Director struct {
	sounds  Sounds
	ambient AmbientSource
	enabled bool
	log     zerolog.Logger
}

// New creates a director. ambient may be nil to disable break music.
func New(sounds Sounds, ambient AmbientSource, logger *zerolog.Logger) *Director {
	d := &Director{
		sounds:  sounds,
		ambient: ambient,
		enabled: ambient != nil,
		log:     zerolog.Nop(),
	}
	if logger != nil {
		d.log = logger.With().Str("component", "cue").Logger()
	}
	return d
}

// SetAmbientEnabled toggles ambient requests on break start.
func (d *Director) SetAmbientEnabled(on bool) {
	d.enabled = on && d.ambient != nil
}

// Handle returns the requests triggered by e, in play order.
func (d *Director) Handle(e events.Event) []events.TrackRequested {
	switch ev := e.(type) {
	case events.TimerStarted:
		if ev.Timer == events.TimerMatch {
			return d.cue(d.sounds.MatchStart)
		}
		return d.ambientTrack()

	case events.ThresholdCrossed:
		switch ev.Seconds {
		case 60:
			if ev.Timer == events.TimerMatch {
				return d.cue(d.sounds.OneMinuteMatch)
			}
			return d.cue(d.sounds.OneMinuteBreak)
		case 5:
			return d.cue(d.sounds.FiveSeconds)
		}

	case events.TimerEnded:
		if ev.Timer == events.TimerMatch {
			return d.cue(d.sounds.MatchEnd)
		}
	}
	return nil
}

func (d *Director) cue(path string) []events.TrackRequested {
	if path == "" {
		return nil
	}
	return []events.TrackRequested{{Path: path, Index: -1, Channel: events.ChannelCue}}
}

func (d *Director) ambientTrack() []events.TrackRequested {
	if !d.enabled {
		return nil
	}
	t, ok := d.ambient.SelectedAmbientTrack()
	if !ok {
		d.log.Debug().Msg("break started without a selected ambient track")
		return nil
	}
	return []events.TrackRequested{{Path: t.Path, Index: -1, Channel: events.ChannelAmbient}}
}
