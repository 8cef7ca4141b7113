package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/countdown"
	"github.com/llehouerou/liveset/internal/cue"
	"github.com/llehouerou/liveset/internal/events"
)

type countdownRun struct {
	match, brk time.Duration
	cycle      bool
	sounds     cue.Sounds
	ambient    cue.AmbientSource // nil disables break music
	log        zerolog.Logger
}

func (s *session) countdown(ctx context.Context, match, brk time.Duration, cycle bool) error {
	if match <= 0 {
		match = s.cfg.MatchLength()
	}
	if brk <= 0 {
		brk = s.cfg.BreakLength()
	}
	r := countdownRun{
		match: match,
		brk:   brk,
		cycle: cycle || s.cfg.Timers.Cycling,
		sounds: cue.Sounds{
			MatchStart:     s.cfg.SoundPath(s.cfg.Cues.MatchStart),
			MatchEnd:       s.cfg.SoundPath(s.cfg.Cues.MatchEnd),
			FiveSeconds:    s.cfg.SoundPath(s.cfg.Cues.FiveSeconds),
			OneMinuteMatch: s.cfg.SoundPath(s.cfg.Cues.OneMinuteMatch),
			OneMinuteBreak: s.cfg.SoundPath(s.cfg.Cues.OneMinuteBreak),
		},
		log: s.log,
	}
	if s.cfg.AmbientEnabled() {
		r.ambient = s.lib
	}
	return r.run(ctx, s.out)
}

// run drives the timers and prints every event with the sounds it
// requests. In free mode it returns when the match ends; when cycling it
// runs until ctx is done.
func (r countdownRun) run(ctx context.Context, out io.Writer) error {
	bus := events.NewBus()
	defer bus.Close()
	sub := bus.Subscribe()

	opts := countdown.Options{Logger: &r.log}
	cycle := countdown.NewCycle(
		countdown.New(events.TimerMatch, r.match, bus, opts),
		countdown.New(events.TimerBreak, r.brk, bus, opts),
	)
	cycle.SetCycling(r.cycle)
	director := cue.New(r.sounds, r.ambient, &r.log)

	fmt.Fprintf(out, "Match %s, break %s, cycling %v\n", r.match, r.brk, r.cycle)
	cycle.Start()
	defer cycle.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-sub.Done:
			return nil
		case ev := <-sub.Events:
			fmt.Fprintf(out, "%s\n", describe(ev))
			for _, req := range director.Handle(ev) {
				fmt.Fprintf(out, "  play %s on %s\n", filepath.Base(req.Path), req.Channel)
			}
			if end, ok := ev.(events.TimerEnded); ok && end.Timer == events.TimerMatch && !r.cycle {
				return nil
			}
		}
	}
}

func describe(e events.Event) string {
	switch ev := e.(type) {
	case events.TimerStarted:
		return fmt.Sprintf("%s started", ev.Timer)
	case events.ThresholdCrossed:
		return fmt.Sprintf("%s: %ds left", ev.Timer, ev.Seconds)
	case events.TimerEnded:
		return fmt.Sprintf("%s ended", ev.Timer)
	case events.TimerStopped:
		return fmt.Sprintf("%s stopped (%s)", ev.Timer, ev.Mode)
	case events.TrackRequested:
		return fmt.Sprintf("track requested: %s", ev.Path)
	default:
		return fmt.Sprintf("%T", e)
	}
}
