// Package countdown implements the match and break timers. Timers publish
// their lifecycle on an events.Bus; they never call into the library.
package countdown

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/llehouerou/liveset/internal/events"
)

// DefaultThresholds are the remaining-seconds marks announced while running.
var DefaultThresholds = []int{60, 5}

// Options configures a Countdown.
type Options struct {
	Tick       time.Duration // defaults to one second
	Thresholds []int         // defaults to DefaultThresholds
	Logger     *zerolog.Logger
}

// Countdown counts down from a fixed length. It is safe for concurrent use.
type Countdown struct {
	mu sync.Mutex

	name       events.Timer
	length     time.Duration
	tick       time.Duration
	thresholds []int
	bus        *events.Bus
	log        zerolog.Logger
	onEnd      func()

	remaining time.Duration
	active    bool // started and not yet ended or stopped
	running   bool // active and not paused
	mode      events.Mode
	halt      chan struct{}
	wg        sync.WaitGroup
}

// New creates a stopped countdown of the given length.
func New(name events.Timer, length time.Duration, bus *events.Bus, opts Options) *Countdown {
	c := &Countdown{
		name:       name,
		length:     length,
		tick:       opts.Tick,
		thresholds: opts.Thresholds,
		bus:        bus,
		log:        zerolog.Nop(),
		remaining:  length,
	}
	if c.tick <= 0 {
		c.tick = time.Second
	}
	if c.thresholds == nil {
		c.thresholds = DefaultThresholds
	}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("timer", string(name)).Logger()
	}
	return c
}

// Name returns the timer identifier.
func (c *Countdown) Name() events.Timer { return c.name }

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Running reports whether the countdown is ticking.
func (c *Countdown) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// SetLength changes the full length. A stopped countdown is reset to it.
func (c *Countdown) SetLength(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.length = d
	if !c.active {
		c.remaining = d
	}
}

func (c *Countdown) setMode(m events.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *Countdown) setOnEnd(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEnd = fn
}

// Start starts the countdown, or resumes it when paused.
func (c *Countdown) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}
	if !c.active {
		c.active = true
		c.remaining = c.length
		c.publish(events.TimerStarted{Timer: c.name})
		c.log.Info().Str("length", formatRemaining(c.length)).Msg("timer started")
	}
	c.running = true
	c.halt = make(chan struct{})
	c.wg.Add(1)
	go c.run(c.halt)
}

// Pause stops ticking and keeps the remaining time.
func (c *Countdown) Pause() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	close(c.halt)
	c.mu.Unlock()

	c.wg.Wait()
}

// Stop halts the countdown and resets it. TimerStopped is published when
// the countdown was active.
func (c *Countdown) Stop() {
	c.mu.Lock()
	wasActive := c.active
	if c.running {
		close(c.halt)
	}
	c.running = false
	c.active = false
	c.remaining = c.length
	if wasActive {
		c.publish(events.TimerStopped{Timer: c.name, Mode: c.mode})
		c.log.Info().Stringer("mode", c.mode).Msg("timer stopped")
	}
	c.mu.Unlock()

	c.wg.Wait()
}

func (c *Countdown) run(halt <-chan struct{}) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-halt:
			return
		case <-ticker.C:
			if ended, onEnd := c.advance(); ended {
				if onEnd != nil {
					go onEnd()
				}
				return
			}
		}
	}
}

// advance applies one tick. It reports whether the countdown ended.
func (c *Countdown) advance() (bool, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return true, nil
	}
	prev := c.remaining
	c.remaining -= c.tick
	for _, s := range c.thresholds {
		mark := time.Duration(s) * time.Second
		if prev > mark && c.remaining <= mark {
			c.publish(events.ThresholdCrossed{Timer: c.name, Seconds: s})
		}
	}
	if c.remaining > 0 {
		return false, nil
	}

	c.running = false
	c.active = false
	c.remaining = c.length
	c.publish(events.TimerEnded{Timer: c.name})
	c.log.Info().Msg("timer ended")
	return true, c.onEnd
}

func (c *Countdown) publish(e events.Event) {
	if c.bus != nil {
		c.bus.Publish(e)
	}
}

// formatRemaining renders d as MM:SS, or HH:MM:SS past one hour.
func formatRemaining(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	if secs < 0 {
		secs = 0
	}
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// Format renders the remaining time of c.
func (c *Countdown) Format() string {
	return formatRemaining(c.Remaining())
}
