package countdown

import "github.com/llehouerou/liveset/internal/events"

// Cycle chains a match and a break countdown: when cycling, the end of one
// starts the other. Timers driven by a cycle report ModeSlave when stopped.
type Cycle struct {
	Match *Countdown
	Break *Countdown

	cycling bool
}

// NewCycle wires match and brk together. Cycling starts disabled.
func NewCycle(match, brk *Countdown) *Cycle {
	c := &Cycle{Match: match, Break: brk}
	c.SetCycling(false)
	return c
}

// Cycling reports whether the timers chain into each other.
func (c *Cycle) Cycling() bool { return c.cycling }

// SetCycling toggles chaining. In free mode each timer runs once.
func (c *Cycle) SetCycling(on bool) {
	c.cycling = on
	if !on {
		c.Match.setOnEnd(nil)
		c.Break.setOnEnd(nil)
		c.Match.setMode(events.ModeFree)
		c.Break.setMode(events.ModeFree)
		return
	}
	c.Match.setOnEnd(c.Break.Start)
	c.Break.setOnEnd(c.Match.Start)
	c.Match.setMode(events.ModeSlave)
	c.Break.setMode(events.ModeSlave)
}

// Start starts the match timer.
func (c *Cycle) Start() {
	c.Match.Start()
}

// Stop stops both timers.
func (c *Cycle) Stop() {
	c.Match.Stop()
	c.Break.Stop()
}
