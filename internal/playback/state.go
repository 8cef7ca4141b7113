package playback

import (
	"fmt"
	"strings"
)

// State represents the playback state.
type State int

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if playback is active (playing or paused).
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// RepeatMode defines the repeat behavior.
type RepeatMode int

const (
	RepeatAll RepeatMode = iota
	RepeatOne
	NoRepeat
)

// String returns the repeat mode name.
func (m RepeatMode) String() string {
	switch m {
	case RepeatAll:
		return "All"
	case RepeatOne:
		return "One"
	case NoRepeat:
		return "Off"
	default:
		return "Unknown"
	}
}

// Next returns the mode following m in the All, One, Off cycle.
func (m RepeatMode) Next() RepeatMode {
	switch m {
	case RepeatAll:
		return RepeatOne
	case RepeatOne:
		return NoRepeat
	default:
		return RepeatAll
	}
}

// ParseRepeatMode accepts the String form, case-insensitively.
func ParseRepeatMode(s string) (RepeatMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "all":
		return RepeatAll, nil
	case "one":
		return RepeatOne, nil
	case "off", "none":
		return NoRepeat, nil
	default:
		return RepeatAll, fmt.Errorf("unknown repeat mode %q", s)
	}
}
