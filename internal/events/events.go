// Package events carries typed notifications between the countdown timers,
// the cue director and the playback transport.
package events

// Event is implemented by every notification published on a Bus.
type Event interface {
	isEvent()
}

// Timer identifies a countdown.
type Timer string

const (
	TimerMatch Timer = "match"
	TimerBreak Timer = "break"
)

// Mode tells whether a timer was running on its own or driven by a cycle.
type Mode int

const (
	ModeFree Mode = iota
	ModeSlave
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFree:
		return "Free"
	case ModeSlave:
		return "Slave"
	default:
		return "Unknown"
	}
}

// Channel selects the output a requested track is meant for.
type Channel int

const (
	ChannelMusic Channel = iota
	ChannelCue
	ChannelAmbient
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelMusic:
		return "Music"
	case ChannelCue:
		return "Cue"
	case ChannelAmbient:
		return "Ambient"
	default:
		return "Unknown"
	}
}

// TimerStarted is emitted when a countdown starts.
type TimerStarted struct {
	Timer Timer
}

// ThresholdCrossed is emitted once when the remaining time reaches Seconds.
type ThresholdCrossed struct {
	Timer   Timer
	Seconds int
}

// TimerEnded is emitted when a countdown reaches zero.
type TimerEnded struct {
	Timer Timer
}

// TimerStopped is emitted when a countdown is stopped before reaching zero.
type TimerStopped struct {
	Timer Timer
	Mode  Mode
}

// TrackRequested asks the owner of Channel to play the file at Path.
// Index is the playlist position, or -1 for sounds outside a playlist.
type TrackRequested struct {
	Path    string
	Index   int
	Channel Channel
}

func (TimerStarted) isEvent()     {}
func (ThresholdCrossed) isEvent() {}
func (TimerEnded) isEvent()       {}
func (TimerStopped) isEvent()     {}
func (TrackRequested) isEvent()   {}
