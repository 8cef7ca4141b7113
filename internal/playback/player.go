package playback

import "time"

// Player is the audio output capability driven by the transport.
type Player interface {
	Play(path string) error
	Stop()
	Position() time.Duration
	SeekTo(position time.Duration)
}

// Mock is a test double for Player.
type Mock struct {
	state     State
	position  time.Duration
	playErr   error
	playCalls []string
	seekCalls []time.Duration
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{state: StateStopped}
}

func (m *Mock) Play(path string) error {
	m.playCalls = append(m.playCalls, path)
	if m.playErr != nil {
		return m.playErr
	}
	m.state = StatePlaying
	m.position = 0
	return nil
}

func (m *Mock) Stop() { m.state = StateStopped }

func (m *Mock) Position() time.Duration { return m.position }

func (m *Mock) SeekTo(d time.Duration) {
	m.seekCalls = append(m.seekCalls, d)
	m.position = d
}

// Test helpers

func (m *Mock) State() State { return m.state }

func (m *Mock) SetPosition(d time.Duration) { m.position = d }

func (m *Mock) SetPlayError(err error) { m.playErr = err }

func (m *Mock) PlayCalls() []string { return m.playCalls }

func (m *Mock) SeekCalls() []time.Duration { return m.seekCalls }

// Verify Mock implements Player at compile time.
var _ Player = (*Mock)(nil)
