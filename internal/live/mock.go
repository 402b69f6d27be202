package live

import (
	"context"
	"sync"
)

// MockSession is a scriptable Session for relay and pipeline tests.
type MockSession struct {
	mu        sync.Mutex
	opened    bool
	closed    bool
	sent      [][]byte
	events    chan Event
	OpenErr   error
	SendErr   error
	OpenDelay func() // runs inside Open before the opened event, if set
}

func NewMockSession() *MockSession {
	return &MockSession{events: make(chan Event, 64)}
}

func (m *MockSession) Open(ctx context.Context) error {
	if m.OpenDelay != nil {
		m.OpenDelay()
	}
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.mu.Lock()
	m.opened = true
	m.mu.Unlock()
	m.events <- Event{Type: EventOpened}
	return nil
}

func (m *MockSession) SendAudio(frame []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opened || m.closed {
		return ErrNotConnected
	}
	if m.SendErr != nil {
		return m.SendErr
	}
	copied := append([]byte(nil), frame...)
	m.sent = append(m.sent, copied)
	return nil
}

func (m *MockSession) Events() <-chan Event {
	return m.events
}

func (m *MockSession) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.mu.Unlock()

	m.events <- Event{Type: EventClosed}
	close(m.events)
	return nil
}

// Emit injects a backend event into the stream.
func (m *MockSession) Emit(ev Event) {
	m.events <- ev
}

// SentFrames returns a copy of the audio frames received so far.
func (m *MockSession) SentFrames() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.sent...)
}

// Closed reports whether Close was called.
func (m *MockSession) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
