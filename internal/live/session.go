// Package live connects to the Gemini Live bidirectional websocket API.
// The gateway uses it for realtime input-audio transcription: audio frames
// go up, transcript fragments and turn boundaries come back.
package live

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/candidai/interview-gateway/internal/transcript"
)

// ErrNotConnected is returned when audio is sent before the session opened
// or after it closed.
var ErrNotConnected = errors.New("live session not connected")

// EventType discriminates session events.
type EventType string

const (
	EventOpened     EventType = "opened"
	EventMessage    EventType = "message"
	EventTranscript EventType = "transcript"
	EventError      EventType = "error"
	EventClosed     EventType = "closed"
)

// Event is one occurrence on a live session. Message events carry the raw
// backend payload so the relay can forward it unmodified; transcript events
// are extracted from the same payloads for the assist pipeline.
type Event struct {
	Type       EventType
	Payload    json.RawMessage
	Transcript transcript.Event
	Err        error
}

// Session is one bidirectional streaming connection to the transcription
// backend. Implementations must support exactly one Open/Close cycle.
type Session interface {
	// Open establishes the connection and starts the read loop. An opened
	// event is emitted on success.
	Open(ctx context.Context) error

	// SendAudio forwards one PCM16 frame. Returns ErrNotConnected before
	// Open or after Close.
	SendAudio(frame []byte) error

	// Events returns the event stream. The channel is closed after the
	// closed event when the session terminates.
	Events() <-chan Event

	// Close tears the connection down. Safe to call more than once.
	Close() error
}
