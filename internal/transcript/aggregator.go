// Package transcript merges interim and finalized speech fragments into a
// stable question buffer for one session.
package transcript

import (
	"strings"
	"sync"
)

// Event is one transcription fragment from the live backend
type Event struct {
	Text         string `json:"text"`
	IsFinal      bool   `json:"isFinal"`
	TurnComplete bool   `json:"turnComplete"`
}

// Aggregator maintains the finalized question buffer and the volatile
// interim text for a single session. All methods are safe for concurrent use.
type Aggregator struct {
	mu          sync.Mutex
	finalBuffer strings.Builder
	liveBuffer  string
}

// NewAggregator creates an empty aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Apply folds one transcript event into the buffers. Final fragments are
// appended to the question buffer with a separating space; interim fragments
// replace the live text without persisting. Returns true if the finalized
// buffer grew.
func (a *Aggregator) Apply(ev Event) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !ev.IsFinal {
		a.liveBuffer = ev.Text
		return false
	}

	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return false
	}
	if a.finalBuffer.Len() > 0 {
		a.finalBuffer.WriteByte(' ')
	}
	a.finalBuffer.WriteString(text)
	a.liveBuffer = ""
	return true
}

// CurrentQuestion returns the trimmed finalized buffer
func (a *Aggregator) CurrentQuestion() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return strings.TrimSpace(a.finalBuffer.String())
}

// DisplayText returns the finalized buffer followed by the interim text,
// for presentation while the user is still talking.
func (a *Aggregator) DisplayText() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalBuffer.Len() == 0 {
		return a.liveBuffer
	}
	if a.liveBuffer == "" {
		return a.finalBuffer.String()
	}
	return a.finalBuffer.String() + " " + a.liveBuffer
}

// Consume atomically returns the trimmed question and clears both buffers.
// No event applied concurrently can be lost or duplicated: it either lands
// before the clear (included in the returned question) or after (starts the
// next turn).
func (a *Aggregator) Consume() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	question := strings.TrimSpace(a.finalBuffer.String())
	a.finalBuffer.Reset()
	a.liveBuffer = ""
	return question
}

// Reset clears both buffers without returning anything
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.finalBuffer.Reset()
	a.liveBuffer = ""
}
