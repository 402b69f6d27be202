// Package parser turns a token-chunked suggestion stream into its two named
// sections as they arrive.
package parser

import "strings"

const (
	// Section markers emitted by the copilot prompt, in this order
	TalkingPointsMarker = "### Talking Points"
	ExampleAnswerMarker = "### Example Answer"
)

// Sections is the result of splitting an accumulated response
type Sections struct {
	TalkingPoints string
	ExampleAnswer string
}

// Split re-parses the full accumulated text against the two-section grammar.
// It is a pure function: the same final string always yields the same split
// regardless of how it was chunked.
func Split(accumulated string) Sections {
	afterTP := accumulated
	if idx := strings.Index(accumulated, TalkingPointsMarker); idx >= 0 {
		afterTP = accumulated[idx+len(TalkingPointsMarker):]
	}

	if idx := strings.Index(afterTP, ExampleAnswerMarker); idx >= 0 {
		return Sections{
			TalkingPoints: strings.TrimSpace(afterTP[:idx]),
			ExampleAnswer: strings.TrimSpace(afterTP[idx+len(ExampleAnswerMarker):]),
		}
	}

	// Example-answer marker not (yet) present: everything belongs to the
	// talking-points section. A stream cut short here is still a valid
	// partial result.
	return Sections{TalkingPoints: strings.TrimSpace(afterTP)}
}

// Stream accumulates chunks and exposes the live split. The only state is
// the accumulator; every Feed re-runs Split from scratch so chunk boundaries
// can never change the outcome.
type Stream struct {
	accumulated strings.Builder
	failed      bool
	sentinel    string
	rateLimited bool
}

// NewStream creates an empty stream accumulator
func NewStream() *Stream {
	return &Stream{}
}

// Feed appends one chunk and returns the current split. If the chunk is a
// recognized error sentinel the whole response is treated as failed, even
// when content already streamed: the backend writes the error message as an
// in-band chunk wherever the failure happens. The accumulator stops growing
// and the sentinel text becomes the displayed content.
func (s *Stream) Feed(chunk string) Sections {
	if s.failed {
		return s.Current()
	}

	if label, rateLimited, ok := MatchSentinel(chunk); ok {
		s.failed = true
		s.sentinel = label
		s.rateLimited = rateLimited
		return s.Current()
	}

	s.accumulated.WriteString(chunk)
	return Split(s.accumulated.String())
}

// Current returns the split of everything accumulated so far
func (s *Stream) Current() Sections {
	if s.failed {
		return Sections{TalkingPoints: s.sentinel}
	}
	return Split(s.accumulated.String())
}

// Failed reports whether an error sentinel terminated the stream
func (s *Stream) Failed() bool {
	return s.failed
}

// RateLimited reports whether the terminating sentinel indicates backend
// throttling, which must route the session into the cooldown path.
func (s *Stream) RateLimited() bool {
	return s.rateLimited
}

// Text returns the raw accumulated text, or the sentinel after a failure
func (s *Stream) Text() string {
	if s.failed {
		return s.sentinel
	}
	return s.accumulated.String()
}
