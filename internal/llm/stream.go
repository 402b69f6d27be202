package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Stream iterates over the text deltas of an SSE streamGenerateContent
// response. Next returns io.EOF when the stream is complete.
type Stream struct {
	reader   *bufio.Reader
	closer   io.Closer
	err      error
	finished bool
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{
		reader: bufio.NewReader(body),
		closer: body,
	}
}

// Next returns the next non-empty text delta.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.finished {
		return "", io.EOF
	}

	for {
		line, err := s.reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				s.finished = true
				return "", io.EOF
			}
			s.err = err
			return "", err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// SSE frame: "data: <json>"
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "" || data == "[DONE]" {
			s.finished = true
			return "", io.EOF
		}

		var chunk geminiResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip unparseable chunks rather than aborting the stream.
			continue
		}

		if text := chunk.candidateText(); text != "" {
			return text, nil
		}
	}
}

// Drain collects the remaining deltas into one string.
func (s *Stream) Drain() (string, error) {
	var b strings.Builder
	for {
		delta, err := s.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(delta)
	}
}

// Close releases the underlying response body.
func (s *Stream) Close() error {
	return s.closer.Close()
}
