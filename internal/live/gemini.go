package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/candidai/interview-gateway/internal/resilience"
	"github.com/candidai/interview-gateway/internal/transcript"
)

// DefaultLiveURL is the Gemini Live bidi websocket endpoint.
const DefaultLiveURL = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

// GeminiSession is a live transcription session against the Gemini Live API.
type GeminiSession struct {
	apiKey    string
	model     string
	url       string
	reconnect *resilience.ReconnectConfig

	ws     *websocket.Conn
	wsMu   sync.Mutex // serializes writes
	events chan Event
	done   chan struct{}

	mu        sync.Mutex
	connected bool
	closed    bool

	logger zerolog.Logger
}

// GeminiOption configures a GeminiSession.
type GeminiOption func(*GeminiSession)

// WithLiveURL overrides the websocket endpoint (used by tests).
func WithLiveURL(url string) GeminiOption {
	return func(s *GeminiSession) { s.url = url }
}

// WithReconnectConfig overrides the dial retry policy.
func WithReconnectConfig(cfg *resilience.ReconnectConfig) GeminiOption {
	return func(s *GeminiSession) { s.reconnect = cfg }
}

// NewGeminiSession creates an unopened session for the given model.
func NewGeminiSession(apiKey, model string, opts ...GeminiOption) *GeminiSession {
	s := &GeminiSession{
		apiKey:    apiKey,
		model:     model,
		url:       DefaultLiveURL,
		reconnect: resilience.DefaultReconnectConfig(),
		events:    make(chan Event, 64),
		done:      make(chan struct{}),
		logger:    log.With().Str("component", "live").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open dials the Live endpoint with retry, sends the setup frame, and
// starts the read loop.
func (s *GeminiSession) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.connected || s.closed {
		s.mu.Unlock()
		return fmt.Errorf("live session already used")
	}
	s.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	url := fmt.Sprintf("%s?key=%s", s.url, s.apiKey)
	err := resilience.Reconnect(ctx, func() error {
		ws, _, err := dialer.DialContext(ctx, url, header)
		if err != nil {
			return err
		}
		s.ws = ws
		return nil
	}, s.reconnect)
	if err != nil {
		return fmt.Errorf("failed to connect to live backend: %w", err)
	}

	if err := s.sendSetup(); err != nil {
		s.ws.Close()
		return fmt.Errorf("failed to configure live session: %w", err)
	}

	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()

	s.emit(Event{Type: EventOpened})
	go s.readLoop()
	return nil
}

// sendSetup configures the session for input audio transcription.
func (s *GeminiSession) sendSetup() error {
	setup := map[string]any{
		"setup": map[string]any{
			"model":                     "models/" + s.model,
			"input_audio_transcription": map[string]any{},
		},
	}
	return s.sendJSON(setup)
}

// SendAudio forwards one PCM16 16kHz mono frame as a realtime media chunk.
func (s *GeminiSession) SendAudio(frame []byte) error {
	s.mu.Lock()
	ok := s.connected && !s.closed
	s.mu.Unlock()
	if !ok {
		return ErrNotConnected
	}

	msg := map[string]any{
		"realtime_input": map[string]any{
			"media_chunks": []map[string]any{
				{
					"data":      base64.StdEncoding.EncodeToString(frame),
					"mime_type": "audio/pcm",
				},
			},
		},
	}
	return s.sendJSON(msg)
}

func (s *GeminiSession) Events() <-chan Event {
	return s.events
}

// Close tears down the connection. The read loop emits the closed event and
// closes the events channel on its way out.
func (s *GeminiSession) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	wasConnected := s.connected
	s.connected = false
	s.mu.Unlock()

	close(s.done)
	if s.ws != nil {
		err := s.ws.Close()
		if wasConnected {
			return err
		}
	}
	if !wasConnected {
		// Never opened, so there is no read loop to finish the channel.
		close(s.events)
	}
	return nil
}

// serverMessage is the subset of Live API payloads the gateway interprets.
// Everything else is forwarded raw.
type serverMessage struct {
	SetupComplete *struct{} `json:"setupComplete,omitempty"`
	ServerContent *struct {
		TurnComplete       bool `json:"turnComplete,omitempty"`
		InputTranscription *struct {
			Text    string `json:"text"`
			IsFinal bool   `json:"isFinal"`
		} `json:"inputTranscription,omitempty"`
	} `json:"serverContent,omitempty"`
}

func (s *GeminiSession) readLoop() {
	defer close(s.events)

	for {
		_, payload, err := s.ws.ReadMessage()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.connected = false
			s.mu.Unlock()

			if !closed {
				s.logger.Warn().Err(err).Msg("Live backend read failed")
				s.emit(Event{Type: EventError, Err: err})
			}
			s.emit(Event{Type: EventClosed})
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logger.Debug().Err(err).Msg("Skipping unparseable live message")
			continue
		}
		if msg.SetupComplete != nil {
			continue
		}

		s.emit(Event{Type: EventMessage, Payload: json.RawMessage(payload)})

		if sc := msg.ServerContent; sc != nil {
			if it := sc.InputTranscription; it != nil && it.Text != "" {
				s.emit(Event{
					Type: EventTranscript,
					Transcript: transcript.Event{
						Text: it.Text,
						// The Live API only surfaces committed transcription
						// text, so fragments count as final unless flagged.
						IsFinal: true,
					},
				})
			}
			if sc.TurnComplete {
				s.emit(Event{
					Type:       EventTranscript,
					Transcript: transcript.Event{TurnComplete: true},
				})
			}
		}
	}
}

func (s *GeminiSession) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *GeminiSession) sendJSON(v any) error {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	if s.ws == nil {
		return ErrNotConnected
	}
	return s.ws.WriteJSON(v)
}
