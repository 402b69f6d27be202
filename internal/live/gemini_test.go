package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/candidai/interview-gateway/internal/resilience"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// liveTestServer speaks just enough of the Live protocol for the client.
type liveTestServer struct {
	*httptest.Server
	setup    chan map[string]any
	frames   chan map[string]any
	outbound chan string
}

func newLiveTestServer(t *testing.T) *liveTestServer {
	t.Helper()
	srv := &liveTestServer{
		setup:    make(chan map[string]any, 1),
		frames:   make(chan map[string]any, 16),
		outbound: make(chan string, 16),
	}

	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Upgrade failed: %v", err)
			return
		}
		defer ws.Close()

		go func() {
			for msg := range srv.outbound {
				if err := ws.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
					return
				}
			}
			ws.Close()
		}()

		first := true
		for {
			var msg map[string]any
			if err := ws.ReadJSON(&msg); err != nil {
				return
			}
			if first {
				srv.setup <- msg
				first = false
				continue
			}
			srv.frames <- msg
		}
	}))

	return srv
}

func (s *liveTestServer) wsURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}

func fastReconnect() *resilience.ReconnectConfig {
	return &resilience.ReconnectConfig{
		MaxAttempts: 2,
		Backoff:     10 * time.Millisecond,
		Multiplier:  2.0,
		MaxBackoff:  50 * time.Millisecond,
	}
}

func openTestSession(t *testing.T, srv *liveTestServer) *GeminiSession {
	t.Helper()
	session := NewGeminiSession("test-key", "test-model",
		WithLiveURL(srv.wsURL()), WithReconnectConfig(fastReconnect()))
	if err := session.Open(context.Background()); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return session
}

func waitEvent(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("Event channel closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("Timed out waiting for %s event", want)
		}
	}
}

func TestGeminiSession_OpenSendsSetup(t *testing.T) {
	srv := newLiveTestServer(t)
	defer srv.Close()

	session := openTestSession(t, srv)
	defer session.Close()

	waitEvent(t, session.Events(), EventOpened)

	select {
	case setup := <-srv.setup:
		inner, ok := setup["setup"].(map[string]any)
		if !ok {
			t.Fatalf("Expected setup frame, got %v", setup)
		}
		if inner["model"] != "models/test-model" {
			t.Errorf("Expected models/test-model, got %v", inner["model"])
		}
		if _, ok := inner["input_audio_transcription"]; !ok {
			t.Error("Expected input_audio_transcription in setup frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for setup frame")
	}
}

func TestGeminiSession_SendAudio(t *testing.T) {
	srv := newLiveTestServer(t)
	defer srv.Close()

	session := openTestSession(t, srv)
	defer session.Close()
	waitEvent(t, session.Events(), EventOpened)

	frame := []byte{0x01, 0x02, 0x03, 0x04}
	if err := session.SendAudio(frame); err != nil {
		t.Fatalf("SendAudio failed: %v", err)
	}

	select {
	case msg := <-srv.frames:
		input, ok := msg["realtime_input"].(map[string]any)
		if !ok {
			t.Fatalf("Expected realtime_input frame, got %v", msg)
		}
		chunks := input["media_chunks"].([]any)
		chunk := chunks[0].(map[string]any)
		if chunk["mime_type"] != "audio/pcm" {
			t.Errorf("Expected audio/pcm mime type, got %v", chunk["mime_type"])
		}
		data, err := base64.StdEncoding.DecodeString(chunk["data"].(string))
		if err != nil || string(data) != string(frame) {
			t.Errorf("Frame payload did not round-trip: %v %q", err, data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for audio frame")
	}
}

func TestGeminiSession_SendAudioBeforeOpen(t *testing.T) {
	session := NewGeminiSession("test-key", "test-model")
	if err := session.SendAudio([]byte{1, 2}); err != ErrNotConnected {
		t.Errorf("Expected ErrNotConnected, got %v", err)
	}
}

func TestGeminiSession_TranscriptExtraction(t *testing.T) {
	srv := newLiveTestServer(t)
	defer srv.Close()

	session := openTestSession(t, srv)
	defer session.Close()
	waitEvent(t, session.Events(), EventOpened)

	srv.outbound <- `{"serverContent":{"inputTranscription":{"text":"Tell me about yourself"}}}`

	ev := waitEvent(t, session.Events(), EventTranscript)
	if ev.Transcript.Text != "Tell me about yourself" || !ev.Transcript.IsFinal {
		t.Errorf("Unexpected transcript event: %+v", ev.Transcript)
	}

	srv.outbound <- `{"serverContent":{"turnComplete":true}}`
	ev = waitEvent(t, session.Events(), EventTranscript)
	if !ev.Transcript.TurnComplete {
		t.Errorf("Expected turn-complete transcript event, got %+v", ev.Transcript)
	}
}

func TestGeminiSession_RawMessagesForwarded(t *testing.T) {
	srv := newLiveTestServer(t)
	defer srv.Close()

	session := openTestSession(t, srv)
	defer session.Close()
	waitEvent(t, session.Events(), EventOpened)

	raw := `{"serverContent":{"inputTranscription":{"text":"hi"}}}`
	srv.outbound <- raw

	ev := waitEvent(t, session.Events(), EventMessage)
	var decoded map[string]any
	if err := json.Unmarshal(ev.Payload, &decoded); err != nil {
		t.Fatalf("Raw payload was not valid JSON: %v", err)
	}
	if _, ok := decoded["serverContent"]; !ok {
		t.Errorf("Expected raw serverContent payload, got %s", ev.Payload)
	}
}

func TestGeminiSession_BackendCloseEmitsClosed(t *testing.T) {
	srv := newLiveTestServer(t)
	defer srv.Close()

	session := openTestSession(t, srv)
	waitEvent(t, session.Events(), EventOpened)

	close(srv.outbound) // server closes the socket

	waitEvent(t, session.Events(), EventClosed)
	session.Close()
}
