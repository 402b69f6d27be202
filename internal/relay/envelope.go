package relay

import "encoding/json"

// Envelope types on the client wire. Inbound carries audio; everything else
// flows server to client.
const (
	TypeAudioInput  = "audio_input"
	TypeLiveOpen    = "live_open"
	TypeLiveMessage = "live_message"
	TypeLiveError   = "live_error"
	TypeLiveClose   = "live_close"
	TypeSpeechState = "speech_state"
	TypeAudioLevel  = "audio_level"
)

// ClientMessage is a message from the client. For audio_input the payload is
// base64-encoded PCM16 mono 16kHz audio.
type ClientMessage struct {
	Type    string `json:"type"`
	Payload string `json:"payload,omitempty"`
}

// Envelope is a discriminated server-to-client message.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func liveOpenEnvelope() Envelope {
	return Envelope{Type: TypeLiveOpen}
}

func liveMessageEnvelope(payload json.RawMessage) Envelope {
	return Envelope{Type: TypeLiveMessage, Payload: payload}
}

func liveErrorEnvelope(message string) Envelope {
	payload, _ := json.Marshal(message)
	return Envelope{Type: TypeLiveError, Payload: payload}
}

func liveCloseEnvelope() Envelope {
	return Envelope{Type: TypeLiveClose}
}

func speechStateEnvelope(speaking bool) Envelope {
	payload, _ := json.Marshal(struct {
		Speaking bool `json:"speaking"`
	}{speaking})
	return Envelope{Type: TypeSpeechState, Payload: payload}
}

func audioLevelEnvelope(level float64) Envelope {
	payload, _ := json.Marshal(struct {
		Level float64 `json:"level"`
	}{level})
	return Envelope{Type: TypeAudioLevel, Payload: payload}
}
