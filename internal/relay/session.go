// Package relay bridges a client websocket to a live speech backend
// session. One Relay owns one client connection and one backend session;
// audio flows client to backend, everything else flows back wrapped in
// typed envelopes. Audio is never buffered: frames that arrive before the
// backend is ready, or while the outbound path is saturated, are dropped.
package relay

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/audio"
	"github.com/candidai/interview-gateway/internal/live"
	"github.com/candidai/interview-gateway/internal/observability"
	"github.com/candidai/interview-gateway/internal/transcript"
)

// audio_level envelopes are advisory UI hints; emit one per this many frames.
const levelEveryNFrames = 5

// ClientConn is the subset of *websocket.Conn the relay needs. Tests
// substitute an in-memory implementation.
type ClientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// TranscriptSink receives transcription events extracted from the live
// backend. The conversation engine implements this.
type TranscriptSink interface {
	HandleTranscript(sessionID string, ev transcript.Event)
}

// Relay pumps one client websocket against one live backend session.
type Relay struct {
	id     string
	conn   ClientConn
	live   live.Session
	sink   TranscriptSink
	vad    *audio.VADDetector
	logger zerolog.Logger

	// outbound is the only path to the client socket; writeLoop is the
	// single writer.
	outbound chan Envelope
	done     chan struct{}

	liveReady  atomic.Bool
	frameCount int
}

// NewRelay builds a relay for one client connection. The live session must
// not be opened yet; Run opens it.
func NewRelay(id string, conn ClientConn, liveSession live.Session, sink TranscriptSink, vadConfig *audio.VADConfig, logger zerolog.Logger) *Relay {
	return &Relay{
		id:       id,
		conn:     conn,
		live:     liveSession,
		sink:     sink,
		vad:      audio.NewVADDetector(vadConfig),
		logger:   logger.With().Str("session_id", id).Str("component", "relay").Logger(),
		outbound: make(chan Envelope, 256),
		done:     make(chan struct{}),
	}
}

func (r *Relay) ID() string { return r.id }

// Run drives the relay until the client disconnects or ctx is cancelled.
// The backend session opens concurrently so early client frames do not
// block; they are dropped until live_open goes out.
func (r *Relay) Run(ctx context.Context) {
	defer r.cleanup()

	go r.writeLoop()

	go func() {
		if err := r.live.Open(ctx); err != nil {
			r.logger.Error().Err(err).Msg("failed to open live session")
			observability.RecordComponentError("live_open", "relay")
			r.send(liveErrorEnvelope(err.Error()))
		}
	}()
	go r.forwardLiveEvents()

	r.readLoop(ctx)
}

// readLoop consumes client messages until the socket errors or ctx ends.
func (r *Relay) readLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := r.conn.ReadMessage()
		if err != nil {
			r.logger.Debug().Err(err).Msg("client connection closed")
			return
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Debug().Err(err).Msg("unreadable client message, ignoring")
			continue
		}
		switch msg.Type {
		case TypeAudioInput:
			r.handleAudio(msg.Payload)
		default:
			r.logger.Debug().Str("type", msg.Type).Msg("unknown client message type, ignoring")
		}
	}
}

// handleAudio decodes one base64 PCM16 frame, updates speech state, and
// forwards the raw frame to the backend. A frame that cannot be delivered
// is dropped, not queued.
func (r *Relay) handleAudio(payload string) {
	frame, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		r.logger.Debug().Err(err).Msg("bad audio payload, dropping frame")
		observability.RecordAudioFrameDropped()
		return
	}

	if samples, err := audio.DecodePCM16(frame); err == nil {
		r.updateSpeechState(samples)
	}

	if !r.liveReady.Load() {
		observability.RecordAudioFrameDropped()
		return
	}
	if err := r.live.SendAudio(frame); err != nil {
		r.logger.Debug().Err(err).Msg("live send failed, dropping frame")
		observability.RecordAudioFrameDropped()
		return
	}
	observability.RecordAudioBytes(int64(len(frame)))
}

// updateSpeechState runs the frame through the VAD and emits speech_state
// transitions plus throttled audio_level hints.
func (r *Relay) updateSpeechState(samples []int16) {
	_, started, ended := r.vad.ProcessFrame(samples)
	if started {
		r.send(speechStateEnvelope(true))
	}
	if ended {
		r.send(speechStateEnvelope(false))
	}

	r.frameCount++
	if r.frameCount%levelEveryNFrames == 0 {
		level := audio.NormalizeLevel(audio.CalculateRMS(samples))
		r.trySend(audioLevelEnvelope(level))
	}
}

// forwardLiveEvents wraps backend events into envelopes. Backend payloads
// pass through unmodified; transcription events additionally feed the sink.
func (r *Relay) forwardLiveEvents() {
	for ev := range r.live.Events() {
		switch ev.Type {
		case live.EventOpened:
			r.liveReady.Store(true)
			r.send(liveOpenEnvelope())
		case live.EventMessage:
			r.send(liveMessageEnvelope(ev.Payload))
		case live.EventTranscript:
			if r.sink != nil {
				r.sink.HandleTranscript(r.id, ev.Transcript)
			}
		case live.EventError:
			r.logger.Warn().Err(ev.Err).Msg("live session error")
			observability.RecordComponentError("live_stream", "relay")
			r.send(liveErrorEnvelope(ev.Err.Error()))
		case live.EventClosed:
			r.liveReady.Store(false)
			r.send(liveCloseEnvelope())
		}
	}
}

// writeLoop is the single writer to the client socket.
func (r *Relay) writeLoop() {
	for {
		select {
		case env := <-r.outbound:
			if err := r.conn.WriteJSON(env); err != nil {
				r.logger.Debug().Err(err).Msg("client write failed")
				return
			}
		case <-r.done:
			return
		}
	}
}

// send queues an envelope for the client, giving up once the relay is done.
func (r *Relay) send(env Envelope) {
	select {
	case r.outbound <- env:
	case <-r.done:
	}
}

// trySend queues an envelope only if there is room. Used for advisory
// envelopes that are worthless late.
func (r *Relay) trySend(env Envelope) {
	select {
	case r.outbound <- env:
	default:
	}
}

func (r *Relay) cleanup() {
	r.liveReady.Store(false)
	if err := r.live.Close(); err != nil {
		r.logger.Debug().Err(err).Msg("live close")
	}
	close(r.done)
	if err := r.conn.Close(); err != nil {
		r.logger.Debug().Err(err).Msg("client close")
	}
	r.logger.Info().Msg("relay finished")
}
