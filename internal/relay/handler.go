package relay

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/audio"
	"github.com/candidai/interview-gateway/internal/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // auth happens upstream of the gateway
	},
}

// SessionFactory builds a fresh, unopened live session per connection.
type SessionFactory func() live.Session

// Handler upgrades client connections and runs a relay per connection.
type Handler struct {
	registry  *Registry
	factory   SessionFactory
	sink      TranscriptSink
	vadConfig *audio.VADConfig
	logger    zerolog.Logger
}

func NewHandler(registry *Registry, factory SessionFactory, sink TranscriptSink, vadConfig *audio.VADConfig, logger zerolog.Logger) *Handler {
	return &Handler{
		registry:  registry,
		factory:   factory,
		sink:      sink,
		vadConfig: vadConfig,
		logger:    logger,
	}
}

// ServeHTTP handles GET /api/live?session=<id>. A missing session id gets a
// fresh one; reconnecting with an existing id replaces the old relay entry.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	relay := NewRelay(sessionID, conn, h.factory(), h.sink, h.vadConfig, h.logger)
	h.registry.Add(relay)
	defer h.registry.Remove(relay)

	h.logger.Info().Str("session_id", sessionID).Msg("client connected")
	relay.Run(r.Context())
}
