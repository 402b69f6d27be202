// Package api exposes the gateway's REST surface: session lifecycle,
// typed transcript input, suggestion triggers as SSE streams, practice
// flow, company briefings, and the completed-session history.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/session"
	"github.com/candidai/interview-gateway/internal/storage"
	"github.com/candidai/interview-gateway/internal/transcript"
)

const maxBodyBytes = 1 << 20

// Briefer generates a company briefing. llm.Client implements it.
type Briefer interface {
	CompanyBriefing(ctx context.Context, companyName, lang string) (*llm.Briefing, error)
}

// Server routes the REST API onto a session manager.
type Server struct {
	manager *session.Manager
	briefer Briefer
	logger  zerolog.Logger
}

func NewServer(manager *session.Manager, briefer Briefer, logger zerolog.Logger) *Server {
	return &Server{manager: manager, briefer: briefer, logger: logger}
}

// Register mounts all API routes on mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", s.createSession)
	mux.HandleFunc("GET /api/sessions/{id}", s.getSession)
	mux.HandleFunc("POST /api/sessions/{id}/transcript", s.postTranscript)
	mux.HandleFunc("POST /api/sessions/{id}/trigger", s.trigger)
	mux.HandleFunc("POST /api/sessions/{id}/practice/start", s.practiceStart)
	mux.HandleFunc("POST /api/sessions/{id}/practice/answer", s.practiceAnswer)
	mux.HandleFunc("POST /api/sessions/{id}/practice/stop", s.practiceStop)
	mux.HandleFunc("POST /api/sessions/{id}/practice/advance", s.practiceAdvance)
	mux.HandleFunc("POST /api/sessions/{id}/end", s.endSession)
	mux.HandleFunc("GET /api/sessions/{id}/resume", s.resumeSession)
	mux.HandleFunc("POST /api/briefing", s.briefing)
	mux.HandleFunc("GET /api/history", s.history)
	mux.HandleFunc("DELETE /api/history", s.clearHistory)
}

type sessionResponse struct {
	ID           string                   `json:"id"`
	Mode         model.Mode               `json:"mode"`
	State        session.State            `json:"state"`
	Practice     session.PracticeState    `json:"practiceState,omitempty"`
	Conversation []model.ConversationItem `json:"conversation,omitempty"`
}

func sessionView(sess *session.Session, withConversation bool) sessionResponse {
	state, practice := sess.State()
	resp := sessionResponse{
		ID:       sess.ID(),
		Mode:     sess.Mode(),
		State:    state,
		Practice: practice,
	}
	if withConversation {
		resp.Conversation = sess.Conversation()
	}
	return resp
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var params session.CreateParams
	if !s.decode(w, r, &params) {
		return
	}
	sess, err := s.manager.Create(r.Context(), params)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sessionView(sess, false))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionView(sess, true))
}

// postTranscript is the typed-input fallback for clients without audio
// and for tests: it injects transcript events exactly as the relay does.
func (s *Server) postTranscript(w http.ResponseWriter, r *http.Request) {
	var ev transcript.Event
	if !s.decode(w, r, &ev) {
		return
	}
	if _, ok := s.manager.Get(r.PathValue("id")); !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	s.manager.HandleTranscript(r.PathValue("id"), ev)
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) {
	completed, err := s.manager.End(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	s.writeJSON(w, http.StatusOK, completed)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.manager.Resume(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, err)
			return
		}
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionView(sess, true))
}

func (s *Server) practiceStart(w http.ResponseWriter, r *http.Request) {
	s.practiceTransition(w, r, func(sess *session.Session) error {
		return sess.StartAnswering()
	})
}

func (s *Server) practiceAdvance(w http.ResponseWriter, r *http.Request) {
	s.practiceTransition(w, r, func(sess *session.Session) error {
		return sess.Advance()
	})
}

func (s *Server) practiceTransition(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	sess, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	if err := fn(sess); err != nil {
		s.writeError(w, http.StatusConflict, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sessionView(sess, false))
}

func (s *Server) briefing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyName string `json:"companyName"`
		Lang        string `json:"lang"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if req.CompanyName == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("companyName is required"))
		return
	}
	if req.Lang == "" {
		req.Lang = "en"
	}
	briefing, err := s.briefer.CompanyBriefing(r.Context(), req.CompanyName, req.Lang)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, llm.ErrRateLimited) {
			status = http.StatusTooManyRequests
		}
		s.writeError(w, status, err)
		return
	}
	s.writeJSON(w, http.StatusOK, briefing)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	recs, err := s.manager.History(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if recs == nil {
		recs = []model.CompletedSession{}
	}
	s.writeJSON(w, http.StatusOK, recs)
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.ClearHistory(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug().Err(err).Msg("response write failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
