package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/session"
	"github.com/candidai/interview-gateway/internal/storage"
)

// trigger fires a manual suggestion request and streams the parsed partial
// sections back as server-sent events until the generation completes.
// kind=talkingPoints (default) or kind=exampleAnswer.
func (s *Server) trigger(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}

	fn := sess.TriggerTalkingPoints
	if model.SuggestionKind(r.URL.Query().Get("kind")) == model.KindExampleAnswer {
		fn = sess.TriggerExampleAnswer
	}
	s.streamOperation(w, r, sess, fn)
}

// practiceAnswer submits a typed answer and streams the feedback turn.
func (s *Server) practiceAnswer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	var req struct {
		Answer string `json:"answer"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.streamOperation(w, r, sess, func() error {
		return sess.SubmitAnswer(req.Answer)
	})
}

// practiceStop consumes the spoken answer and streams the feedback turn.
func (s *Server) practiceStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.manager.Get(r.PathValue("id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, storage.ErrNotFound)
		return
	}
	s.streamOperation(w, r, sess, sess.StopAnswering)
}

// streamOperation runs fn in the background and forwards the session's
// updates as SSE frames until fn returns, then drains what is buffered
// and closes the stream.
func (s *Server) streamOperation(w http.ResponseWriter, r *http.Request, sess *session.Session, fn func() error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, errors.New("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	done := make(chan error, 1)
	go func() { done <- fn() }()

	for {
		select {
		case u := <-sess.Updates():
			s.writeEvent(w, flusher, u)
		case err := <-done:
			s.drainUpdates(w, flusher, sess)
			if errors.Is(err, session.ErrBusy) {
				s.writeEvent(w, flusher, session.Update{Type: session.UpdateError, Error: err.Error()})
			}
			return
		case <-r.Context().Done():
			return
		case <-sess.Done():
			s.drainUpdates(w, flusher, sess)
			return
		}
	}
}

func (s *Server) drainUpdates(w http.ResponseWriter, flusher http.Flusher, sess *session.Session) {
	for {
		select {
		case u := <-sess.Updates():
			s.writeEvent(w, flusher, u)
		default:
			return
		}
	}
}

func (s *Server) writeEvent(w http.ResponseWriter, flusher http.Flusher, u session.Update) {
	data, err := json.Marshal(u)
	if err != nil {
		s.logger.Debug().Err(err).Msg("event marshal failed")
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flusher.Flush()
}
