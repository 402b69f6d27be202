package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/clock"
	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/storage"
	"github.com/candidai/interview-gateway/internal/transcript"
)

// CreateParams is the interview setup for a new session.
type CreateParams struct {
	ID          string     `json:"id,omitempty"`
	Mode        model.Mode `json:"mode"`
	JobTitle    string     `json:"jobTitle"`
	CompanyName string     `json:"companyName,omitempty"`
	CVContent   string     `json:"cvContent,omitempty"`
	Lang        string     `json:"lang,omitempty"`
}

// Manager owns all live sessions and routes transcript events to them.
// It implements the relay's TranscriptSink.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg       Config
	clk       clock.Clock
	generator Generator
	store     storage.Store
	logger    zerolog.Logger
}

func NewManager(cfg Config, clk clock.Clock, generator Generator, store storage.Store, logger zerolog.Logger) *Manager {
	return &Manager{
		sessions:  make(map[string]*Session),
		cfg:       cfg,
		clk:       clk,
		generator: generator,
		store:     store,
		logger:    logger,
	}
}

// Create builds and starts a new session. A missing id gets a fresh one;
// a duplicate id is rejected.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Session, error) {
	if params.Mode != model.ModeCopilot && params.Mode != model.ModePractice {
		return nil, fmt.Errorf("unknown mode %q", params.Mode)
	}
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	lang := params.Lang
	if lang == "" {
		lang = m.defaultLang()
	}
	profile := llm.SessionContext{
		JobTitle:    params.JobTitle,
		CompanyName: params.CompanyName,
		CVContent:   params.CVContent,
		Lang:        lang,
	}

	s := New(params.ID, params.Mode, profile, m.cfg, m.clk, m.generator, m.store, m.logger)

	m.mu.Lock()
	if _, exists := m.sessions[params.ID]; exists {
		m.mu.Unlock()
		return nil, fmt.Errorf("session %q already exists", params.ID)
	}
	m.sessions[params.ID] = s
	m.mu.Unlock()

	if err := s.Start(ctx); err != nil {
		m.Remove(params.ID)
		return nil, err
	}
	return s, nil
}

// Resume restores a crashed session from its snapshot. Snapshots older
// than the session's ended marker are not resumable.
func (m *Manager) Resume(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	snap, err := m.store.LoadSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	profile := llm.SessionContext{
		JobTitle:    snap.JobTitle,
		CompanyName: snap.CompanyName,
		CVContent:   snap.CVContent,
		Lang:        m.defaultLang(), // snapshots do not record language
	}
	s := New(snap.SessionID, snap.Mode, profile, m.cfg, m.clk, m.generator, m.store, m.logger)
	s.resume(snap)

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionID]; ok {
		return existing, nil
	}
	m.sessions[sessionID] = s
	return s, nil
}

func (m *Manager) defaultLang() string {
	if m.cfg.DefaultLang != "" {
		return m.cfg.DefaultLang
	}
	return "en"
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	return s, ok
}

func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionID)
}

// End finishes a session and removes it from the live set.
func (m *Manager) End(ctx context.Context, sessionID string) (*model.CompletedSession, error) {
	s, ok := m.Get(sessionID)
	if !ok {
		return nil, storage.ErrNotFound
	}
	completed, err := s.End(ctx)
	if err != nil {
		return nil, err
	}
	m.Remove(sessionID)
	return completed, nil
}

// HandleTranscript routes a transcription event to its session. Events
// for unknown sessions are dropped; the relay outlives engine sessions
// during teardown races.
func (m *Manager) HandleTranscript(sessionID string, ev transcript.Event) {
	s, ok := m.Get(sessionID)
	if !ok {
		m.logger.Debug().Str("session_id", sessionID).Msg("transcript for unknown session dropped")
		return
	}
	s.HandleTranscript(ev)
}

// History returns completed sessions, most recent first.
func (m *Manager) History(ctx context.Context) ([]model.CompletedSession, error) {
	return m.store.ListCompleted(ctx)
}

// ClearHistory deletes the completed-session archive.
func (m *Manager) ClearHistory(ctx context.Context) error {
	return m.store.ClearCompleted(ctx)
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
