package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/candidai/interview-gateway/internal/model"
)

// MemoryStore is an in-process Store used in tests and when no Redis URL is
// configured. Snapshots do not survive a restart, so running without Redis
// degrades to "no crash recovery".
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]*model.Snapshot
	ended     map[string]time.Time
	completed []model.CompletedSession
	failSaves bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*model.Snapshot),
		ended:     make(map[string]time.Time),
	}
}

// FailSaves makes every SaveSnapshot return an error, simulating a storage
// outage for degraded-mode tests.
func (s *MemoryStore) FailSaves(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSaves = fail
}

func (s *MemoryStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSaves {
		return errors.New("storage unavailable")
	}
	copied := *snap
	copied.Conversation = append([]model.ConversationItem(nil), snap.Conversation...)
	s.snapshots[snap.SessionID] = &copied
	return nil
}

func (s *MemoryStore) LoadSnapshot(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	if endedAt, ended := s.ended[sessionID]; ended && !snap.SavedAt.After(endedAt) {
		return nil, ErrNotFound
	}
	copied := *snap
	copied.Conversation = append([]model.ConversationItem(nil), snap.Conversation...)
	return &copied, nil
}

func (s *MemoryStore) MarkEnded(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ended[sessionID] = time.Now().UTC()
	return nil
}

func (s *MemoryStore) SaveCompleted(ctx context.Context, rec *model.CompletedSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Most recent first, matching the Redis LPUSH ordering.
	s.completed = append([]model.CompletedSession{*rec}, s.completed...)
	return nil
}

func (s *MemoryStore) ListCompleted(ctx context.Context) ([]model.CompletedSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CompletedSession(nil), s.completed...), nil
}

func (s *MemoryStore) ClearCompleted(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = nil
	return nil
}
