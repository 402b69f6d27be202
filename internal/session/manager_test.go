package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/clock"
	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/storage"
)

func newTestManager(gen *fakeGenerator) (*Manager, *clock.Fake, *storage.MemoryStore) {
	clk := clock.NewFake()
	store := storage.NewMemoryStore()
	m := NewManager(testConfig(), clk, gen, store, zerolog.Nop())
	return m, clk, store
}

func TestManagerCreateAndRoute(t *testing.T) {
	gen := &fakeGenerator{copilotChunks: []string{copilotResponse}}
	m, clk, _ := newTestManager(gen)

	s, err := m.Create(context.Background(), CreateParams{Mode: model.ModeCopilot, JobTitle: "Engineer"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID() == "" {
		t.Fatal("created session has no id")
	}
	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatal("lookup failed")
	}

	m.HandleTranscript(s.ID(), finalFragment("Tell me about yourself"))
	clk.Advance(time.Second)
	if c, _, _ := gen.calls(); c != 1 {
		t.Fatalf("routed transcript did not fire: %d calls", c)
	}

	// Unknown ids are dropped silently.
	m.HandleTranscript("nope", finalFragment("hello"))
}

func TestManagerRejectsUnknownMode(t *testing.T) {
	gen := &fakeGenerator{}
	m, _, _ := newTestManager(gen)

	if _, err := m.Create(context.Background(), CreateParams{Mode: "panel"}); err == nil {
		t.Fatal("expected unknown mode to be rejected")
	}
}

func TestManagerRejectsDuplicateID(t *testing.T) {
	gen := &fakeGenerator{}
	m, _, _ := newTestManager(gen)

	if _, err := m.Create(context.Background(), CreateParams{ID: "dup", Mode: model.ModeCopilot}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := m.Create(context.Background(), CreateParams{ID: "dup", Mode: model.ModeCopilot}); err == nil {
		t.Fatal("expected duplicate id to be rejected")
	}
}

func TestManagerEndRemovesSession(t *testing.T) {
	gen := &fakeGenerator{summaryText: "fine"}
	m, _, store := newTestManager(gen)

	s, err := m.Create(context.Background(), CreateParams{Mode: model.ModeCopilot})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	completed, err := m.End(context.Background(), s.ID())
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if completed.Summary != "fine" {
		t.Fatalf("summary = %q", completed.Summary)
	}
	if _, ok := m.Get(s.ID()); ok {
		t.Fatal("session still registered after end")
	}
	if recs, _ := store.ListCompleted(context.Background()); len(recs) != 1 {
		t.Fatal("completed record missing")
	}
}

func TestManagerResumeFromSnapshot(t *testing.T) {
	gen := &fakeGenerator{copilotChunks: []string{copilotResponse}}
	m, _, store := newTestManager(gen)

	snap := &model.Snapshot{
		SessionID:   "crashed",
		StartTime:   time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		Mode:        model.ModeCopilot,
		JobTitle:    "Engineer",
		CompanyName: "Acme",
		Conversation: []model.ConversationItem{
			{Role: model.RoleModel, Text: "Tell me about yourself"},
			{Role: model.RoleUser, Kind: model.KindTalkingPoints, Text: "- Lead with impact"},
		},
		SavedAt: time.Date(2026, 5, 1, 9, 5, 0, 0, time.UTC),
	}
	if err := store.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	s, err := m.Resume(context.Background(), "crashed")
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if state, _ := s.State(); state != StateSession {
		t.Fatalf("resumed state = %q", state)
	}
	if len(s.Conversation()) != 2 {
		t.Fatalf("resumed conversation length = %d", len(s.Conversation()))
	}

	// A re-trigger for the restored question reuses it.
	if err := s.TriggerExampleAnswer(); err != nil {
		t.Fatalf("trigger after resume: %v", err)
	}
	_, example, _ := gen.calls()
	if example != 1 {
		t.Fatalf("example calls after resume = %d, want 1", example)
	}
	if gen.questions[0] != "Tell me about yourself" {
		t.Fatalf("resumed trigger question = %q", gen.questions[0])
	}
}

func TestManagerResumeEndedSessionRejected(t *testing.T) {
	gen := &fakeGenerator{}
	m, _, store := newTestManager(gen)

	snap := &model.Snapshot{
		SessionID: "finished",
		Mode:      model.ModeCopilot,
		SavedAt:   time.Now().Add(-time.Hour),
	}
	if err := store.SaveSnapshot(context.Background(), snap); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
	if err := store.MarkEnded(context.Background(), "finished"); err != nil {
		t.Fatalf("mark ended: %v", err)
	}

	if _, err := m.Resume(context.Background(), "finished"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for ended session, got %v", err)
	}
}

func TestManagerResumeReturnsLiveSession(t *testing.T) {
	gen := &fakeGenerator{}
	m, _, _ := newTestManager(gen)

	s, err := m.Create(context.Background(), CreateParams{ID: "live", Mode: model.ModeCopilot})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := m.Resume(context.Background(), "live")
	if err != nil {
		t.Fatalf("resume live: %v", err)
	}
	if got != s {
		t.Fatal("resume returned a different session for a live id")
	}
}
