package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/clock"
	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/storage"
)

const practiceFeedbackResponse = "Good structure, add a metric.\n---\nGood\n---\nWhat is your biggest weakness?"

func startPractice(t *testing.T, gen *fakeGenerator) (*Session, *storage.MemoryStore) {
	t.Helper()
	clk := clock.NewFake()
	store := storage.NewMemoryStore()
	profile := llm.SessionContext{JobTitle: "Engineer", Lang: "en"}
	s := New("practice-id", model.ModePractice, profile, testConfig(), clk, gen, store, zerolog.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitPracticeDone(t, s)
	return s, store
}

// waitPracticeDone blocks until the in-flight practice generation finishes.
func waitPracticeDone(t *testing.T, s *Session) Update {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-s.Updates():
			if u.Type == UpdatePractice && u.Done {
				return u
			}
		case <-deadline:
			t.Fatal("practice generation never completed")
		}
	}
}

func TestPracticeOpeningQuestion(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge you faced."}}
	s, _ := startPractice(t, gen)

	if _, practice := s.State(); practice != PracticeAsking {
		t.Fatalf("practice state = %q, want asking", practice)
	}
	conv := s.Conversation()
	if len(conv) != 1 || conv[0].Role != model.RoleModel {
		t.Fatalf("conversation after opening = %+v", conv)
	}
	if conv[0].Text != "Tell me about a challenge you faced." {
		t.Fatalf("opening question = %q", conv[0].Text)
	}
	if conv[0].Feedback != "" || conv[0].Rating != "" {
		t.Fatal("opening turn should carry no feedback or rating")
	}
	// The opening call goes out with an empty answer.
	if len(gen.answers) != 1 || gen.answers[0] != "" {
		t.Fatalf("opening call answers = %q", gen.answers)
	}
}

func TestPracticeAnswerFlow(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	if err := s.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	if _, practice := s.State(); practice != PracticeAnswering {
		t.Fatalf("practice state = %q, want answering", practice)
	}

	gen.mu.Lock()
	gen.practiceChunks = []string{practiceFeedbackResponse}
	gen.mu.Unlock()

	if err := s.SubmitAnswer("I migrated the billing system."); err != nil {
		t.Fatalf("submit answer: %v", err)
	}
	if _, practice := s.State(); practice != PracticeFeedback {
		t.Fatalf("practice state = %q, want feedback", practice)
	}

	conv := s.Conversation()
	if len(conv) != 3 {
		t.Fatalf("conversation length = %d, want 3", len(conv))
	}
	if conv[1].Role != model.RoleUser || conv[1].Text != "I migrated the billing system." {
		t.Fatalf("answer item = %+v", conv[1])
	}
	turn := conv[2]
	if turn.Feedback != "Good structure, add a metric." {
		t.Fatalf("feedback = %q", turn.Feedback)
	}
	if turn.Rating != model.RatingGood {
		t.Fatalf("rating = %q", turn.Rating)
	}
	if turn.Text != "What is your biggest weakness?" {
		t.Fatalf("next question = %q", turn.Text)
	}

	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, practice := s.State(); practice != PracticeAsking {
		t.Fatalf("practice state after advance = %q, want asking", practice)
	}
}

func TestPracticeEmptyAnswerReturnsToAsking(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	if err := s.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	// Stopping without any transcript is the user aborting the answer.
	if err := s.StopAnswering(); err != nil {
		t.Fatalf("stop answering: %v", err)
	}
	if _, practice := s.State(); practice != PracticeAsking {
		t.Fatalf("practice state = %q, want asking", practice)
	}
	if _, _, calls := gen.calls(); calls != 1 {
		t.Fatalf("empty answer issued a backend call: %d total", calls)
	}
}

func TestPracticeSpokenAnswerFlow(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	if err := s.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	s.HandleTranscript(finalFragment("I led the"))
	s.HandleTranscript(finalFragment("incident response."))

	gen.mu.Lock()
	gen.practiceChunks = []string{practiceFeedbackResponse}
	gen.mu.Unlock()

	if err := s.StopAnswering(); err != nil {
		t.Fatalf("stop answering: %v", err)
	}
	if gen.answers[len(gen.answers)-1] != "I led the incident response." {
		t.Fatalf("spoken answer = %q", gen.answers[len(gen.answers)-1])
	}
}

func TestPracticeAdvanceOutsideFeedbackRejected(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	if err := s.Advance(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("advance while asking should be rejected, got %v", err)
	}
}

func TestPracticeGenerationFailureRecovers(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	if err := s.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	gen.mu.Lock()
	gen.practiceChunks = []string{"An unexpected error occurred on the server."}
	gen.mu.Unlock()

	if err := s.SubmitAnswer("My answer."); err == nil {
		t.Fatal("expected submit to surface the failure")
	}
	if _, practice := s.State(); practice != PracticeAsking {
		t.Fatalf("practice state after failure = %q, want asking", practice)
	}
	// The unanswered attempt is dropped so a retry rebuilds clean history.
	conv := s.Conversation()
	if len(conv) != 1 {
		t.Fatalf("conversation after failed feedback = %+v", conv)
	}
}

func TestPracticeFailureRollbackIsSnapshotted(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, store := startPractice(t, gen)

	if err := s.StartAnswering(); err != nil {
		t.Fatalf("start answering: %v", err)
	}
	gen.mu.Lock()
	gen.practiceChunks = []string{"An unexpected error occurred on the server."}
	gen.mu.Unlock()

	if err := s.SubmitAnswer("My answer."); err == nil {
		t.Fatal("expected submit to surface the failure")
	}

	// The rollback is a conversation mutation like any other: a resume
	// from the stored snapshot must not revive the discarded answer.
	snap, err := store.LoadSnapshot(context.Background(), "practice-id")
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	live := s.Conversation()
	if len(snap.Conversation) != len(live) {
		t.Fatalf("snapshot diverged from live log: snapshot=%d live=%d",
			len(snap.Conversation), len(live))
	}
	if len(snap.Conversation) != 1 {
		t.Fatalf("snapshot kept the rolled-back answer: %+v", snap.Conversation)
	}
}

func TestPracticeStopOutsideAnsweringKeepsTranscript(t *testing.T) {
	gen := &fakeGenerator{practiceChunks: []string{"Tell me about a challenge."}}
	s, _ := startPractice(t, gen)

	// Speech that arrives while still in asking must survive a misplaced
	// stop instead of being consumed and thrown away.
	s.HandleTranscript(finalFragment("I led the incident response."))
	if err := s.StopAnswering(); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("stop while asking should be rejected, got %v", err)
	}
	if got := s.aggregator.Consume(); got != "I led the incident response." {
		t.Fatalf("transcript discarded by rejected stop: %q", got)
	}
	if _, _, calls := gen.calls(); calls != 1 {
		t.Fatalf("rejected stop issued a backend call: %d total", calls)
	}
}
