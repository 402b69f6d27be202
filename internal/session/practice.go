package session

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/parser"
)

// ErrWrongPhase rejects a practice operation that is invalid in the
// current sub-state.
var ErrWrongPhase = errors.New("operation not valid in the current practice phase")

// StartAnswering transitions asking → answering and clears any stale
// transcript so the answer buffer starts empty.
func (s *Session) StartAnswering() error {
	s.mu.Lock()
	if s.state != StateSession || s.mode != model.ModePractice {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.practice != PracticeAsking {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	s.practice = PracticeAnswering
	s.mu.Unlock()

	s.aggregator.Reset()
	return nil
}

// StopAnswering consumes the spoken answer. An empty answer returns to
// asking without a backend call; a non-empty one enters the feedback flow.
// The phase is validated before the transcript buffer is consumed so a
// misplaced stop does not discard what was said.
func (s *Session) StopAnswering() error {
	s.mu.Lock()
	if s.state != StateSession || s.mode != model.ModePractice || s.ended {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.practice != PracticeAnswering {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	s.mu.Unlock()

	return s.SubmitAnswer(s.aggregator.Consume())
}

// SubmitAnswer evaluates one answer, spoken or typed. Empty answers fall
// back to asking silently, matching the stop-without-speaking flow.
func (s *Session) SubmitAnswer(answer string) error {
	answer = strings.TrimSpace(answer)

	s.mu.Lock()
	if s.state != StateSession || s.mode != model.ModePractice || s.ended {
		s.mu.Unlock()
		return ErrNotActive
	}
	if s.practice != PracticeAnswering && s.practice != PracticeAsking {
		s.mu.Unlock()
		return ErrWrongPhase
	}
	if answer == "" {
		s.practice = PracticeAsking
		s.mu.Unlock()
		return nil
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrBusy
	}
	s.practice = PracticeFeedback
	s.conversation = append(s.conversation, model.ConversationItem{
		Role: model.RoleUser,
		Text: answer,
	})
	s.inFlight = true
	s.generation++
	gen := s.generation
	conv := append([]model.ConversationItem(nil), s.conversation...)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.metrics.RecordGenerationStart()
	return s.consumePractice(gen, conv, answer, false)
}

// Advance acknowledges the feedback and moves on to the next question.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateSession || s.mode != model.ModePractice {
		return ErrNotActive
	}
	if s.practice != PracticeFeedback {
		return ErrWrongPhase
	}
	s.practice = PracticeAsking
	return nil
}

// consumePractice drives one practice generation stream: the opening
// question when opening is set, otherwise feedback + rating + next
// question for the latest answer.
func (s *Session) consumePractice(gen uint64, conv []model.ConversationItem, answer string, opening bool) error {
	defer s.clearInFlight(gen)
	if opening {
		s.metrics.RecordGenerationStart()
	}

	stream, err := s.generator.StreamPractice(context.Background(), s.profile, conv, answer)
	if err != nil {
		ferr := s.generationFailed(gen, "", err)
		s.practiceRecover(gen, opening)
		return ferr
	}
	defer stream.Close()

	ps := parser.NewStream()
	for {
		chunk, nerr := stream.Next()
		if nerr != nil {
			if errors.Is(nerr, io.EOF) {
				break
			}
			ferr := s.generationFailed(gen, "", nerr)
			s.practiceRecover(gen, opening)
			return ferr
		}
		ps.Feed(chunk)
		if ps.Failed() {
			break
		}
		if !s.alive(gen) {
			return nil
		}
		turn := parser.ParsePracticeTurn(ps.Text())
		s.emit(practiceUpdate(gen, turn, false))
	}

	if ps.Failed() {
		ferr := s.sentinelFailed(gen, "", ps.Text(), ps.RateLimited())
		s.practiceRecover(gen, opening)
		return ferr
	}

	turn := parser.ParsePracticeTurn(ps.Text())

	s.mu.Lock()
	if s.ended || gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.conversation = append(s.conversation, model.ConversationItem{
		Role:     model.RoleModel,
		Text:     turn.Question,
		Feedback: turn.Feedback,
		Rating:   turn.Rating,
	})
	if opening || turn.Feedback == "" {
		s.practice = PracticeAsking
	} else {
		s.practice = PracticeFeedback
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.metrics.RecordGenerationEnd("practice", true)
	s.emit(practiceUpdate(gen, turn, true))
	return nil
}

// practiceRecover returns the sub-state to asking after a failed
// generation so the user is not stuck waiting for feedback. A rollback
// mutates the conversation log, so the truncated state is snapshotted
// like every other mutation; otherwise a crash-resume would carry an
// answer the live session already discarded.
func (s *Session) practiceRecover(gen uint64, opening bool) {
	s.mu.Lock()
	if s.ended || gen != s.generation {
		s.mu.Unlock()
		return
	}
	s.practice = PracticeAsking
	var snap *model.Snapshot
	if !opening && len(s.conversation) > 0 {
		// Drop the answer that never got feedback so history rebuilds
		// cleanly on retry.
		last := s.conversation[len(s.conversation)-1]
		if last.Role == model.RoleUser && last.Kind == "" {
			s.conversation = s.conversation[:len(s.conversation)-1]
			snap = s.snapshotLocked()
		}
	}
	s.mu.Unlock()

	if snap != nil {
		s.persist(snap)
	}
}

func practiceUpdate(gen uint64, turn parser.PracticeTurn, done bool) Update {
	return Update{
		Type:         UpdatePractice,
		Generation:   gen,
		Feedback:     turn.Feedback,
		Rating:       turn.Rating,
		NextQuestion: turn.Question,
		Done:         done,
	}
}
