// Package session implements the conversation state machine that sits on
// top of the realtime pipeline: it owns the transcript aggregator, the
// trigger debouncer, the cooldown limiter, and the single-slot answer
// cache for one interview run, and it decides when a generation call is
// issued and what gets appended to the conversation log.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/candidai/interview-gateway/internal/answercache"
	"github.com/candidai/interview-gateway/internal/clock"
	"github.com/candidai/interview-gateway/internal/cooldown"
	"github.com/candidai/interview-gateway/internal/llm"
	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/observability"
	"github.com/candidai/interview-gateway/internal/parser"
	"github.com/candidai/interview-gateway/internal/storage"
	"github.com/candidai/interview-gateway/internal/transcript"
	"github.com/candidai/interview-gateway/internal/trigger"
)

// State is the top-level lifecycle of one interview run. History browsing
// is a query over completed sessions (Manager.History), not a per-session
// state.
type State string

const (
	StateWelcome State = "welcome"
	StateSession State = "session"
	StateSummary State = "summary"
)

// PracticeState is the nested sub-flow while mode is practice.
type PracticeState string

const (
	PracticeAsking    PracticeState = "asking"
	PracticeAnswering PracticeState = "answering"
	PracticeFeedback  PracticeState = "feedback"
)

var (
	// ErrNotActive rejects operations on a session outside the live state.
	ErrNotActive = errors.New("session is not active")
	// ErrBusy rejects a manual trigger while a generation call is in flight.
	ErrBusy = errors.New("a generation call is already in flight")
)

// CooldownError rejects a trigger during the rate-limit lockout.
type CooldownError struct {
	Remaining int
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown, %d seconds remaining", e.Remaining)
}

// Config carries the per-session tunables.
type Config struct {
	QuiescenceWindow time.Duration
	CooldownSeconds  int
	AutoTrigger      bool
	DefaultLang      string // used when a create or resume carries no language
}

// Session is one interview run. It is mutated only through its methods;
// all of them are safe for concurrent use.
type Session struct {
	id        string
	mode      model.Mode
	profile   llm.SessionContext
	cfg       Config
	startTime time.Time

	clk       clock.Clock
	generator Generator
	store     storage.Store
	logger    zerolog.Logger
	metrics   *observability.Metrics

	aggregator *transcript.Aggregator
	debouncer  *trigger.Debouncer
	limiter    *cooldown.Limiter
	cache      *answercache.Cache

	mu           sync.Mutex
	state        State
	practice     PracticeState
	conversation []model.ConversationItem
	// lastQuestion survives buffer consumption so a follow-up trigger for
	// the same question can hit the cache
	lastQuestion string
	// lastLoggedQuestion dedupes the interviewer-question entries in the
	// conversation log
	lastLoggedQuestion string
	inFlight           bool
	manualKind         model.SuggestionKind
	manualErr          error
	// generation invalidates stream callbacks that outlive their trigger
	generation uint64
	ended      bool

	updates chan Update
	done    chan struct{}
}

// New creates a session in the welcome state. Call Start to go live.
func New(id string, mode model.Mode, profile llm.SessionContext, cfg Config, clk clock.Clock, generator Generator, store storage.Store, logger zerolog.Logger) *Session {
	s := &Session{
		id:         id,
		mode:       mode,
		profile:    profile,
		cfg:        cfg,
		clk:        clk,
		generator:  generator,
		store:      store,
		logger:     logger.With().Str("session_id", id).Str("mode", string(mode)).Logger(),
		metrics:    observability.NewSessionMetrics(id, string(mode)),
		aggregator: transcript.NewAggregator(),
		cache:      answercache.NewCache(),
		state:      StateWelcome,
		updates:    make(chan Update, 128),
		done:       make(chan struct{}),
	}
	s.debouncer = trigger.NewDebouncer(clk, cfg.QuiescenceWindow, s.onFire)
	s.limiter = cooldown.NewLimiter(clk, cfg.CooldownSeconds, s.onCooldownTick)
	return s
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Mode() model.Mode { return s.mode }

// Done is closed when the session reaches its terminal state.
func (s *Session) Done() <-chan struct{} { return s.done }

// Updates is the session's outbound event stream. The channel is never
// closed; consumers should also select on Done.
func (s *Session) Updates() <-chan Update { return s.updates }

// State returns the top-level and practice sub-state.
func (s *Session) State() (State, PracticeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.practice
}

// Conversation returns a copy of the conversation log.
func (s *Session) Conversation() []model.ConversationItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ConversationItem(nil), s.conversation...)
}

// Start transitions welcome → session. In practice mode the opening
// question generation is launched in the background; its progress arrives
// on Updates.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateWelcome {
		s.mu.Unlock()
		return ErrNotActive
	}
	s.state = StateSession
	s.startTime = s.clk.Now()
	if s.mode == model.ModePractice {
		s.practice = PracticeAsking
		s.inFlight = true
		s.generation++
		gen := s.generation
		s.mu.Unlock()
		go s.consumePractice(gen, nil, "", true)
		return nil
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.persist(snap)
	return nil
}

// resume restores a crashed session from its snapshot.
func (s *Session) resume(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateSession
	s.startTime = snap.StartTime
	s.conversation = append([]model.ConversationItem(nil), snap.Conversation...)
	if s.mode == model.ModePractice {
		s.practice = PracticeAsking
		return
	}
	// The most recent interviewer question is eligible for re-triggering.
	for i := len(s.conversation) - 1; i >= 0; i-- {
		if s.conversation[i].Role == model.RoleModel {
			s.lastQuestion = s.conversation[i].Text
			s.lastLoggedQuestion = s.conversation[i].Text
			break
		}
	}
}

// HandleTranscript folds one transcription event into the aggregator.
// Growth of the finalized buffer re-arms the quiescence timer in copilot
// auto-trigger mode; in practice mode fragments accumulate until the
// answer is submitted.
func (s *Session) HandleTranscript(ev transcript.Event) {
	s.mu.Lock()
	if s.state != StateSession {
		s.mu.Unlock()
		return
	}
	mode := s.mode
	s.mu.Unlock()

	grew := s.aggregator.Apply(ev)
	if grew && mode == model.ModeCopilot && s.cfg.AutoTrigger {
		s.debouncer.Arm()
	}
}

// DisplayText returns the finalized buffer plus the volatile interim tail.
func (s *Session) DisplayText() string {
	return s.aggregator.DisplayText()
}

// TriggerTalkingPoints fires a manual talking-points request, cancelling
// any armed quiescence timer.
func (s *Session) TriggerTalkingPoints() error {
	return s.manualTrigger(model.KindTalkingPoints)
}

// TriggerExampleAnswer fires a manual example-answer request.
func (s *Session) TriggerExampleAnswer() error {
	return s.manualTrigger(model.KindExampleAnswer)
}

func (s *Session) manualTrigger(kind model.SuggestionKind) error {
	s.mu.Lock()
	s.manualKind = kind
	s.manualErr = nil
	s.mu.Unlock()

	// TriggerNow cancels the armed timer and calls onFire synchronously,
	// so manualErr is set by the time it returns.
	s.debouncer.TriggerNow()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manualErr
}

// onFire is the debouncer's fire callback for both expiry and TriggerNow.
func (s *Session) onFire(manual bool) {
	kind := model.KindTalkingPoints
	if manual {
		s.mu.Lock()
		kind = s.manualKind
		s.mu.Unlock()
	}
	err := s.fireSuggestion(kind, manual)
	if manual {
		s.mu.Lock()
		s.manualErr = err
		s.mu.Unlock()
	} else if err != nil {
		s.logger.Debug().Err(err).Msg("auto trigger rejected")
	}
}

// fireSuggestion is the single entry point for suggestion generation.
// Validation failures are silent no-ops; cooldown and busy rejections are
// surfaced to manual callers.
func (s *Session) fireSuggestion(kind model.SuggestionKind, manual bool) error {
	source := "auto"
	if manual {
		source = "manual"
	}

	s.mu.Lock()
	if s.state != StateSession || s.mode != model.ModeCopilot || s.ended {
		s.mu.Unlock()
		s.metrics.RecordTrigger(source, "noop")
		return nil
	}
	if s.limiter.Active() {
		remaining := s.limiter.Remaining()
		s.mu.Unlock()
		s.metrics.RecordTrigger(source, "cooldown")
		s.emit(Update{Type: UpdateCooldown, CooldownRemaining: remaining})
		return &CooldownError{Remaining: remaining}
	}
	if s.inFlight {
		s.mu.Unlock()
		s.metrics.RecordTrigger(source, "noop")
		if manual {
			return ErrBusy
		}
		return nil
	}

	question := s.aggregator.Consume()
	if question == "" {
		// The buffer was consumed by an earlier trigger; a repeat request
		// still refers to the question on screen.
		question = s.lastQuestion
	}
	if question == "" {
		s.mu.Unlock()
		s.metrics.RecordTrigger(source, "noop")
		return nil
	}
	s.lastQuestion = question

	if ans := s.cache.Lookup(question); ans != nil && cachedText(ans, kind) != "" {
		s.metrics.RecordCacheLookup(true)
		s.metrics.RecordTrigger(source, "cache_hit")
		s.appendSuggestionLocked(question, kind, cachedText(ans, kind))
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.persist(snap)
		s.emit(Update{
			Type:          UpdateSuggestion,
			Kind:          kind,
			Question:      question,
			TalkingPoints: ans.TalkingPoints,
			ExampleAnswer: ans.ExampleAnswer,
			Done:          true,
			FromCache:     true,
		})
		return nil
	}
	s.metrics.RecordCacheLookup(false)
	s.metrics.RecordTrigger(source, "fired")
	s.inFlight = true
	s.generation++
	gen := s.generation
	conv := append([]model.ConversationItem(nil), s.conversation...)
	s.mu.Unlock()

	s.metrics.RecordGenerationStart()
	return s.consumeSuggestion(gen, kind, question, conv)
}

func cachedText(ans *answercache.Answer, kind model.SuggestionKind) string {
	if kind == model.KindExampleAnswer {
		return ans.ExampleAnswer
	}
	return ans.TalkingPoints
}

// consumeSuggestion drives one copilot generation stream to completion,
// emitting partial updates as sections materialize.
func (s *Session) consumeSuggestion(gen uint64, kind model.SuggestionKind, question string, conv []model.ConversationItem) error {
	defer s.clearInFlight(gen)

	ctx := context.Background()
	var (
		stream TokenStream
		err    error
	)
	if kind == model.KindExampleAnswer {
		stream, err = s.generator.StreamExampleAnswer(ctx, s.profile, question)
	} else {
		stream, err = s.generator.StreamCopilot(ctx, s.profile, question, conv)
	}
	if err != nil {
		return s.generationFailed(gen, kind, err)
	}
	defer stream.Close()

	ps := parser.NewStream()
	for {
		chunk, nerr := stream.Next()
		if nerr != nil {
			if errors.Is(nerr, io.EOF) {
				break
			}
			return s.generationFailed(gen, kind, nerr)
		}
		sections := ps.Feed(chunk)
		if ps.Failed() {
			break
		}
		if !s.alive(gen) {
			return nil
		}
		s.emit(s.partialUpdate(gen, kind, question, sections, ps.Text()))
	}

	if ps.Failed() {
		return s.sentinelFailed(gen, kind, ps.Text(), ps.RateLimited())
	}
	return s.finishSuggestion(gen, kind, question, ps)
}

func (s *Session) partialUpdate(gen uint64, kind model.SuggestionKind, question string, sections parser.Sections, raw string) Update {
	u := Update{
		Type:       UpdateSuggestion,
		Generation: gen,
		Kind:       kind,
		Question:   question,
	}
	if kind == model.KindExampleAnswer {
		// The example-answer stream is plain text without section markers.
		u.ExampleAnswer = strings.TrimSpace(raw)
	} else {
		u.TalkingPoints = sections.TalkingPoints
		u.ExampleAnswer = sections.ExampleAnswer
	}
	return u
}

// finishSuggestion commits a completed stream: cache write, conversation
// append, snapshot, final update.
func (s *Session) finishSuggestion(gen uint64, kind model.SuggestionKind, question string, ps *parser.Stream) error {
	var tp, ea string
	if kind == model.KindExampleAnswer {
		ea = strings.TrimSpace(ps.Text())
		if prev := s.cache.Lookup(question); prev != nil {
			tp = prev.TalkingPoints
		}
	} else {
		sections := ps.Current()
		tp, ea = sections.TalkingPoints, sections.ExampleAnswer
	}

	s.mu.Lock()
	if s.ended || gen != s.generation {
		s.mu.Unlock()
		return nil
	}
	s.cache.Put(question, tp, ea)
	text := tp
	if kind == model.KindExampleAnswer {
		text = ea
	}
	s.appendSuggestionLocked(question, kind, text)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(snap)
	s.metrics.RecordGenerationEnd(kindLabel(kind), true)
	s.emit(Update{
		Type:          UpdateSuggestion,
		Generation:    gen,
		Kind:          kind,
		Question:      question,
		TalkingPoints: tp,
		ExampleAnswer: ea,
		Done:          true,
	})
	return nil
}

// generationFailed handles transport-level failures of a generation call.
func (s *Session) generationFailed(gen uint64, kind model.SuggestionKind, err error) error {
	msg := llm.UserFacingMessage(err, s.profile.Lang)
	rateLimited := errors.Is(err, llm.ErrRateLimited)
	s.failWith(gen, kind, msg, rateLimited)
	if rateLimited {
		return &CooldownError{Remaining: s.limiter.Remaining()}
	}
	return err
}

// sentinelFailed handles an error sentinel arriving in the stream body.
func (s *Session) sentinelFailed(gen uint64, kind model.SuggestionKind, msg string, rateLimited bool) error {
	s.failWith(gen, kind, msg, rateLimited)
	if rateLimited {
		return &CooldownError{Remaining: s.limiter.Remaining()}
	}
	return errors.New(msg)
}

func (s *Session) failWith(gen uint64, kind model.SuggestionKind, msg string, rateLimited bool) {
	s.logger.Warn().Str("kind", kindLabel(kind)).Bool("rate_limited", rateLimited).Msg(msg)
	s.metrics.RecordGenerationEnd(kindLabel(kind), false)
	s.metrics.RecordError("generation", "session")
	if rateLimited && s.limiter.Begin() {
		s.metrics.RecordCooldown()
	}
	if s.alive(gen) {
		s.emit(Update{
			Type:              UpdateError,
			Generation:        gen,
			Kind:              kind,
			Error:             msg,
			CooldownRemaining: s.limiter.Remaining(),
		})
	}
}

func kindLabel(kind model.SuggestionKind) string {
	switch kind {
	case model.KindExampleAnswer:
		return "example"
	case model.KindTalkingPoints:
		return "copilot"
	}
	return "practice"
}

// appendSuggestionLocked applies the replace-if-duplicate rule: a repeat
// suggestion of the same kind for the same question rewrites the most
// recent entry instead of duplicating it. The interviewer question itself
// is logged once, as a model turn, before the first suggestion for it.
func (s *Session) appendSuggestionLocked(question string, kind model.SuggestionKind, text string) {
	last := len(s.conversation) - 1
	if last >= 0 {
		item := s.conversation[last]
		if item.Role == model.RoleUser && item.Kind == kind && s.lastLoggedQuestion == question {
			s.conversation[last].Text = text
			return
		}
	}
	if s.lastLoggedQuestion != question {
		s.conversation = append(s.conversation, model.ConversationItem{
			Role: model.RoleModel,
			Text: question,
		})
		s.lastLoggedQuestion = question
	}
	s.conversation = append(s.conversation, model.ConversationItem{
		Role: model.RoleUser,
		Kind: kind,
		Text: text,
	})
}

// End transitions session → summary: a summary is generated over the full
// conversation, the completed record is archived, and the session id is
// marked ended so its snapshot stops being resumable. Irreversible. A
// summary failure leaves the session live so the caller can retry.
func (s *Session) End(ctx context.Context) (*model.CompletedSession, error) {
	s.mu.Lock()
	if s.state != StateSession {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	conv := append([]model.ConversationItem(nil), s.conversation...)
	s.mu.Unlock()

	summary, err := s.generator.Summary(ctx, s.profile, s.mode, conv)
	if err != nil {
		s.logger.Error().Err(err).Msg("summary generation failed")
		return nil, err
	}

	s.mu.Lock()
	if s.state != StateSession {
		s.mu.Unlock()
		return nil, ErrNotActive
	}
	s.state = StateSummary
	s.ended = true
	s.generation++
	s.mu.Unlock()

	s.debouncer.Close()
	s.limiter.Close()

	completed := &model.CompletedSession{
		ID:           s.id,
		Date:         s.clk.Now(),
		JobTitle:     s.profile.JobTitle,
		CompanyName:  s.profile.CompanyName,
		Mode:         s.mode,
		Conversation: conv,
		Summary:      summary,
	}
	// Persistence failures degrade to "no history entry", never a failed end.
	if err := s.store.SaveCompleted(ctx, completed); err != nil {
		s.logger.Warn().Err(err).Msg("failed to archive completed session")
	}
	if err := s.store.MarkEnded(ctx, s.id); err != nil {
		s.logger.Warn().Err(err).Msg("failed to mark session ended")
	}
	s.metrics.RecordSessionEnd()
	close(s.done)
	return completed, nil
}

// Reset abandons the run and returns to the welcome state. Any in-flight
// generation is invalidated; the conversation log and caches are cleared.
func (s *Session) Reset() {
	s.debouncer.Cancel()
	s.aggregator.Reset()
	s.cache.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.state = StateWelcome
	s.practice = ""
	s.conversation = nil
	s.lastQuestion = ""
	s.lastLoggedQuestion = ""
	s.inFlight = false
	s.generation++
}

func (s *Session) onCooldownTick(remaining int) {
	s.emit(Update{Type: UpdateCooldown, CooldownRemaining: remaining})
}

// alive reports whether callbacks for the given generation may still write
// into the session.
func (s *Session) alive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.ended && s.state == StateSession && gen == s.generation
}

func (s *Session) clearInFlight(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen == s.generation {
		s.inFlight = false
	}
}

func (s *Session) snapshotLocked() *model.Snapshot {
	return &model.Snapshot{
		SessionID:    s.id,
		StartTime:    s.startTime,
		Mode:         s.mode,
		JobTitle:     s.profile.JobTitle,
		CompanyName:  s.profile.CompanyName,
		CVContent:    s.profile.CVContent,
		Conversation: append([]model.ConversationItem(nil), s.conversation...),
		SavedAt:      s.clk.Now(),
	}
}

// persist writes the crash-recovery snapshot. Failure is logged only; the
// live session must not be disturbed by a storage outage.
func (s *Session) persist(snap *model.Snapshot) {
	if err := s.store.SaveSnapshot(context.Background(), snap); err != nil {
		s.logger.Warn().Err(err).Msg("snapshot save failed; crash recovery degraded")
		s.metrics.RecordError("snapshot", "session")
	}
}

// emit delivers an update, evicting the oldest entry when the subscriber
// is not keeping up. The newest update always lands.
func (s *Session) emit(u Update) {
	select {
	case s.updates <- u:
		return
	default:
	}
	select {
	case <-s.updates:
	default:
	}
	select {
	case s.updates <- u:
	default:
	}
}
