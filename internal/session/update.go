package session

import "github.com/candidai/interview-gateway/internal/model"

// UpdateType discriminates the session's outbound event stream.
type UpdateType string

const (
	// UpdateSuggestion carries the live-updated sections of a copilot
	// suggestion stream. The final update of a stream has Done set.
	UpdateSuggestion UpdateType = "suggestion"
	// UpdatePractice carries the live-updated practice turn (feedback,
	// rating, next question).
	UpdatePractice UpdateType = "practice"
	// UpdateCooldown carries the countdown while triggers are locked out.
	UpdateCooldown UpdateType = "cooldown"
	// UpdateError carries a user-facing failure message.
	UpdateError UpdateType = "error"
)

// Update is one event from a session to its subscriber.
type Update struct {
	Type       UpdateType           `json:"type"`
	Generation uint64               `json:"generation,omitempty"`
	Kind       model.SuggestionKind `json:"kind,omitempty"`
	Question   string               `json:"question,omitempty"`

	TalkingPoints string `json:"talkingPoints,omitempty"`
	ExampleAnswer string `json:"exampleAnswer,omitempty"`

	Feedback     string       `json:"feedback,omitempty"`
	Rating       model.Rating `json:"rating,omitempty"`
	NextQuestion string       `json:"nextQuestion,omitempty"`

	Done      bool   `json:"done,omitempty"`
	FromCache bool   `json:"fromCache,omitempty"`
	Error     string `json:"error,omitempty"`

	CooldownRemaining int `json:"cooldownRemaining,omitempty"`
}
