package model

// Role identifies who produced a conversation item
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Mode selects between live copilot assistance and a practice interview
type Mode string

const (
	ModeCopilot  Mode = "copilot"
	ModePractice Mode = "practice"
)

// SuggestionKind identifies which section of a suggestion was requested
type SuggestionKind string

const (
	KindTalkingPoints SuggestionKind = "talkingPoints"
	KindExampleAnswer SuggestionKind = "exampleAnswer"
)

// Rating is the coach's grade for a practice answer
type Rating string

const (
	RatingNeedsImprovement Rating = "Needs Improvement"
	RatingGood             Rating = "Good"
	RatingExcellent        Rating = "Excellent"
)

// ValidRating reports whether r is one of the recognized grades
func ValidRating(r Rating) bool {
	switch r {
	case RatingNeedsImprovement, RatingGood, RatingExcellent:
		return true
	}
	return false
}

// ConversationItem is one entry of the interview transcript. The sequence is
// append-only; an item is only rewritten in place while it is the in-flight
// placeholder for a streaming response.
type ConversationItem struct {
	Role     Role           `json:"role"`
	Text     string         `json:"text"`
	Kind     SuggestionKind `json:"kind,omitempty"`
	Feedback string         `json:"feedback,omitempty"`
	Rating   Rating         `json:"rating,omitempty"`
}
