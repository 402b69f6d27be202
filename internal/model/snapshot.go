package model

import "time"

// Snapshot is the crash-recovery record persisted after every mutation of the
// conversation log while a session is live.
type Snapshot struct {
	SessionID    string             `json:"sessionId"`
	StartTime    time.Time          `json:"startTime"`
	Mode         Mode               `json:"mode"`
	JobTitle     string             `json:"jobTitle"`
	CompanyName  string             `json:"companyName"`
	CVContent    string             `json:"cvContent"`
	Conversation []ConversationItem `json:"conversation"`
	SavedAt      time.Time          `json:"savedAt"`
}

// CompletedSession is the archived record of a finished session
type CompletedSession struct {
	ID           string             `json:"id"`
	Date         time.Time          `json:"date"`
	JobTitle     string             `json:"jobTitle"`
	CompanyName  string             `json:"companyName"`
	Mode         Mode               `json:"mode"`
	Conversation []ConversationItem `json:"conversation"`
	Summary      string             `json:"summary"`
}
