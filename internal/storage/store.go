package storage

import (
	"context"
	"errors"

	"github.com/candidai/interview-gateway/internal/model"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// Store persists crash-recovery snapshots and completed-session records.
//
// A snapshot is resumable only while it is newer than the session's "ended"
// marker; LoadSnapshot enforces that and returns ErrNotFound for sessions
// that ended cleanly.
type Store interface {
	// SaveSnapshot upserts the crash-recovery record for a live session.
	SaveSnapshot(ctx context.Context, snap *model.Snapshot) error

	// LoadSnapshot returns the resumable snapshot for a session, or
	// ErrNotFound when none exists or the session already ended.
	LoadSnapshot(ctx context.Context, sessionID string) (*model.Snapshot, error)

	// MarkEnded records a clean end, invalidating the session's snapshot.
	MarkEnded(ctx context.Context, sessionID string) error

	// SaveCompleted appends a finished session to the history list.
	SaveCompleted(ctx context.Context, rec *model.CompletedSession) error

	// ListCompleted returns completed sessions, most recent first.
	ListCompleted(ctx context.Context) ([]model.CompletedSession, error)

	// ClearCompleted deletes the whole history list.
	ClearCompleted(ctx context.Context) error
}
