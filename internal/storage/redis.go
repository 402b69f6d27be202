package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/candidai/interview-gateway/internal/model"
	"github.com/candidai/interview-gateway/internal/resilience"
)

const (
	snapshotPrefix = "snapshot:"
	endedPrefix    = "ended:"
	completedKey   = "sessions:completed"
)

// RedisStore persists snapshots and completed sessions in Redis.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	retry  *resilience.RetryConfig
	logger zerolog.Logger
}

// NewRedisStore creates a store backed by the given Redis client. Snapshots
// and ended markers expire after ttl; completed sessions do not expire.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb:    rdb,
		ttl:    ttl,
		retry:  defaultSnapshotRetry,
		logger: log.With().Str("component", "storage").Logger(),
	}
}

// SetRetryConfig overrides the backoff used for snapshot saves.
func (s *RedisStore) SetRetryConfig(cfg *resilience.RetryConfig) {
	if cfg != nil {
		s.retry = cfg
	}
}

// NewRedisStoreFromURL parses a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedisStore(rdb, ttl), nil
}

// defaultSnapshotRetry keeps the retry short: a snapshot save happens after
// every conversation mutation and must never stall the live session for long.
var defaultSnapshotRetry = &resilience.RetryConfig{
	MaxAttempts:       3,
	InitialBackoff:    50 * time.Millisecond,
	MaxBackoff:        500 * time.Millisecond,
	BackoffMultiplier: 2.0,
	Jitter:            true,
}

func (s *RedisStore) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	err = resilience.Retry(ctx, func() error {
		return s.rdb.Set(ctx, snapshotPrefix+snap.SessionID, data, s.ttl).Err()
	}, s.retry, resilience.IsRetryableNetworkError)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadSnapshot(ctx context.Context, sessionID string) (*model.Snapshot, error) {
	data, err := s.rdb.Get(ctx, snapshotPrefix+sessionID).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap model.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	// A snapshot is only resumable if it postdates the session's clean end.
	endedAt, err := s.endedAt(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if endedAt != nil && !snap.SavedAt.After(*endedAt) {
		return nil, ErrNotFound
	}
	return &snap, nil
}

func (s *RedisStore) MarkEnded(ctx context.Context, sessionID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.rdb.Set(ctx, endedPrefix+sessionID, now, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to mark session ended: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveCompleted(ctx context.Context, rec *model.CompletedSession) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal completed session: %w", err)
	}
	if err := s.rdb.LPush(ctx, completedKey, data).Err(); err != nil {
		return fmt.Errorf("failed to save completed session: %w", err)
	}
	return nil
}

func (s *RedisStore) ListCompleted(ctx context.Context) ([]model.CompletedSession, error) {
	raw, err := s.rdb.LRange(ctx, completedKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list completed sessions: %w", err)
	}

	sessions := make([]model.CompletedSession, 0, len(raw))
	for _, item := range raw {
		var rec model.CompletedSession
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			s.logger.Warn().Err(err).Msg("Skipping unreadable completed session record")
			continue
		}
		sessions = append(sessions, rec)
	}
	return sessions, nil
}

func (s *RedisStore) ClearCompleted(ctx context.Context) error {
	if err := s.rdb.Del(ctx, completedKey).Err(); err != nil {
		return fmt.Errorf("failed to clear completed sessions: %w", err)
	}
	return nil
}

// Ping reports whether the Redis backend is reachable, for readiness checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) endedAt(ctx context.Context, sessionID string) (*time.Time, error) {
	raw, err := s.rdb.Get(ctx, endedPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ended marker: %w", err)
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("corrupt ended marker for %s: %w", sessionID, err)
	}
	return &t, nil
}
