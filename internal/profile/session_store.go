// File: internal/profile/session_store.go
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
	"github.com/drraj1965/neurohealthhub-sub000/internal/platform/redis"
)

// SessionStore is the ephemeral tier: one privileged snapshot per identity,
// TTL-bound, written through only for elevated roles to avoid a UI flash
// before the authoritative fetch completes. Never a write-of-record and
// never consulted once the remote tier has answered.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewSessionStore creates the session tier. A nil redis client means the
// tier is absent; every method degrades to a no-op / not-found.
func NewSessionStore(client *redis.Client, cfg *config.Config, logger *zap.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		ttl:    cfg.SessionSnapshotTTL,
		logger: logger.Named("SessionStore"),
	}
}

func (s *SessionStore) key(uid string) string {
	return "session:privileged-profile:" + uid
}

// SaveSnapshot writes through a privileged profile. Non-elevated profiles
// are ignored by contract.
func (s *SessionStore) SaveSnapshot(ctx context.Context, p *Profile) error {
	if s.client == nil || p == nil {
		return nil
	}
	if !common.IsElevatedRole(p.Role) {
		return nil
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("session snapshot: failed to marshal: %w", err)
	}

	if err := s.client.Set(ctx, s.key(p.UID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("Failed to write session snapshot", zap.Error(err), zap.String("uid", p.UID))
		return NewStoreError("session", KindUnavailable, err)
	}
	return nil
}

// GetSnapshot reads the snapshot for uid, or ErrProfileNotFound.
func (s *SessionStore) GetSnapshot(ctx context.Context, uid string) (*Profile, error) {
	if s.client == nil {
		return nil, ErrProfileNotFound
	}

	val, err := s.client.Get(ctx, s.key(uid)).Result()
	if err == goredis.Nil {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, NewStoreError("session", KindUnavailable, err)
	}

	var p Profile
	if err := json.Unmarshal([]byte(val), &p); err != nil {
		return nil, fmt.Errorf("session snapshot: failed to unmarshal: %w", err)
	}
	return &p, nil
}

// Clear drops the snapshot, used at session end.
func (s *SessionStore) Clear(ctx context.Context, uid string) error {
	if s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.key(uid)).Err()
}
