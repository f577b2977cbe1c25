// File: internal/profile/service.go
package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/netmon"
)

// Service is the read path over the tiers: the remote tier is
// authoritative whenever reachable; the local cache accelerates reads when
// it is not; the session snapshot is a privileged-only fast path that is
// never trusted once the remote tier has answered.
type Service struct {
	remote  *FirestoreStore
	local   *LocalStore
	session *SessionStore
	monitor *netmon.Monitor
	logger  *zap.Logger
}

// NewService creates the profile read service.
func NewService(
	remote *FirestoreStore,
	local *LocalStore,
	session *SessionStore,
	monitor *netmon.Monitor,
	logger *zap.Logger,
) *Service {
	return &Service{
		remote:  remote,
		local:   local,
		session: session,
		monitor: monitor,
		logger:  logger.Named("ProfileService"),
	}
}

// Get fetches the profile for uid, deferring to the remote tier when
// reachable.
func (s *Service) Get(ctx context.Context, uid string) (*Profile, error) {
	if s.monitor == nil || s.monitor.State() != netmon.StateOffline {
		p, err := s.remote.Get(ctx, uid)
		if err == nil {
			return p, nil
		}
		if errors.Is(err, ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		s.logger.Warn("Remote profile read failed; falling back to local cache",
			zap.Error(err), zap.String("uid", uid))
		if s.monitor != nil {
			// A failed real read is exactly what the monitor probes for.
			go s.monitor.ProbeNow(context.Background())
		}
	}

	p, err := s.local.Get(ctx, uid)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		s.logger.Warn("Local profile read failed", zap.Error(err), zap.String("uid", uid))
	}

	// Privileged fast path: a stale snapshot beats a blank screen while
	// the remote tier is unreachable.
	if snap, serr := s.session.GetSnapshot(ctx, uid); serr == nil {
		return snap, nil
	}

	return nil, ErrProfileNotFound
}
