// File: internal/reconcile/orchestrator.go
package reconcile

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/netmon"
	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
)

// ErrAllTiersExhausted is terminal for reconciliation only, never for the
// identity verification that triggered it. Callers surface it as a soft
// warning and report verification success regardless.
var ErrAllTiersExhausted = errors.New("all profile store tiers exhausted")

// RoleResolver resolves the role tier to embed at write time.
type RoleResolver interface {
	Resolve(ctx context.Context, email string) string
}

// PendingRegistrationReader reads the registration payload captured at
// sign-up, used to seed the profile once verification completes.
type PendingRegistrationReader interface {
	GetPendingRegistration(ctx context.Context, uid string) (*profile.PendingRegistration, error)
}

// SessionWriter is the ephemeral write-through target for privileged
// profiles.
type SessionWriter interface {
	SaveSnapshot(ctx context.Context, p *profile.Profile) error
}

// Outcome reports what the cascade achieved.
type Outcome struct {
	// Profile is the written record, nil when Pending.
	Profile *profile.Profile
	// Tier names the backend that accepted the write.
	Tier string
	// Pending is set when every tier failed; the identity stays queued for
	// a retry on the next Offline -> Online transition.
	Pending bool
}

type pendingIdentity struct {
	UID      string
	Email    string
	QueuedAt time.Time
}

// Orchestrator drives the ordered cascade of upsert attempts across the
// store tiers, short-circuiting on first success. A single tier's
// unavailability never blocks or fails a reconciliation.
type Orchestrator struct {
	backends []profile.Store
	resolver RoleResolver
	session  SessionWriter
	regs     PendingRegistrationReader
	monitor  *netmon.Monitor
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[string]pendingIdentity

	stopOnce    sync.Once
	stopCh      chan struct{}
	unsubscribe func()
}

// NewOrchestrator assembles the cascade. apiStore may be nil (tier not
// configured); remote and local are required. Order is fixed: server-
// mediated API, then the remote store directly, then the local last-resort
// write.
func NewOrchestrator(
	apiStore *profile.APIStore,
	remote *profile.FirestoreStore,
	local *profile.LocalStore,
	session *profile.SessionStore,
	resolver RoleResolver,
	monitor *netmon.Monitor,
	logger *zap.Logger,
) *Orchestrator {
	var backends []profile.Store
	if apiStore != nil {
		backends = append(backends, apiStore)
	}
	backends = append(backends, remote, local)

	return &Orchestrator{
		backends: backends,
		resolver: resolver,
		session:  session,
		regs:     local,
		monitor:  monitor,
		logger:   logger.Named("Orchestrator"),
		pending:  make(map[string]pendingIdentity),
		stopCh:   make(chan struct{}),
	}
}

// newForTesting wires an orchestrator over arbitrary backends.
func newForTesting(
	backends []profile.Store,
	resolver RoleResolver,
	session SessionWriter,
	regs PendingRegistrationReader,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		backends: backends,
		resolver: resolver,
		session:  session,
		regs:     regs,
		logger:   logger,
		pending:  make(map[string]pendingIdentity),
		stopCh:   make(chan struct{}),
	}
}

// Start subscribes to the network monitor so queued reconciliations re-run
// when connectivity returns.
func (o *Orchestrator) Start() {
	if o.monitor == nil {
		return
	}
	ch, cancel := o.monitor.Subscribe()
	o.unsubscribe = cancel

	go func() {
		for {
			select {
			case <-o.stopCh:
				return
			case state, ok := <-ch:
				if !ok {
					return
				}
				if state == netmon.StateOnline {
					o.RetryPending(context.Background())
				}
			}
		}
	}()
}

// Stop tears down the monitor subscription.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		close(o.stopCh)
		if o.unsubscribe != nil {
			o.unsubscribe()
		}
	})
}

// Reconcile guarantees a best-effort, idempotent profile write for a
// verified identity. The returned error is only ever ErrAllTiersExhausted;
// everything tier-level is swallowed and logged, advancing the cascade.
func (o *Orchestrator) Reconcile(ctx context.Context, uid, email string) (Outcome, error) {
	fields := o.buildFields(ctx, uid, email)

	for i, backend := range o.backends {
		attempt := fields
		if i == len(o.backends)-1 {
			// Last resort: accept degraded field completeness over no
			// record at all.
			attempt = o.minimalFields(uid, email, fields.Role)
		}

		p, err := backend.Upsert(ctx, uid, attempt)
		if err != nil {
			o.logTierFailure(backend.Name(), uid, err)
			continue
		}

		o.logger.Info("Profile reconciled",
			zap.String("uid", uid), zap.String("tier", backend.Name()), zap.String("role", p.Role))
		o.clearPending(uid)

		if o.session != nil {
			if serr := o.session.SaveSnapshot(ctx, p); serr != nil {
				o.logger.Warn("Session snapshot write-through failed", zap.Error(serr), zap.String("uid", uid))
			}
		}

		return Outcome{Profile: p, Tier: backend.Name()}, nil
	}

	o.enqueuePending(uid, email)
	o.logger.Warn("Profile reconciliation exhausted every tier; queued for retry",
		zap.String("uid", uid), zap.String("email", email))
	return Outcome{Pending: true}, ErrAllTiersExhausted
}

// RetryPending re-runs every queued reconciliation. Invoked on the
// monitor's Offline -> Online transition and available for manual kicks.
func (o *Orchestrator) RetryPending(ctx context.Context) {
	o.mu.Lock()
	queued := make([]pendingIdentity, 0, len(o.pending))
	for _, item := range o.pending {
		queued = append(queued, item)
	}
	o.mu.Unlock()

	if len(queued) == 0 {
		return
	}

	o.logger.Info("Retrying pending reconciliations", zap.Int("count", len(queued)))
	for _, item := range queued {
		// Reconcile clears the queue entry on success and re-queues on
		// exhaustion, so failures here need no extra handling.
		if _, err := o.Reconcile(ctx, item.UID, item.Email); err != nil {
			o.logger.Debug("Pending reconciliation still failing",
				zap.String("uid", item.UID), zap.Error(err))
		}
	}
}

// PendingCount reports the queue depth.
func (o *Orchestrator) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// buildFields seeds the write from the pending registration when one was
// captured, and embeds the resolved role. The registration record is read,
// never deleted: two tabs consuming it concurrently converge through the
// idempotent merge.
func (o *Orchestrator) buildFields(ctx context.Context, uid, email string) profile.Fields {
	fields := profile.Fields{Email: email}

	if o.regs != nil {
		reg, err := o.regs.GetPendingRegistration(ctx, uid)
		if err != nil {
			o.logger.Warn("Pending registration read failed; proceeding without it",
				zap.Error(err), zap.String("uid", uid))
		} else if reg != nil {
			fields.FirstName = reg.FirstName
			fields.LastName = reg.LastName
			fields.Mobile = reg.Mobile
			fields.Username = reg.Username
		}
	}

	if fields.FirstName == "" {
		fields.FirstName = profile.DeriveFirstName(email)
	}

	fields.Role = o.resolver.Resolve(ctx, email)
	return fields
}

func (o *Orchestrator) minimalFields(uid, email, role string) profile.Fields {
	return profile.Fields{
		Email:     email,
		FirstName: profile.DeriveFirstName(email),
		LastName:  "",
		Role:      role,
	}
}

func (o *Orchestrator) logTierFailure(tier, uid string, err error) {
	se, ok := profile.AsStoreError(err)
	if !ok {
		o.logger.Warn("Store tier failed; advancing cascade",
			zap.String("tier", tier), zap.String("uid", uid), zap.Error(err))
		return
	}
	switch se.Kind {
	case profile.KindPermissionDenied:
		o.logger.Warn("Store tier denied permission; advancing cascade (configuration concern)",
			zap.String("tier", tier), zap.String("uid", uid), zap.Error(se.Err))
	case profile.KindInvalid:
		o.logger.Error("Store tier rejected the write as invalid; advancing cascade",
			zap.String("tier", tier), zap.String("uid", uid), zap.Error(se.Err))
	default:
		o.logger.Warn("Store tier unavailable; advancing cascade",
			zap.String("tier", tier), zap.String("uid", uid), zap.Error(se.Err))
	}
}

func (o *Orchestrator) enqueuePending(uid, email string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending[uid] = pendingIdentity{UID: uid, Email: email, QueuedAt: time.Now()}
}

func (o *Orchestrator) clearPending(uid string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.pending, uid)
}
