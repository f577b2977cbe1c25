// File: internal/role/resolver.go
package role

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// Directory answers "does a record for this email exist" against the
// doctor-type and user-type collection tiers.
type Directory interface {
	IsDoctor(ctx context.Context, email string) (bool, error)
	IsUser(ctx context.Context, email string) (bool, error)
}

// Resolver funnels every role decision through one precedence order:
// allowlist, doctor directory, user directory, default user. The allowlist
// check has zero external dependencies, so operator accounts can never be
// locked out by store unavailability — the degraded-mode last-resort write
// depends on that.
type Resolver struct {
	allowlist map[string]struct{}
	directory Directory
	logger    *zap.Logger
}

// NewResolver builds the resolver from the configured allowlist.
func NewResolver(cfg *config.Config, directory Directory, logger *zap.Logger) *Resolver {
	allowlist := make(map[string]struct{}, len(cfg.AdminAllowlistEmails))
	for _, e := range cfg.AdminAllowlistEmails {
		allowlist[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Resolver{
		allowlist: allowlist,
		directory: directory,
		logger:    logger.Named("RoleResolver"),
	}
}

// IsAllowlisted reports whether the email is in the privileged allowlist.
func (r *Resolver) IsAllowlisted(email string) bool {
	_, ok := r.allowlist[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Resolve determines the role tier for an email. Directory lookup failures
// are swallowed: an unreachable store can demote a doctor to the default
// role for one write, but the idempotent merge repairs that on the next
// reconciliation, and it never blocks the cascade.
func (r *Resolver) Resolve(ctx context.Context, email string) string {
	if r.IsAllowlisted(email) {
		return common.RoleAdmin
	}

	if r.directory == nil {
		return common.RoleUser
	}

	if isDoctor, err := r.directory.IsDoctor(ctx, email); err != nil {
		r.logger.Warn("Doctor directory lookup failed; falling through", zap.Error(err), zap.String("email", email))
	} else if isDoctor {
		return common.RoleDoctor
	}

	if isUser, err := r.directory.IsUser(ctx, email); err != nil {
		r.logger.Warn("User directory lookup failed; falling through", zap.Error(err), zap.String("email", email))
	} else if isUser {
		return common.RoleUser
	}

	// No record anywhere: newly reconciled identity.
	return common.RoleUser
}
