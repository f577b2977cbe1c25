// File: internal/verification/provider.go
package verification

import (
	"context"

	"github.com/drraj1965/neurohealthhub-sub000/internal/firebase"
)

// Identity is the provider-owned record as this system sees it: read-only
// except for the emailVerified flag, which we may ask the provider to flip.
type Identity struct {
	UID           string
	Email         string
	DisplayName   string
	EmailVerified bool
}

// Provider is the identity-provider surface the verification flow needs.
type Provider interface {
	// ConfirmActionCode submits a native action code; on success the
	// provider has flipped emailVerified and reports the identity.
	ConfirmActionCode(ctx context.Context, oobCode string) (uid, email string, err error)
	// MarkEmailVerified flips emailVerified for the custom fallback flow.
	MarkEmailVerified(ctx context.Context, uid string) error
	// GetIdentity fetches the provider record for uid.
	GetIdentity(ctx context.Context, uid string) (*Identity, error)
	// EmailVerificationLink mints a native verification link.
	EmailVerificationLink(ctx context.Context, email string) (string, error)
}

// firebaseProvider adapts the Firebase service to the Provider interface.
type firebaseProvider struct {
	svc *firebase.Service
}

var _ Provider = (*firebaseProvider)(nil)

// NewFirebaseProvider wraps the Firebase service.
func NewFirebaseProvider(svc *firebase.Service) Provider {
	return &firebaseProvider{svc: svc}
}

func (p *firebaseProvider) ConfirmActionCode(ctx context.Context, oobCode string) (string, string, error) {
	return p.svc.ConfirmActionCode(ctx, oobCode)
}

func (p *firebaseProvider) MarkEmailVerified(ctx context.Context, uid string) error {
	return p.svc.MarkEmailVerified(ctx, uid)
}

func (p *firebaseProvider) GetIdentity(ctx context.Context, uid string) (*Identity, error) {
	rec, err := p.svc.GetIdentity(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UID:           rec.UID,
		Email:         rec.Email,
		DisplayName:   rec.DisplayName,
		EmailVerified: rec.EmailVerified,
	}, nil
}

func (p *firebaseProvider) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	return p.svc.EmailVerificationLink(ctx, email)
}
