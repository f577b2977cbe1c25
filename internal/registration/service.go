// File: internal/registration/service.go
package registration

import (
	"context"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/verification"
)

// Service captures PendingRegistration payloads and kicks off verification
// email delivery.
type Service struct {
	store    *profile.LocalStore
	verifier *verification.Service
	logger   *zap.Logger
}

// NewService creates the registration service.
func NewService(store *profile.LocalStore, verifier *verification.Service, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		verifier: verifier,
		logger:   logger.Named("RegistrationService"),
	}
}

// Capture stores the registration payload and attempts to dispatch the
// verification email. Dispatch failure does not fail the capture; the
// send endpoint can be retried independently.
func (s *Service) Capture(ctx context.Context, req CreateRegistrationRequest) (*RegistrationResponse, error) {
	reg := &profile.PendingRegistration{
		UID:       req.UID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Mobile:    req.Mobile,
		Username:  slug.Make(req.Username),
	}

	if err := s.store.SavePendingRegistration(ctx, reg); err != nil {
		s.logger.Error("Failed to capture pending registration", zap.Error(err), zap.String("uid", req.UID))
		return nil, err
	}

	resp := &RegistrationResponse{
		UID:        reg.UID,
		Username:   reg.Username,
		CapturedAt: reg.CapturedAt,
	}

	if ack, err := s.verifier.SendVerificationEmail(ctx, req.UID); err != nil {
		s.logger.Warn("Verification email dispatch failed after capture",
			zap.Error(err), zap.String("uid", req.UID))
	} else {
		resp.VerificationDispatched = ack.Delivered
	}

	s.logger.Info("Pending registration captured",
		zap.String("uid", reg.UID), zap.String("username", reg.Username))
	return resp, nil
}
