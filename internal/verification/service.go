// File: internal/verification/service.go
package verification

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
	"github.com/drraj1965/neurohealthhub-sub000/internal/mail"
	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/reconcile"
)

// ModeVerifyEmail is the provider's query-parameter value for the native
// email verification flow.
const ModeVerifyEmail = "verifyEmail"

// Params are the inbound verification URL parameters. Exactly one flow
// matches: native (mode + oobCode), custom fallback (token), or neither.
type Params struct {
	Mode    string
	OobCode string
	Token   string
}

// Status is the UI-facing state of the verification flow.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusError      Status = "error"
)

// Result reports the verification outcome. Success of the identity
// verification step is reported even when the subsequent profile
// reconciliation degrades to pending.
type Result struct {
	Status                Status           `json:"status"`
	UID                   string           `json:"uid"`
	Email                 string           `json:"email"`
	Profile               *profile.Profile `json:"profile,omitempty"`
	ReconciliationPending bool             `json:"reconciliation_pending"`
}

// Reconciler is the orchestrator surface the receiver invokes.
type Reconciler interface {
	Reconcile(ctx context.Context, uid, email string) (reconcile.Outcome, error)
}

// Service is the verification event receiver: it classifies the inbound
// signal, drives the provider, and hands the verified identity to the
// reconciliation orchestrator.
type Service struct {
	provider   Provider
	reconciler Reconciler
	mailer     mail.Mailer
	cfg        *config.Config
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates the verification service.
func NewService(
	provider Provider,
	reconciler Reconciler,
	mailer mail.Mailer,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		provider:   provider,
		reconciler: reconciler,
		mailer:     mailer,
		cfg:        cfg,
		logger:     logger.Named("VerificationService"),
		now:        time.Now,
	}
}

// HandleVerification classifies the inbound parameters into exactly one
// flow and runs it. Only ExpiredToken, MalformedToken and
// MissingVerificationParameter surface as errors; reconciliation
// degradation is folded into the success result.
func (s *Service) HandleVerification(ctx context.Context, params Params) (*Result, error) {
	var uid, email string

	switch {
	case params.Mode == ModeVerifyEmail && params.OobCode != "":
		var err error
		uid, email, err = s.provider.ConfirmActionCode(ctx, params.OobCode)
		if err != nil {
			s.logger.Warn("Native action code confirmation failed", zap.Error(err))
			return nil, err
		}

	case params.Token != "":
		tok, err := DecodeFallbackToken(params.Token, s.now())
		if err != nil {
			s.logger.Warn("Fallback token rejected", zap.Error(err))
			return nil, err
		}
		if err := s.provider.MarkEmailVerified(ctx, tok.UID); err != nil {
			return nil, err
		}
		uid, email = tok.UID, tok.Email

	default:
		return nil, common.ErrMissingVerificationParameter
	}

	s.logger.Info("Email verified", zap.String("uid", uid), zap.String("email", email))

	result := &Result{Status: StatusSuccess, UID: uid, Email: email}

	outcome, err := s.reconciler.Reconcile(ctx, uid, email)
	if err != nil {
		// Terminal for reconciliation only: the email IS verified, the
		// profile write retries in the background.
		result.ReconciliationPending = true
		return result, nil
	}

	result.Profile = outcome.Profile
	result.ReconciliationPending = outcome.Pending
	return result, nil
}

// DeliveryAck reports a verification-email dispatch attempt.
type DeliveryAck struct {
	Email           string `json:"email"`
	Link            string `json:"link,omitempty"`
	Delivered       bool   `json:"delivered"`
	AlreadyVerified bool   `json:"already_verified"`
}

// SendVerificationEmail dispatches (or re-dispatches) the verification
// email for a uid. Idempotent: an already-verified identity gets an ack
// and no mail.
func (s *Service) SendVerificationEmail(ctx context.Context, uid string) (*DeliveryAck, error) {
	identity, err := s.provider.GetIdentity(ctx, uid)
	if err != nil {
		return nil, err
	}
	if identity.EmailVerified {
		return &DeliveryAck{Email: identity.Email, AlreadyVerified: true}, nil
	}

	link, err := s.provider.EmailVerificationLink(ctx, identity.Email)
	if err != nil {
		// Provider link minting can fail independently of delivery; fall
		// back to the custom token link.
		s.logger.Warn("Native verification link unavailable; using fallback token link",
			zap.Error(err), zap.String("uid", uid))
		link = s.fallbackLink(uid, identity.Email)
	}

	ack := &DeliveryAck{Email: identity.Email, Link: link}

	if err := s.mailer.Send(ctx, identity.Email, "Verify your NeuroHealthHub email",
		verificationEmailBody(identity.DisplayName, link, s.fallbackLink(uid, identity.Email))); err != nil {
		s.logger.Warn("Verification email delivery failed", zap.Error(err), zap.String("uid", uid))
		return ack, nil
	}

	ack.Delivered = true
	return ack, nil
}

func (s *Service) fallbackLink(uid, email string) string {
	token := EncodeFallbackToken(uid, email, s.now().Add(s.cfg.FallbackTokenTTL))
	return fmt.Sprintf("%s?token=%s", s.cfg.VerifyLinkBaseURL, url.QueryEscape(token))
}

func verificationEmailBody(name, link, fallbackLink string) string {
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
			<h2>Verify your email</h2>
			<p>Hello %s,</p>
			<p>Click the button below to verify your email address:</p>
			<p style="margin: 30px 0;">
				<a href="%s" style="background-color: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; display: inline-block;">Verify Email</a>
			</p>
			<p>If the button does not work, use this link instead:</p>
			<p style="word-break: break-all; color: #007bff;">%s</p>
			<p>If you did not create an account, you can ignore this email.</p>
		</div>
	`, name, link, fallbackLink)
}
