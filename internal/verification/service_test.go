package verification

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
	"github.com/drraj1965/neurohealthhub-sub000/internal/reconcile"
)

// MockProvider is a mock type for verification.Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) ConfirmActionCode(ctx context.Context, oobCode string) (string, string, error) {
	args := m.Called(ctx, oobCode)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockProvider) MarkEmailVerified(ctx context.Context, uid string) error {
	args := m.Called(ctx, uid)
	return args.Error(0)
}

func (m *MockProvider) GetIdentity(ctx context.Context, uid string) (*Identity, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Identity), args.Error(1)
}

func (m *MockProvider) EmailVerificationLink(ctx context.Context, email string) (string, error) {
	args := m.Called(ctx, email)
	return args.String(0), args.Error(1)
}

// MockReconciler is a mock type for verification.Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Reconcile(ctx context.Context, uid, email string) (reconcile.Outcome, error) {
	args := m.Called(ctx, uid, email)
	return args.Get(0).(reconcile.Outcome), args.Error(1)
}

// MockMailer is a mock type for mail.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

func newTestService(provider *MockProvider, reconciler *MockReconciler, mailer *MockMailer, now time.Time) *Service {
	logger := zap.NewNop()
	cfg := &config.Config{
		VerifyLinkBaseURL: "https://portal.example.com/verify-email",
		FallbackTokenTTL:  24 * time.Hour,
	}
	svc := NewService(provider, reconciler, mailer, cfg, logger)
	svc.now = func() time.Time { return now }
	return svc
}

func TestHandleVerification_NativeFlow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	reconciler := new(MockReconciler)
	svc := newTestService(provider, reconciler, new(MockMailer), now)

	provider.On("ConfirmActionCode", ctx, "valid-oob-code").
		Return("uid-123", "patient@example.com", nil)
	reconciler.On("Reconcile", ctx, "uid-123", "patient@example.com").
		Return(reconcile.Outcome{
			Profile: &profile.Profile{UID: "uid-123", Email: "patient@example.com"},
			Tier:    "remote",
		}, nil)

	result, err := svc.HandleVerification(ctx, Params{Mode: ModeVerifyEmail, OobCode: "valid-oob-code"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "uid-123", result.UID)
	assert.Equal(t, "patient@example.com", result.Email)
	assert.False(t, result.ReconciliationPending)
	require.NotNil(t, result.Profile)
	assert.Equal(t, "uid-123", result.Profile.UID)

	provider.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestHandleVerification_FallbackTokenFlow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	reconciler := new(MockReconciler)
	svc := newTestService(provider, reconciler, new(MockMailer), now)

	token := EncodeFallbackToken("uid-456", "doctor@example.com", now.Add(time.Hour))

	provider.On("MarkEmailVerified", ctx, "uid-456").Return(nil)
	reconciler.On("Reconcile", ctx, "uid-456", "doctor@example.com").
		Return(reconcile.Outcome{
			Profile: &profile.Profile{UID: "uid-456", Email: "doctor@example.com"},
			Tier:    "local",
		}, nil)

	result, err := svc.HandleVerification(ctx, Params{Token: token})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "uid-456", result.UID)
	assert.Equal(t, "doctor@example.com", result.Email)

	provider.AssertExpectations(t)
	reconciler.AssertExpectations(t)
}

func TestHandleVerification_ExpiredTokenNeverReachesProvider(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	reconciler := new(MockReconciler)
	svc := newTestService(provider, reconciler, new(MockMailer), now)

	token := EncodeFallbackToken("uid-456", "doctor@example.com", now.Add(-time.Minute))

	result, err := svc.HandleVerification(ctx, Params{Token: token})
	assert.Nil(t, result)
	require.Error(t, err)
	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "EXPIRED_TOKEN", apiErr.Code)

	// The rejection happens before any provider or store interaction.
	provider.AssertNotCalled(t, "MarkEmailVerified", mock.Anything, mock.Anything)
	reconciler.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleVerification_MissingParameters(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	reconciler := new(MockReconciler)
	svc := newTestService(provider, reconciler, new(MockMailer), now)

	tests := []struct {
		name   string
		params Params
	}{
		{name: "all empty", params: Params{}},
		{name: "mode without oob code", params: Params{Mode: ModeVerifyEmail}},
		{name: "oob code without mode", params: Params{OobCode: "some-code"}},
		{name: "unknown mode", params: Params{Mode: "recoverEmail", OobCode: "some-code"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.HandleVerification(ctx, tt.params)
			assert.Nil(t, result)
			require.Error(t, err)
			apiErr, ok := common.IsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, "MISSING_VERIFICATION_PARAMETER", apiErr.Code)
		})
	}
}

func TestHandleVerification_ReconciliationFailureStillSucceeds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	reconciler := new(MockReconciler)
	svc := newTestService(provider, reconciler, new(MockMailer), now)

	provider.On("ConfirmActionCode", ctx, "valid-oob-code").
		Return("uid-123", "patient@example.com", nil)
	reconciler.On("Reconcile", ctx, "uid-123", "patient@example.com").
		Return(reconcile.Outcome{Pending: true}, reconcile.ErrAllTiersExhausted)

	result, err := svc.HandleVerification(ctx, Params{Mode: ModeVerifyEmail, OobCode: "valid-oob-code"})
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, result.Status)
	assert.True(t, result.ReconciliationPending)
	assert.Nil(t, result.Profile)
}

func TestSendVerificationEmail_AlreadyVerified(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	mailer := new(MockMailer)
	svc := newTestService(provider, new(MockReconciler), mailer, now)

	provider.On("GetIdentity", ctx, "uid-123").
		Return(&Identity{UID: "uid-123", Email: "patient@example.com", EmailVerified: true}, nil)

	ack, err := svc.SendVerificationEmail(ctx, "uid-123")
	require.NoError(t, err)
	assert.True(t, ack.AlreadyVerified)
	assert.False(t, ack.Delivered)

	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestSendVerificationEmail_FallbackLinkWhenProviderLinkFails(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	mailer := new(MockMailer)
	svc := newTestService(provider, new(MockReconciler), mailer, now)

	provider.On("GetIdentity", ctx, "uid-123").
		Return(&Identity{UID: "uid-123", Email: "patient@example.com", DisplayName: "Pat"}, nil)
	provider.On("EmailVerificationLink", ctx, "patient@example.com").
		Return("", assert.AnError)
	mailer.On("Send", ctx, "patient@example.com", mock.Anything, mock.Anything).Return(nil)

	ack, err := svc.SendVerificationEmail(ctx, "uid-123")
	require.NoError(t, err)
	assert.True(t, ack.Delivered)
	assert.Contains(t, ack.Link, "https://portal.example.com/verify-email?token=")

	provider.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestSendVerificationEmail_DeliveryFailureIsNotFatal(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	provider := new(MockProvider)
	mailer := new(MockMailer)
	svc := newTestService(provider, new(MockReconciler), mailer, now)

	provider.On("GetIdentity", ctx, "uid-123").
		Return(&Identity{UID: "uid-123", Email: "patient@example.com"}, nil)
	provider.On("EmailVerificationLink", ctx, "patient@example.com").
		Return("https://provider.example.com/action?oobCode=abc", nil)
	mailer.On("Send", ctx, "patient@example.com", mock.Anything, mock.Anything).Return(assert.AnError)

	ack, err := svc.SendVerificationEmail(ctx, "uid-123")
	require.NoError(t, err)
	assert.False(t, ack.Delivered)
	assert.Equal(t, "https://provider.example.com/action?oobCode=abc", ack.Link)
}
