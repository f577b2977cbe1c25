package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/profile"
)

// MockStore is a mock type for profile.Store
type MockStore struct {
	mock.Mock
	name string
}

func (m *MockStore) Name() string { return m.name }

func (m *MockStore) Upsert(ctx context.Context, uid string, f profile.Fields) (*profile.Profile, error) {
	args := m.Called(ctx, uid, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *MockStore) Get(ctx context.Context, uid string) (*profile.Profile, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

// MockSessionWriter is a mock type for reconcile.SessionWriter
type MockSessionWriter struct {
	mock.Mock
}

func (m *MockSessionWriter) SaveSnapshot(ctx context.Context, p *profile.Profile) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

// MockRegistrationReader is a mock type for reconcile.PendingRegistrationReader
type MockRegistrationReader struct {
	mock.Mock
}

func (m *MockRegistrationReader) GetPendingRegistration(ctx context.Context, uid string) (*profile.PendingRegistration, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.PendingRegistration), args.Error(1)
}

// stubResolver returns a fixed role for every email.
type stubResolver struct {
	role string
}

func (r *stubResolver) Resolve(ctx context.Context, email string) string { return r.role }

func unavailable(tier string) error {
	return profile.NewStoreError(tier, profile.KindUnavailable, errors.New("connection refused"))
}

func permissionDenied(tier string) error {
	return profile.NewStoreError(tier, profile.KindPermissionDenied, errors.New("missing scope"))
}

func writtenProfile(uid, email, role string) *profile.Profile {
	now := time.Now()
	return &profile.Profile{UID: uid, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
}

func TestReconcile_FirstTierSucceeds(t *testing.T) {
	ctx := context.Background()
	api := &MockStore{name: "api"}
	remote := &MockStore{name: "remote"}
	local := &MockStore{name: "local"}
	session := new(MockSessionWriter)
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-1").Return(nil, nil)
	api.On("Upsert", ctx, "uid-1", mock.Anything).
		Return(writtenProfile("uid-1", "patient@example.com", "user"), nil)
	session.On("SaveSnapshot", ctx, mock.Anything).Return(nil)

	o := newForTesting([]profile.Store{api, remote, local}, &stubResolver{role: "user"}, session, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-1", "patient@example.com")
	require.NoError(t, err)
	assert.Equal(t, "api", outcome.Tier)
	assert.False(t, outcome.Pending)
	require.NotNil(t, outcome.Profile)

	// Short-circuit: later tiers are never touched.
	remote.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
	local.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_CascadeFallsThroughToLastTier(t *testing.T) {
	ctx := context.Background()
	api := &MockStore{name: "api"}
	remote := &MockStore{name: "remote"}
	local := &MockStore{name: "local"}
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-2").Return(nil, nil)
	api.On("Upsert", ctx, "uid-2", mock.Anything).Return(nil, unavailable("api"))
	remote.On("Upsert", ctx, "uid-2", mock.Anything).Return(nil, unavailable("remote"))
	local.On("Upsert", ctx, "uid-2", mock.Anything).
		Return(writtenProfile("uid-2", "jane.doe@example.com", "user"), nil)

	o := newForTesting([]profile.Store{api, remote, local}, &stubResolver{role: "user"}, nil, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-2", "jane.doe@example.com")
	require.NoError(t, err)
	assert.Equal(t, "local", outcome.Tier)
	assert.Equal(t, 0, o.PendingCount())

	// The last-resort write carries the minimal field set with a derived
	// first name.
	lastCall := local.Calls[len(local.Calls)-1]
	fields := lastCall.Arguments.Get(2).(profile.Fields)
	assert.Equal(t, "jane doe", fields.FirstName)
	assert.Equal(t, "jane.doe@example.com", fields.Email)
}

func TestReconcile_PermissionDeniedAdvancesCascade(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	local := &MockStore{name: "local"}
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-3").Return(nil, nil)
	remote.On("Upsert", ctx, "uid-3", mock.Anything).Return(nil, permissionDenied("remote"))
	local.On("Upsert", ctx, "uid-3", mock.Anything).
		Return(writtenProfile("uid-3", "patient@example.com", "user"), nil)

	o := newForTesting([]profile.Store{remote, local}, &stubResolver{role: "user"}, nil, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-3", "patient@example.com")
	require.NoError(t, err)
	assert.Equal(t, "local", outcome.Tier)
}

func TestReconcile_AllTiersExhaustedQueuesRetry(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	local := &MockStore{name: "local"}
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-4").Return(nil, nil)
	remote.On("Upsert", ctx, "uid-4", mock.Anything).Return(nil, unavailable("remote"))
	local.On("Upsert", ctx, "uid-4", mock.Anything).Return(nil, unavailable("local"))

	o := newForTesting([]profile.Store{remote, local}, &stubResolver{role: "user"}, nil, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-4", "patient@example.com")
	require.ErrorIs(t, err, ErrAllTiersExhausted)
	assert.True(t, outcome.Pending)
	assert.Nil(t, outcome.Profile)
	assert.Equal(t, 1, o.PendingCount())
}

func TestRetryPending_ClearsQueueOnSuccess(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-5").Return(nil, nil)
	remote.On("Upsert", ctx, "uid-5", mock.Anything).Return(nil, unavailable("remote")).Once()
	remote.On("Upsert", ctx, "uid-5", mock.Anything).
		Return(writtenProfile("uid-5", "patient@example.com", "user"), nil).Once()

	o := newForTesting([]profile.Store{remote}, &stubResolver{role: "user"}, nil, regs, zap.NewNop())

	_, err := o.Reconcile(ctx, "uid-5", "patient@example.com")
	require.ErrorIs(t, err, ErrAllTiersExhausted)
	require.Equal(t, 1, o.PendingCount())

	o.RetryPending(ctx)
	assert.Equal(t, 0, o.PendingCount())
}

func TestReconcile_RegistrationDataSeedsWrite(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-6").Return(&profile.PendingRegistration{
		UID:       "uid-6",
		FirstName: "Aisha",
		LastName:  "Khan",
		Mobile:    "+971500000000",
		Username:  "aisha-khan",
	}, nil)
	remote.On("Upsert", ctx, "uid-6", mock.MatchedBy(func(f profile.Fields) bool {
		return f.FirstName == "Aisha" && f.LastName == "Khan" &&
			f.Username == "aisha-khan" && f.Role == "doctor"
	})).Return(writtenProfile("uid-6", "aisha@example.com", "doctor"), nil)

	o := newForTesting([]profile.Store{remote}, &stubResolver{role: "doctor"}, nil, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-6", "aisha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "doctor", outcome.Profile.Role)
	remote.AssertExpectations(t)
}

func TestReconcile_PrivilegedWriteThroughToSession(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	session := new(MockSessionWriter)
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-7").Return(nil, nil)
	remote.On("Upsert", ctx, "uid-7", mock.Anything).
		Return(writtenProfile("uid-7", "admin@example.com", "admin"), nil)
	session.On("SaveSnapshot", ctx, mock.MatchedBy(func(p *profile.Profile) bool {
		return p.Role == "admin"
	})).Return(nil)

	o := newForTesting([]profile.Store{remote}, &stubResolver{role: "admin"}, session, regs, zap.NewNop())

	_, err := o.Reconcile(ctx, "uid-7", "admin@example.com")
	require.NoError(t, err)
	session.AssertExpectations(t)
}

func TestReconcile_OfflineOperatorLandsLocallyAsAdmin(t *testing.T) {
	ctx := context.Background()
	api := &MockStore{name: "api"}
	remote := &MockStore{name: "remote"}
	local := &MockStore{name: "local"}
	session := new(MockSessionWriter)
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-op").Return(nil, nil)
	api.On("Upsert", ctx, "uid-op", mock.Anything).Return(nil, unavailable("api"))
	remote.On("Upsert", ctx, "uid-op", mock.Anything).Return(nil, unavailable("remote"))
	local.On("Upsert", ctx, "uid-op", mock.MatchedBy(func(f profile.Fields) bool {
		return f.Role == "admin" && f.Email == "ops@neurohealthhub.com"
	})).Return(writtenProfile("uid-op", "ops@neurohealthhub.com", "admin"), nil)
	session.On("SaveSnapshot", ctx, mock.Anything).Return(nil)

	// The allowlist resolves without any store, so a full outage still
	// produces an elevated local record.
	o := newForTesting([]profile.Store{api, remote, local}, &stubResolver{role: "admin"}, session, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-op", "ops@neurohealthhub.com")
	require.NoError(t, err)
	assert.Equal(t, "local", outcome.Tier)
	assert.Equal(t, "admin", outcome.Profile.Role)
	session.AssertExpectations(t)
}

func TestReconcile_SessionFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	remote := &MockStore{name: "remote"}
	session := new(MockSessionWriter)
	regs := new(MockRegistrationReader)

	regs.On("GetPendingRegistration", ctx, "uid-8").Return(nil, nil)
	remote.On("Upsert", ctx, "uid-8", mock.Anything).
		Return(writtenProfile("uid-8", "admin@example.com", "admin"), nil)
	session.On("SaveSnapshot", ctx, mock.Anything).Return(errors.New("redis down"))

	o := newForTesting([]profile.Store{remote}, &stubResolver{role: "admin"}, session, regs, zap.NewNop())

	outcome, err := o.Reconcile(ctx, "uid-8", "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "remote", outcome.Tier)
}
