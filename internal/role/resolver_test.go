package role

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/drraj1965/neurohealthhub-sub000/internal/common"
	"github.com/drraj1965/neurohealthhub-sub000/internal/config"
)

// MockDirectory is a mock type for role.Directory
type MockDirectory struct {
	mock.Mock
}

func (m *MockDirectory) IsDoctor(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockDirectory) IsUser(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newTestResolver(directory Directory, allowlist ...string) *Resolver {
	cfg := &config.Config{AdminAllowlistEmails: allowlist}
	return NewResolver(cfg, directory, zap.NewNop())
}

func TestResolve_AllowlistWinsWithoutDirectoryLookup(t *testing.T) {
	directory := new(MockDirectory)
	r := newTestResolver(directory, "drraj@neurohealthhub.com")

	role := r.Resolve(context.Background(), "drraj@neurohealthhub.com")
	assert.Equal(t, common.RoleAdmin, role)

	// Precedence: the allowlist short-circuits before any collection read.
	directory.AssertNotCalled(t, "IsDoctor", mock.Anything, mock.Anything)
	directory.AssertNotCalled(t, "IsUser", mock.Anything, mock.Anything)
}

func TestResolve_AllowlistIsCaseInsensitive(t *testing.T) {
	r := newTestResolver(nil, "  DrRaj@NeuroHealthHub.com ")

	assert.True(t, r.IsAllowlisted("drraj@neurohealthhub.com"))
	assert.True(t, r.IsAllowlisted("DRRAJ@neurohealthhub.COM"))
	assert.False(t, r.IsAllowlisted("other@neurohealthhub.com"))
}

func TestResolve_DoctorDirectory(t *testing.T) {
	ctx := context.Background()
	directory := new(MockDirectory)
	directory.On("IsDoctor", ctx, "doc@example.com").Return(true, nil)

	r := newTestResolver(directory)
	assert.Equal(t, common.RoleDoctor, r.Resolve(ctx, "doc@example.com"))

	directory.AssertNotCalled(t, "IsUser", mock.Anything, mock.Anything)
}

func TestResolve_UserDirectory(t *testing.T) {
	ctx := context.Background()
	directory := new(MockDirectory)
	directory.On("IsDoctor", ctx, "pat@example.com").Return(false, nil)
	directory.On("IsUser", ctx, "pat@example.com").Return(true, nil)

	r := newTestResolver(directory)
	assert.Equal(t, common.RoleUser, r.Resolve(ctx, "pat@example.com"))
}

func TestResolve_UnknownEmailDefaultsToUser(t *testing.T) {
	ctx := context.Background()
	directory := new(MockDirectory)
	directory.On("IsDoctor", ctx, "new@example.com").Return(false, nil)
	directory.On("IsUser", ctx, "new@example.com").Return(false, nil)

	r := newTestResolver(directory)
	assert.Equal(t, common.RoleUser, r.Resolve(ctx, "new@example.com"))
}

func TestResolve_DirectoryFailuresFallThrough(t *testing.T) {
	ctx := context.Background()
	directory := new(MockDirectory)
	directory.On("IsDoctor", ctx, "doc@example.com").Return(false, errors.New("firestore unavailable"))
	directory.On("IsUser", ctx, "doc@example.com").Return(false, errors.New("firestore unavailable"))

	r := newTestResolver(directory)

	// A dead directory degrades to the default role, it never errors out.
	assert.Equal(t, common.RoleUser, r.Resolve(ctx, "doc@example.com"))
}

func TestResolve_AllowlistWorksWhenDirectoryIsDown(t *testing.T) {
	ctx := context.Background()
	directory := new(MockDirectory)
	directory.On("IsDoctor", mock.Anything, mock.Anything).Return(false, errors.New("offline"))
	directory.On("IsUser", mock.Anything, mock.Anything).Return(false, errors.New("offline"))

	r := newTestResolver(directory, "admin@neurohealthhub.com")

	assert.Equal(t, common.RoleAdmin, r.Resolve(ctx, "admin@neurohealthhub.com"))
}

func TestResolve_NilDirectory(t *testing.T) {
	r := newTestResolver(nil)
	assert.Equal(t, common.RoleUser, r.Resolve(context.Background(), "anyone@example.com"))
}
