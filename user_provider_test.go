package eventsync_test

import (
	"context"
	"testing"
	"time"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func verifiedUser(t *testing.T, password string) *eventsync.User {
	t.Helper()

	hash, err := eventsync.HashPassword(password)
	require.NoError(t, err)

	schoolID := uuid.New()
	return &eventsync.User{
		ID:           uuid.New(),
		Email:        "teacher@example.com",
		Name:         "Pat Example",
		Role:         eventsync.RoleTeacher,
		SchoolID:     &schoolID,
		PasswordHash: hash,
		IsVerified:   true,
	}
}

func TestVerifyIdentitySuccess(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	users.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	identity, err := provider.VerifyIdentity(ctx, user.Email, "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, user.Email, identity.Email())
	assert.Equal(t, eventsync.RoleTeacher, identity.Role())

	users.AssertExpectations(t)
}

func TestVerifyIdentityUnknownEmail(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	users.On("GetByEmail", ctx, "nobody@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(ctx, "nobody@example.com", "password123")
	require.Error(t, err)

	// identical failure to a password mismatch
	assert.True(t, goerrors.Is(err, eventsync.ErrInvalidCredentials))
}

func TestVerifyIdentityWrongPassword(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	users.On("TrackAttemptedLogin", ctx, user).Return(nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(ctx, user.Email, "wrong password")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrInvalidCredentials))

	users.AssertExpectations(t)
}

func TestVerifyIdentityUnverifiedAccount(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	user.IsVerified = false

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	// the verification nudge only surfaces after the password matched
	_, err := provider.VerifyIdentity(ctx, user.Email, "password123")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrAccountNotVerified))

	users.AssertExpectations(t)
}

func TestVerifyIdentityTooManyAttempts(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	attemptAt := time.Now().Add(-time.Hour)
	user.LoginAttempts = eventsync.MaxLoginAttempts + 1
	user.LoginAttemptAt = &attemptAt

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(ctx, user.Email, "password123")
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTooManyLoginAttempts))
}

func TestVerifyIdentityCooldownExpiredResetsAttempts(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	attemptAt := time.Now().Add(-48 * time.Hour)
	user.LoginAttempts = eventsync.MaxLoginAttempts + 1
	user.LoginAttemptAt = &attemptAt

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	users.On("TrackSuccessfulLogin", ctx, mock.Anything).Return(nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(ctx, user.Email, "password123")
	require.NoError(t, err)

	users.AssertExpectations(t)
}

func TestVerifyIdentityInvalidRole(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	user.Role = "janitor"

	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()
	users.On("TrackSuccessfulLogin", ctx, user).Return(nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	_, err := provider.VerifyIdentity(ctx, user.Email, "password123")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "INVALID_ROLE", richErr.TextCode)
}

func TestFindIdentityByIdentifier(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	users.On("GetByEmail", ctx, user.Email).Return(user, nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	identity, err := provider.FindIdentityByIdentifier(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.Email, identity.Email())
}

func TestFindIdentityByUserID(t *testing.T) {
	ctx := context.Background()
	users := &MockUsers{}

	user := verifiedUser(t, "password123")
	users.On("GetByID", ctx, user.ID.String()).Return(user, nil).Once()

	provider := eventsync.NewUserProvider(users).WithLogger(testLogger{})

	// session subjects resolve by ID, not email
	identity, err := provider.FindIdentityByIdentifier(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())

	users.AssertExpectations(t)
}
