package eventsync_test

import (
	"context"
	"strings"
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

func TestInitializePasswordResetSuccess(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	mailer := newChanMailer()

	user := &eventsync.User{ID: uuid.New(), Email: "forgot@example.com"}

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, user.Email).
		Return(user, nil).Once()

	var resp *eventsync.InitializePasswordResetResponse

	handler := eventsync.NewInitializePasswordResetHandler(repo, newTestCodec(), mailer).
		WithLogger(testLogger{})
	err := handler.Execute(context.Background(), eventsync.InitializePasswordResetMessage{
		Email:      user.Email,
		OnResponse: func(r *eventsync.InitializePasswordResetResponse) { resp = r },
	})
	require.NoError(t, err)

	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, eventsync.ResetRequestedMessage, resp.Message)

	select {
	case msg := <-mailer.sent:
		assert.Equal(t, "Reset Your Password", msg[0])
		assert.Equal(t, user.Email, msg[1])
		assert.True(t, strings.Contains(msg[2], "/password-reset/"))
	case <-time.After(2 * time.Second):
		t.Fatal("expected a reset email to be dispatched")
	}
}

func TestInitializePasswordResetUnknownEmail(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	mailer := newChanMailer()

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, "nobody@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	var resp *eventsync.InitializePasswordResetResponse

	handler := eventsync.NewInitializePasswordResetHandler(repo, newTestCodec(), mailer)
	err := handler.Execute(context.Background(), eventsync.InitializePasswordResetMessage{
		Email:      "nobody@example.com",
		OnResponse: func(r *eventsync.InitializePasswordResetResponse) { resp = r },
	})

	// an unknown email reports the exact same outcome as a known one
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Success)
	assert.Equal(t, eventsync.ResetRequestedMessage, resp.Message)

	select {
	case <-mailer.sent:
		t.Fatal("no email should be dispatched for an unknown address")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFinalizePasswordResetSuccess(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	codec := newTestCodec()

	user := &eventsync.User{ID: uuid.New(), Email: "forgot@example.com"}

	token, err := codec.Issue(user.Email, eventsync.PurposePasswordReset)
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, user.Email).
		Return(user, nil).Once()
	users.On("SetPasswordTx", mock.Anything, mock.Anything, user.ID, mock.Anything).
		Return(nil).Once()

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec).
		WithLogger(testLogger{})
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
	})
	require.NoError(t, err)

	users.AssertExpectations(t)
}

func TestFinalizePasswordResetShortPassword(t *testing.T) {
	repo := &MockRepositoryManager{}
	codec := newTestCodec()

	token, err := codec.Issue("forgot@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec)
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "short",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, eventsync.TextCodePasswordTooShort, richErr.TextCode)
}

func TestFinalizePasswordResetExpiredToken(t *testing.T) {
	repo := &MockRepositoryManager{}

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := eventsync.NewTokenCodec([]byte("test-signing-key"), "eventsync-test", testLogger{}).
		WithClock(func() time.Time { return issued })

	token, err := codec.Issue("forgot@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	codec.WithClock(func() time.Time {
		return issued.Add(eventsync.DefaultResetWindow + time.Minute)
	})

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec)
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
	})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenExpired))
}

func TestFinalizePasswordResetHonorsConfiguredWindow(t *testing.T) {
	repo := &MockRepositoryManager{}

	// token aged 45 minutes: inside the 1h default, outside a 30m override
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec := eventsync.NewTokenCodec([]byte("test-signing-key"), "eventsync-test", testLogger{}).
		WithClock(func() time.Time { return issued })

	token, err := codec.Issue("forgot@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	codec.WithClock(func() time.Time {
		return issued.Add(45 * time.Minute)
	})

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec).
		WithWindow(30 * time.Minute)
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
	})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenExpired))
}

func TestFinalizePasswordResetTokenSpentByPasswordChange(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	codec := newTestCodec()

	token, err := codec.Issue("forgot@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	// the password changed after the token was minted
	changedAt := time.Now().Add(time.Minute)
	user := &eventsync.User{
		ID:                uuid.New(),
		Email:             "forgot@example.com",
		PasswordChangedAt: &changedAt,
	}

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, user.Email).
		Return(user, nil).Once()

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec)
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
	})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenInvalid))

	users.AssertExpectations(t)
}

func TestFinalizePasswordResetAccountGone(t *testing.T) {
	repo := &MockRepositoryManager{}
	users := &MockUsers{}
	codec := newTestCodec()

	token, err := codec.Issue("gone@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	repo.On("Users").Return(users)
	users.On("GetByEmailTx", mock.Anything, mock.Anything, "gone@example.com").
		Return(nil, repository.NewRecordNotFound()).Once()

	handler := eventsync.NewFinalizePasswordResetHandler(repo, codec)
	err = handler.Execute(context.Background(), eventsync.FinalizePasswordResetMessage{
		Token:    token,
		Password: "brand-new-password",
	})
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenInvalid))
}
