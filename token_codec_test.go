package eventsync_test

import (
	"testing"
	"time"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{})

	token, err := codec.Issue("user@example.com", eventsync.PurposeEmailVerification)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	payload, issuedAt, err := codec.Validate(token, eventsync.PurposeEmailVerification, eventsync.DefaultVerificationWindow)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", payload)
	assert.WithinDuration(t, time.Now(), issuedAt, 5*time.Second)
}

func TestTokenCodecRejectsEmptyPayload(t *testing.T) {
	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{})

	_, err := codec.Issue("", eventsync.PurposePasswordReset)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrNoEmptyString))
}

func TestTokenCodecPurposeMismatch(t *testing.T) {
	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{})

	token, err := codec.Issue("user@example.com", eventsync.PurposeEmailVerification)
	require.NoError(t, err)

	// a verification token must never pass as a reset token
	_, _, err = codec.Validate(token, eventsync.PurposePasswordReset, eventsync.DefaultResetWindow)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenInvalid))
}

func TestTokenCodecTamperedSignature(t *testing.T) {
	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{})
	other := eventsync.NewTokenCodec([]byte("different-secret"), "eventsync-test", testLogger{})

	token, err := codec.Issue("user@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	_, _, err = other.Validate(token, eventsync.PurposePasswordReset, eventsync.DefaultResetWindow)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, eventsync.TextCodeTokenInvalid, richErr.TextCode)
}

func TestTokenCodecExpiry(t *testing.T) {
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{}).
		WithClock(func() time.Time { return issuedAt })

	token, err := codec.Issue("user@example.com", eventsync.PurposePasswordReset)
	require.NoError(t, err)

	// still valid one minute before the window closes
	codec.WithClock(func() time.Time { return issuedAt.Add(eventsync.DefaultResetWindow - time.Minute) })
	_, _, err = codec.Validate(token, eventsync.PurposePasswordReset, eventsync.DefaultResetWindow)
	require.NoError(t, err)

	// expired one minute after
	codec.WithClock(func() time.Time { return issuedAt.Add(eventsync.DefaultResetWindow + time.Minute) })
	_, _, err = codec.Validate(token, eventsync.PurposePasswordReset, eventsync.DefaultResetWindow)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenExpired))
}

func TestTokenCodecGarbageInput(t *testing.T) {
	codec := eventsync.NewTokenCodec([]byte("secret"), "eventsync-test", testLogger{})

	_, _, err := codec.Validate("not-a-token", eventsync.PurposeEmailVerification, eventsync.DefaultVerificationWindow)
	require.Error(t, err)
}
