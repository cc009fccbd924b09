package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type FinalizePasswordResetMessage struct {
	Token    string `json:"token" doc:"Password reset token"`
	Password string `json:"password" doc:"New password"`
}

func (p FinalizePasswordResetMessage) Type() string { return "user.password_reset_finalize" }

type FinalizePasswordResetHandler struct {
	repo              RepositoryManager
	codec             *TokenCodec
	window            time.Duration
	minPasswordLength int
	logger            Logger
	activity          ActivitySink
}

// NewFinalizePasswordResetHandler creates a handler with sane defaults.
func NewFinalizePasswordResetHandler(repo RepositoryManager, codec *TokenCodec) *FinalizePasswordResetHandler {
	return &FinalizePasswordResetHandler{
		repo:              repo,
		codec:             codec,
		window:            DefaultResetWindow,
		minPasswordLength: 8,
		logger:            defLogger{},
		activity:          noopActivitySink{},
	}
}

// WithWindow overrides how long after issuance a reset token is honored.
func (h *FinalizePasswordResetHandler) WithWindow(d time.Duration) *FinalizePasswordResetHandler {
	if d > 0 {
		h.window = d
	}
	return h
}

// WithActivitySink routes password reset audit events to the given sink.
func (h *FinalizePasswordResetHandler) WithActivitySink(s ActivitySink) *FinalizePasswordResetHandler {
	if s != nil {
		h.activity = s
	}
	return h
}

// WithMinPasswordLength overrides the minimum accepted password length.
func (h *FinalizePasswordResetHandler) WithMinPasswordLength(n int) *FinalizePasswordResetHandler {
	if n > 0 {
		h.minPasswordLength = n
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *FinalizePasswordResetHandler) WithLogger(logger Logger) *FinalizePasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *FinalizePasswordResetHandler) Execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset finalization",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *FinalizePasswordResetHandler) execute(ctx context.Context, event FinalizePasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email, issuedAt, err := h.codec.Validate(event.Token, PurposePasswordReset, h.window)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "invalid password reset token")
	}

	if len(event.Password) < h.minPasswordLength {
		return ErrPasswordTooShort.Clone().
			WithMetadata(map[string]any{"min_length": h.minPasswordLength})
	}

	var userID string

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				// signed token for an account that no longer exists
				return ErrTokenInvalid
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve user for password reset")
		}

		// a reset token minted before the last password change is spent;
		// rejecting it closes the reuse window that pure expiry leaves open
		if user.PasswordChangedAt != nil && issuedAt.Before(*user.PasswordChangedAt) {
			return ErrTokenInvalid
		}

		passwordHash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
		}

		if err := h.repo.Users().SetPasswordTx(ctx, tx, user.ID, passwordHash); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user password in database")
		}

		userID = user.ID.String()

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to finalize password reset")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventPasswordReset,
		UserID:    userID,
	})

	return nil
}
