package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type VerifyEmailMessage struct {
	Token      string `json:"token" doc:"Email verification token"`
	OnResponse func(a *VerifyEmailResponse)
}

func (e VerifyEmailMessage) Type() string { return "user.verify_email" }

type VerifyEmailResponse struct {
	Email           string `json:"email"`
	Verified        bool   `json:"verified"`
	AlreadyVerified bool   `json:"already_verified"`
}

type VerifyEmailHandler struct {
	repo   RepositoryManager
	codec  *TokenCodec
	window time.Duration
	logger Logger
}

// NewVerifyEmailHandler creates a handler with sane defaults.
func NewVerifyEmailHandler(repo RepositoryManager, codec *TokenCodec) *VerifyEmailHandler {
	return &VerifyEmailHandler{
		repo:   repo,
		codec:  codec,
		window: DefaultVerificationWindow,
		logger: defLogger{},
	}
}

// WithWindow overrides how long after issuance a verification token is honored.
func (h *VerifyEmailHandler) WithWindow(d time.Duration) *VerifyEmailHandler {
	if d > 0 {
		h.window = d
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *VerifyEmailHandler) WithLogger(logger Logger) *VerifyEmailHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *VerifyEmailHandler) Execute(ctx context.Context, event VerifyEmailMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during email verification")
	default:
		return h.execute(ctx, event)
	}
}

func (h *VerifyEmailHandler) execute(ctx context.Context, event VerifyEmailMessage) error {
	resp := &VerifyEmailResponse{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	email, _, err := h.codec.Validate(event.Token, PurposeEmailVerification, h.window)
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryAuth, "invalid verification token")
	}

	resp.Email = email

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		user, err := h.repo.Users().GetByEmailTx(ctx, tx, email)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return ErrIdentityNotFound.Clone().
					WithMetadata(map[string]any{"email": email})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for verification")
		}

		// re-verifying an already verified account is informational, not an error
		if user.IsVerified {
			resp.AlreadyVerified = true
			resp.Verified = true
			return nil
		}

		if err := h.repo.Users().MarkVerifiedTx(ctx, tx, user.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to mark user as verified")
		}

		resp.Verified = true
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to verify email")
	}

	if event.OnResponse != nil {
		event.OnResponse(resp)
	}

	return nil
}
