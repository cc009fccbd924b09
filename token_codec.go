package eventsync

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// TokenPurpose restricts which operation a token may be redeemed for
type TokenPurpose = string

const (
	// PurposeEmailVerification tags account verification tokens
	PurposeEmailVerification TokenPurpose = "email-verification"
	// PurposePasswordReset tags password reset tokens
	PurposePasswordReset TokenPurpose = "password-reset"
)

const (
	// DefaultVerificationWindow is how long a verification token stays valid
	DefaultVerificationWindow = 24 * time.Hour
	// DefaultResetWindow is how long a password reset token stays valid
	DefaultResetWindow = time.Hour
)

// PurposeClaims carries a single payload (an email address) plus the purpose
// discriminator. No expiry claim is baked in; the window is re-derived at
// validation time from the issue timestamp.
type PurposeClaims struct {
	jwt.RegisteredClaims
	Purpose TokenPurpose `json:"purpose"`
}

// TokenCodec mints and validates signed, time-limited, purpose-tagged tokens.
// Validity is entirely self-contained in the token plus the signing key; no
// server-side state is consulted.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenCodec creates a TokenCodec keyed by the process-wide secret
func NewTokenCodec(signingKey []byte, issuer string, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source, used by expiry tests
func (tc *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	if now != nil {
		tc.now = now
	}
	return tc
}

// Issue signs the payload with the given purpose and the current timestamp
func (tc *TokenCodec) Issue(payload string, purpose TokenPurpose) (string, error) {
	if payload == "" {
		return "", ErrNoEmptyString
	}

	claims := &PurposeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   tc.issuer,
			Subject:  payload,
			IssuedAt: jwt.NewNumericDate(tc.now()),
		},
		Purpose: purpose,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Validate re-derives the validity of the token from its signature and issue
// timestamp. A signature or purpose mismatch yields ErrTokenInvalid; a correct
// signature outside the window yields ErrTokenExpired. The payload is returned
// alongside the issue time so callers can enforce issuance cutoffs.
func (tc *TokenCodec) Validate(tokenString string, purpose TokenPurpose, maxAge time.Duration) (string, time.Time, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &PurposeClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		return "", time.Time{}, goerrors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithTextCode(ErrTokenInvalid.TextCode)
	}

	claims, ok := token.Claims.(*PurposeClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec validate could not decode claims")
		return "", time.Time{}, ErrTokenInvalid
	}

	// "email-verification" and "password-reset" tokens must never validate
	// against each other
	if claims.Purpose != purpose {
		return "", time.Time{}, ErrTokenInvalid
	}

	if claims.IssuedAt == nil || claims.Subject == "" {
		return "", time.Time{}, ErrTokenInvalid
	}

	issuedAt := claims.IssuedAt.Time
	if tc.now().Sub(issuedAt) > maxAge {
		return "", time.Time{}, ErrTokenExpired
	}

	return claims.Subject, issuedAt, nil
}
