package eventsync

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes surfaced to clients alongside the error taxonomy
const (
	TextCodeEmailTaken           = "EMAIL_TAKEN"
	TextCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	TextCodeAccountNotVerified   = "ACCOUNT_NOT_VERIFIED"
	TextCodeTokenInvalid         = "TOKEN_INVALID"
	TextCodeTokenExpired         = "TOKEN_EXPIRED"
	TextCodeForbidden            = "FORBIDDEN"
	TextCodeWrongCurrentPassword = "WRONG_CURRENT_PASSWORD"
	TextCodePasswordTooShort     = "PASSWORD_TOO_SHORT"
)

// ErrEmailTaken is returned when a registration handle is already in use
var ErrEmailTaken = goerrors.New("email is already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is the deliberately generic login failure. It covers
// both unknown handles and wrong passwords so callers cannot enumerate
// registered emails.
var ErrInvalidCredentials = goerrors.New("invalid email or password", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountNotVerified blocks login until the email round trip completes.
// Only returned after the password matched, so it leaks nothing to guessers.
var ErrAccountNotVerified = goerrors.New("please verify your email before logging in", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountNotVerified).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenInvalid is returned when a token signature or purpose does not check out
var ErrTokenInvalid = goerrors.New("token is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenInvalid).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned when a structurally valid token is outside its window
var ErrTokenExpired = goerrors.New("token has expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrForbidden is the authorization guard denial
var ErrForbidden = goerrors.New("you do not have permission to perform this action", goerrors.CategoryAuthz).
	WithTextCode(TextCodeForbidden).
	WithCode(goerrors.CodeForbidden)

// ErrWrongCurrentPassword rejects a password change with a bad current password
var ErrWrongCurrentPassword = goerrors.New("current password is incorrect", goerrors.CategoryValidation).
	WithTextCode(TextCodeWrongCurrentPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrPasswordTooShort rejects passwords below the configured minimum length
var ErrPasswordTooShort = goerrors.New("password does not meet the minimum length", goerrors.CategoryValidation).
	WithTextCode(TextCodePasswordTooShort).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty values where a secret is required
var ErrNoEmptyString = goerrors.New("value must not be empty", goerrors.CategoryValidation).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the bcrypt comparison failure
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrTooManyLoginAttempts enforces the login cooldown window
var ErrTooManyLoginAttempts = goerrors.New("too many login attempts, try again later", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = goerrors.New("unable to find session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = goerrors.New("unable to decode session", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if goerrors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsAccountNotVerifiedError checks whether login failed because the email
// round trip never completed.
func IsAccountNotVerifiedError(err error) bool {
	if err == nil {
		return false
	}
	return goerrors.Is(err, ErrAccountNotVerified)
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsDuplicateKeyError detects unique constraint violations from the storage
// engine. The pre-insert existence check closes the common path; the
// constraint closes the race.
func IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "constraint failed")
}
