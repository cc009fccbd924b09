package eventsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/goliatone/go-router"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetRole() UserRole
	GetSchoolID() *uuid.UUID
	GetIssuedAt() *time.Time
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (string, error)
	SessionFromToken(token string) (Session, error)
	IdentityFromSession(ctx context.Context, session Session) (Identity, error)
}

type LoginPayload interface {
	GetIdentifier() string
	GetPassword() string
	GetExtendedSession() bool
}

// Middleware exposes the route protection hooks
type Middleware interface {
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// HTTPAuthenticator bridges the authenticator and the HTTP session cookie
type HTTPAuthenticator interface {
	Middleware
	Login(c router.Context, payload LoginPayload) error
	Logout(c router.Context)
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
	GetRedirectOrDefault(c router.Context) string
	MakeClientRouteAuthErrorHandler(optionalAuth bool) func(c router.Context, err error) error
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Email() string
	Name() string
	Role() string
	SchoolID() *uuid.UUID
}

// Config holds auth options
type Config interface {
	GetSigningKey() string
	GetContextKey() string
	GetIssuer() string
	GetTokenExpiration() int
	GetExtendedTokenDuration() int
	GetVerificationWindow() time.Duration
	GetResetWindow() time.Duration
	GetMinPasswordLength() int
	GetRejectedRouteKey() string
	GetRejectedRouteDefault() string
}

// IdentityProvider ensure we have a store to retrieve auth identity
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error)
	FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error)
}

// PasswordAuthenticator authenticates passwords
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// Mailer is the external messaging collaborator. Dispatch happens after the
// associated state change committed and is allowed to fail.
type Mailer interface {
	Send(subject, to, body string) error
}

type defLogger struct{}

var defLogOutput io.Writer = os.Stdout

func (d defLogger) Error(format string, args ...any) { defLog("ERR", format, args...) }

func (d defLogger) Warn(format string, args ...any) { defLog("WRN", format, args...) }

func (d defLogger) Info(format string, args ...any) { defLog("INF", format, args...) }

func (d defLogger) Debug(format string, args ...any) { defLog("DBG", format, args...) }

// defLog keeps printf behavior for messages that carry format verbs and
// renders trailing arguments as key=value pairs otherwise.
func defLog(level, format string, args ...any) {
	if len(args) == 0 || strings.Contains(format, "%") {
		fmt.Fprintf(defLogOutput, "["+level+"] EVENTS "+newline(format), args...)
		return
	}

	var b strings.Builder
	b.WriteString("[" + level + "] EVENTS " + strings.TrimRight(format, ": "))
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	if len(args)%2 != 0 {
		fmt.Fprintf(&b, " %v", args[len(args)-1])
	}
	fmt.Fprintln(defLogOutput, b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
