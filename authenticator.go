package eventsync

import (
	"context"
	"reflect"
	"time"
)

// Auther orchestrates login against the identity provider and session minting
type Auther struct {
	provider       IdentityProvider
	signingKey     []byte
	issuer         string
	tokenTTL       time.Duration
	logger         Logger
	sessionService SessionService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	sessionService := NewSessionService(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		defLogger{},
	)

	return &Auther{
		provider:       provider,
		signingKey:     []byte(opts.GetSigningKey()),
		issuer:         opts.GetIssuer(),
		tokenTTL:       time.Duration(opts.GetTokenExpiration()) * time.Hour,
		logger:         defLogger{},
		sessionService: sessionService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	s.sessionService = NewSessionService(s.signingKey, s.issuer, logger)
	return s
}

// SessionService returns the SessionService instance used by this Authenticator
func (s *Auther) SessionService() SessionService {
	return s.sessionService
}

// Login verifies the identity and returns a signed session token. Failures
// stay generic so callers cannot tell an unknown email from a bad password.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, identifier, password); err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	token, err := s.sessionService.Generate(identity, s.tokenTTL)
	if err != nil {
		s.logger.Error("Login failed to generate session token", "error", err)
		return "", err
	}

	return token, nil
}

// IdentityFromSession resolves the persisted identity behind a session.
// A session whose subject is not a well formed user ID never reaches the store.
func (s *Auther) IdentityFromSession(ctx context.Context, session Session) (Identity, error) {
	if !HasUserUUID(session) {
		s.logger.Error("IdentityFromSession session carries no usable subject")
		return nil, ErrUnableToDecodeSession
	}

	identity, err := s.provider.FindIdentityByIdentifier(ctx, session.GetUserID())

	if err != nil {
		s.logger.Error("IdentityFromSession find identity by identifier: %s", err)
		return nil, err
	}

	return identity, nil
}

// SessionFromToken validates the raw cookie token into a session
func (s Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.sessionService.Validate(raw)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}
