package eventsync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

var _ Session = &SessionObject{}

// SessionObject is the decoded shape of a session cookie
type SessionObject struct {
	UserID         string     `json:"user_id,omitempty"`
	Role           UserRole   `json:"role,omitempty"`
	SchoolID       *uuid.UUID `json:"school_id,omitempty"`
	Issuer         string     `json:"issuer,omitempty"`
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

func (s *SessionObject) GetRole() UserRole {
	return s.Role
}

func (s *SessionObject) GetSchoolID() *uuid.UUID {
	return s.SchoolID
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

// HasRole checks if the session carries a specific role
func (s *SessionObject) HasRole(role UserRole) bool {
	return s.Role == role
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s role=%s iss=%s iat=%s",
		s.UserID,
		s.Role,
		s.Issuer,
		issuedAt,
	)
}

// sessionFromClaims creates a SessionObject from validated session claims
func sessionFromClaims(claims *SessionClaims) (*SessionObject, error) {
	if claims == nil {
		return nil, ErrUnableToDecodeSession
	}

	session := &SessionObject{
		UserID:   claims.UserID(),
		Role:     claims.Role(),
		SchoolID: claims.SchoolID,
		Issuer:   claims.RegisteredClaims.Issuer,
	}

	if issuedAt := claims.IssuedAtTime(); !issuedAt.IsZero() {
		session.IssuedAt = &issuedAt
	}

	if expires := claims.ExpiresTime(); !expires.IsZero() {
		session.ExpirationDate = &expires
	}

	return session, nil
}
