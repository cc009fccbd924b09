package eventsync

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims is the JWT payload bound into the session cookie
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string     `json:"uid"`
	UserRole UserRole   `json:"user_role"`
	SchoolID *uuid.UUID `json:"school_id,omitempty"`
}

// UserID returns the identity id carried by the claims
func (c *SessionClaims) UserID() string {
	return c.UID
}

// Role returns the role carried by the claims
func (c *SessionClaims) Role() UserRole {
	return c.UserRole
}

// IssuedAtTime returns the claim issue time, zero when absent
func (c *SessionClaims) IssuedAtTime() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}

// ExpiresTime returns the claim expiry, zero when absent
func (c *SessionClaims) ExpiresTime() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}
