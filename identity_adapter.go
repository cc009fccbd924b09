package eventsync

import (
	"github.com/google/uuid"
)

var _ Identity = identityAdapter{}

// identityAdapter projects a persisted User onto the Identity interface
type identityAdapter struct {
	user *User
}

// NewIdentityFromUser wraps a user record as an Identity
func NewIdentityFromUser(user *User) Identity {
	return identityAdapter{user: user}
}

func (a identityAdapter) ID() string {
	if a.user == nil {
		return ""
	}
	return a.user.ID.String()
}

func (a identityAdapter) Email() string {
	if a.user == nil {
		return ""
	}
	return a.user.Email
}

func (a identityAdapter) Name() string {
	if a.user == nil {
		return ""
	}
	return a.user.Name
}

func (a identityAdapter) Role() string {
	if a.user == nil {
		return ""
	}
	return a.user.Role
}

func (a identityAdapter) SchoolID() *uuid.UUID {
	if a.user == nil {
		return nil
	}
	return a.user.SchoolID
}
