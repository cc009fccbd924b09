package eventsync

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleStudent can browse events across every school
	RoleStudent UserRole = "student"
	// RoleTeacher manages events for their own school
	RoleTeacher UserRole = "teacher"
	// RoleAdmin oversees every school and user
	RoleAdmin UserRole = "admin"
)

// User is the user model. Email is the canonical login handle.
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Name              string     `bun:"name,notnull" json:"name,omitempty"`
	Role              UserRole   `bun:"user_role,notnull" json:"user_role,omitempty"`
	SchoolID          *uuid.UUID `bun:"school_id,nullzero,type:uuid" json:"school_id,omitempty"`
	School            *School    `bun:"rel:belongs-to,join:school_id=id" json:"school,omitempty"`
	PasswordHash      string     `bun:"password_hash" json:"password_hash,omitempty"`
	IsVerified        bool       `bun:"is_verified" json:"is_verified,omitempty"`
	VerificationToken string     `bun:"verification_token,nullzero" json:"verification_token,omitempty"`
	PasswordChangedAt *time.Time `bun:"password_changed_at,nullzero" json:"password_changed_at,omitempty"`
	LoginAttempts     int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt    *time.Time `bun:"login_attempt_at" json:"login_attempt_at,omitempty"`
	LoggedInAt        *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt         *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// School is the organization owning users, events, and contacts
type School struct {
	bun.BaseModel `bun:"table:schools,alias:sch"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Name          string     `bun:"name,notnull,unique" json:"name,omitempty"`
	Location      string     `bun:"location,notnull" json:"location,omitempty"`
	About         string     `bun:"about" json:"about,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone" json:"phone,omitempty"`
	Address       string     `bun:"address" json:"address,omitempty"`
	Website       string     `bun:"website" json:"website,omitempty"`
	Users         []*User    `bun:"rel:has-many,join:id=school_id" json:"users,omitempty"`
	Events        []*Event   `bun:"rel:has-many,join:id=school_id" json:"events,omitempty"`
	Contacts      []*Contact `bun:"rel:has-many,join:id=school_id" json:"contacts,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt     *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// SchoolDefaults fills derivable attributes that were left blank, like the
// about blurb. Call it explicitly at creation time.
func SchoolDefaults(s *School) *School {
	if s == nil {
		return nil
	}
	if s.About == "" {
		s.About = fmt.Sprintf(
			"%s is a prestigious educational institution located in %s.",
			s.Name,
			s.Location,
		)
	}
	return s
}

// Event belongs to exactly one school. CreatedBy is immutable after creation.
type Event struct {
	bun.BaseModel        `bun:"table:events,alias:evt"`
	ID                   uuid.UUID            `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Title                string               `bun:"title,notnull" json:"title,omitempty"`
	Description          string               `bun:"description" json:"description,omitempty"`
	Date                 time.Time            `bun:"date,notnull" json:"date,omitempty"`
	StartTime            string               `bun:"start_time,notnull" json:"start_time,omitempty"`
	EndTime              string               `bun:"end_time,notnull" json:"end_time,omitempty"`
	Location             string               `bun:"location" json:"location,omitempty"`
	Capacity             int                  `bun:"capacity" json:"capacity,omitempty"`
	RegistrationRequired bool                 `bun:"registration_required" json:"registration_required,omitempty"`
	RegistrationDeadline *time.Time           `bun:"registration_deadline,nullzero" json:"registration_deadline,omitempty"`
	Price                float64              `bun:"price" json:"price,omitempty"`
	SchoolID             uuid.UUID            `bun:"school_id,notnull,type:uuid" json:"school_id,omitempty"`
	School               *School              `bun:"rel:belongs-to,join:school_id=id" json:"school,omitempty"`
	CreatedBy            uuid.UUID            `bun:"created_by,notnull,type:uuid" json:"created_by,omitempty"`
	Registrations        []*EventRegistration `bun:"rel:has-many,join:id=event_id" json:"registrations,omitempty"`
	CreatedAt            *time.Time           `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time           `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt            *time.Time           `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

const (
	// DefaultEventStartTime applies when an event omits a start time
	DefaultEventStartTime = "09:00"
	// DefaultEventEndTime applies when an event omits an end time
	DefaultEventEndTime = "17:00"
)

// EventDefaults fills the conventional school-day times when absent.
func EventDefaults(e *Event) *Event {
	if e == nil {
		return nil
	}
	if e.StartTime == "" {
		e.StartTime = DefaultEventStartTime
	}
	if e.EndTime == "" {
		e.EndTime = DefaultEventEndTime
	}
	return e
}

// IsRegistrationOpen reports whether the event accepts registrations at the
// given instant.
func (e *Event) IsRegistrationOpen(now time.Time) bool {
	if !e.RegistrationRequired {
		return true
	}
	if e.RegistrationDeadline == nil {
		return true
	}
	return !now.After(*e.RegistrationDeadline)
}

// RegistrationStatus tracks the lifecycle of an event registration
type RegistrationStatus = string

const (
	// RegistrationPending is the initial status
	RegistrationPending RegistrationStatus = "pending"
	// RegistrationConfirmed counts against event capacity
	RegistrationConfirmed RegistrationStatus = "confirmed"
	// RegistrationCancelled frees the spot again
	RegistrationCancelled RegistrationStatus = "cancelled"
	// RegistrationAttended marks the user as having shown up
	RegistrationAttended RegistrationStatus = "attended"
)

// EventRegistration ties a user to an event
type EventRegistration struct {
	bun.BaseModel `bun:"table:event_registrations,alias:evr"`
	ID            uuid.UUID          `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID          `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	User          *User              `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	EventID       uuid.UUID          `bun:"event_id,notnull,type:uuid" json:"event_id,omitempty"`
	Event         *Event             `bun:"rel:belongs-to,join:event_id=id" json:"event,omitempty"`
	Status        RegistrationStatus `bun:"status,notnull" json:"status,omitempty"`
	RegisteredAt  *time.Time         `bun:"registered_at,nullzero,default:current_timestamp" json:"registered_at,omitempty"`
	CreatedAt     *time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time         `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Contact is a named point of contact for a school
type Contact struct {
	bun.BaseModel `bun:"table:contacts,alias:cnt"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	SchoolID      uuid.UUID  `bun:"school_id,notnull,type:uuid" json:"school_id,omitempty"`
	School        *School    `bun:"rel:belongs-to,join:school_id=id" json:"school,omitempty"`
	Name          string     `bun:"name,notnull" json:"name,omitempty"`
	Position      string     `bun:"position" json:"position,omitempty"`
	Email         string     `bun:"email" json:"email,omitempty"`
	Phone         string     `bun:"phone,notnull" json:"phone,omitempty"`
	IsPrimary     bool       `bun:"is_primary" json:"is_primary,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}
