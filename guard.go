package eventsync

import (
	"github.com/google/uuid"
)

// Action is a permission verb checked by the guard
type Action = string

const (
	// ActionRead covers listing and viewing
	ActionRead Action = "read"
	// ActionCreate covers new resources
	ActionCreate Action = "create"
	// ActionUpdate covers mutations of existing resources
	ActionUpdate Action = "update"
	// ActionDelete covers removals
	ActionDelete Action = "delete"
)

// Resource is anything the guard can scope a decision against
type Resource interface {
	// ResourceKind names the resource type, e.g. "event" or "school"
	ResourceKind() string
	// OwnerSchoolID is the school the resource belongs to, uuid.Nil if none
	OwnerSchoolID() uuid.UUID
	// CreatorID is the identity that created the resource, uuid.Nil if not tracked
	CreatorID() uuid.UUID
}

// ResourceKind implements Resource for events
func (e *Event) ResourceKind() string { return "event" }

// OwnerSchoolID implements Resource for events
func (e *Event) OwnerSchoolID() uuid.UUID { return e.SchoolID }

// CreatorID implements Resource for events
func (e *Event) CreatorID() uuid.UUID { return e.CreatedBy }

// ResourceKind implements Resource for schools
func (s *School) ResourceKind() string { return "school" }

// OwnerSchoolID implements Resource for schools
func (s *School) OwnerSchoolID() uuid.UUID { return s.ID }

// CreatorID implements Resource for schools
func (s *School) CreatorID() uuid.UUID { return uuid.Nil }

// Roster is the guard-checkable view of a school's member list
type Roster struct {
	SchoolID uuid.UUID
}

// ResourceKind implements Resource for rosters
func (r Roster) ResourceKind() string { return "roster" }

// OwnerSchoolID implements Resource for rosters
func (r Roster) OwnerSchoolID() uuid.UUID { return r.SchoolID }

// CreatorID implements Resource for rosters
func (r Roster) CreatorID() uuid.UUID { return uuid.Nil }

// Actor is the identity-or-none value threaded through every guarded call.
// A zero Actor carries no permissions.
type Actor struct {
	ID       uuid.UUID
	Role     UserRole
	SchoolID *uuid.UUID
}

// ActorFromUser projects the persisted user into a guard actor
func ActorFromUser(u *User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{
		ID:       u.ID,
		Role:     u.Role,
		SchoolID: u.SchoolID,
	}
}

// ActorFromIdentity projects an authenticated identity into a guard actor
func ActorFromIdentity(identity Identity) Actor {
	if identity == nil {
		return Actor{}
	}
	id, err := uuid.Parse(identity.ID())
	if err != nil {
		return Actor{}
	}
	return Actor{
		ID:       id,
		Role:     identity.Role(),
		SchoolID: identity.SchoolID(),
	}
}

// ActorFromSession projects a decoded session into a guard actor
func ActorFromSession(session Session) (Actor, error) {
	if session == nil {
		return Actor{}, ErrUnableToFindSession
	}
	id, err := session.GetUserUUID()
	if err != nil {
		return Actor{}, ErrUnableToDecodeSession
	}
	return Actor{
		ID:       id,
		Role:     session.GetRole(),
		SchoolID: session.GetSchoolID(),
	}, nil
}

func (a Actor) affiliatedWith(schoolID uuid.UUID) bool {
	return a.SchoolID != nil && *a.SchoolID == schoolID
}

// CanAccess decides whether the actor may perform the action against the
// resource. It is stateless and side-effect free; consult it before every
// mutation, never after.
//
//   - admin: every action on every resource.
//   - teacher: event read/create scoped to their own school; event
//     update/delete additionally require being the creator; roster and school
//     read scoped to their own school.
//   - student: read-only access to events across all schools.
//
// Everything else is denied with ErrForbidden.
func CanAccess(actor Actor, action Action, resource Resource) error {
	if resource == nil {
		return forbidden(actor, action, "unknown")
	}

	if actor.Role == RoleAdmin {
		return nil
	}

	kind := resource.ResourceKind()

	switch actor.Role {
	case RoleTeacher:
		if canTeacherAccess(actor, action, kind, resource) {
			return nil
		}
	case RoleStudent:
		if kind == "event" && action == ActionRead {
			return nil
		}
	}

	return forbidden(actor, action, kind)
}

func canTeacherAccess(actor Actor, action Action, kind string, resource Resource) bool {
	if !actor.affiliatedWith(resource.OwnerSchoolID()) {
		return false
	}

	switch kind {
	case "event":
		switch action {
		case ActionRead, ActionCreate:
			return true
		case ActionUpdate, ActionDelete:
			return resource.CreatorID() == actor.ID
		}
	case "school", "roster":
		return action == ActionRead
	}

	return false
}

func forbidden(actor Actor, action Action, kind string) error {
	clone := ErrForbidden.Clone()
	if clone == nil {
		return ErrForbidden
	}
	return clone.WithMetadata(map[string]any{
		"actor_id": actor.ID.String(),
		"role":     actor.Role,
		"action":   action,
		"resource": kind,
	})
}
