package eventsync

import "github.com/google/uuid"

// TemplateUserKey is the template variable holding the authenticated session.
var TemplateUserKey = "current_user"

// TemplateHelpers returns the helper functions views use for authentication
// and authorization aware rendering. Register them on the template engine at
// startup.
//
// In templates:
//
//	{% if is_authenticated(session) %}
//	{% if has_role(session, "admin") %}
//	{% if can_create(session, "event") %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": isAuthenticated,
		"has_role":         hasRole,
		"is_at_least":      isAtLeast,
		"can_read":         canRead,
		"can_create":       canCreate,
		"can_edit":         canEdit,
		"can_delete":       canDelete,

		// role constants for easy template access
		"roles": map[string]string{
			"student": RoleStudent,
			"teacher": RoleTeacher,
			"admin":   RoleAdmin,
		},
	}
}

// roleRank orders roles for is_at_least checks
func roleRank(role UserRole) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleTeacher:
		return 2
	case RoleStudent:
		return 1
	default:
		return 0
	}
}

// templateActor coerces the values templates actually see into an Actor
func templateActor(v any) (Actor, bool) {
	switch val := v.(type) {
	case Actor:
		return val, val.ID != uuid.Nil
	case Session:
		actor, err := ActorFromSession(val)
		if err != nil {
			return Actor{}, false
		}
		return actor, true
	case *User:
		if val == nil {
			return Actor{}, false
		}
		return ActorFromUser(val), true
	default:
		return Actor{}, false
	}
}

func isAuthenticated(v any) bool {
	_, ok := templateActor(v)
	return ok
}

func hasRole(v any, role string) bool {
	actor, ok := templateActor(v)
	if !ok {
		return false
	}
	return actor.Role == role
}

func isAtLeast(v any, role string) bool {
	actor, ok := templateActor(v)
	if !ok {
		return false
	}
	return roleRank(actor.Role) >= roleRank(role)
}

// templateResource builds a representative resource for a coarse menu-level
// check. Teacher-scoped resources are stamped with the actor's own school so
// "may I create events at all" resolves the way the guard would for their
// school.
func templateResource(actor Actor, name string) Resource {
	switch name {
	case "event", "events":
		evt := &Event{CreatedBy: actor.ID}
		if actor.SchoolID != nil {
			evt.SchoolID = *actor.SchoolID
		}
		return evt
	case "school", "schools":
		sch := &School{}
		if actor.SchoolID != nil {
			sch.ID = *actor.SchoolID
		}
		return sch
	case "roster":
		roster := Roster{}
		if actor.SchoolID != nil {
			roster.SchoolID = *actor.SchoolID
		}
		return roster
	default:
		return nil
	}
}

func canDo(v any, action Action, resource string) bool {
	actor, ok := templateActor(v)
	if !ok {
		return false
	}
	target := templateResource(actor, resource)
	if target == nil {
		return false
	}
	return CanAccess(actor, action, target) == nil
}

func canRead(v any, resource string) bool   { return canDo(v, ActionRead, resource) }
func canCreate(v any, resource string) bool { return canDo(v, ActionCreate, resource) }
func canEdit(v any, resource string) bool   { return canDo(v, ActionUpdate, resource) }
func canDelete(v any, resource string) bool { return canDo(v, ActionDelete, resource) }
