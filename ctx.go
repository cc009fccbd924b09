package eventsync

import (
	"context"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var actorCtxKey = &contextKey{"actor"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithActorContext sets the Actor in the given context
func WithActorContext(r context.Context, actor Actor) context.Context {
	return context.WithValue(r, actorCtxKey, actor)
}

// ActorFromContext extracts the Actor from the standard context
func ActorFromContext(ctx context.Context) (Actor, bool) {
	raw, ok := ctx.Value(actorCtxKey).(Actor)
	return raw, ok
}

// SessionFromRouter extracts the decoded session from the router context.
// The session is stored in Locals by the route authenticator middleware.
func SessionFromRouter(ctx router.Context, key string) (Session, bool) {
	if key == "" {
		key = "session"
	}
	raw := ctx.Locals(key)
	if raw == nil {
		return nil, false
	}
	session, ok := raw.(Session)
	return session, ok
}

// Can is a convenience function to check permissions directly from the standard context
func Can(ctx context.Context, action Action, resource Resource) bool {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return false
	}
	return CanAccess(actor, action, resource) == nil
}
