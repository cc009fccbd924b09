package eventsync_test

import (
	"testing"
	"time"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIdentity struct {
	id       string
	email    string
	name     string
	role     string
	schoolID *uuid.UUID
}

func (s stubIdentity) ID() string            { return s.id }
func (s stubIdentity) Email() string         { return s.email }
func (s stubIdentity) Name() string          { return s.name }
func (s stubIdentity) Role() string          { return s.role }
func (s stubIdentity) SchoolID() *uuid.UUID  { return s.schoolID }

func TestSessionServiceRoundTrip(t *testing.T) {
	svc := eventsync.NewSessionService([]byte("secret"), "eventsync-test", testLogger{})

	schoolID := uuid.New()
	identity := stubIdentity{
		id:       uuid.NewString(),
		email:    "teacher@example.com",
		name:     "Pat Example",
		role:     eventsync.RoleTeacher,
		schoolID: &schoolID,
	}

	token, err := svc.Generate(identity, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, identity.id, claims.UserID())
	assert.Equal(t, eventsync.RoleTeacher, claims.Role())
	require.NotNil(t, claims.SchoolID)
	assert.Equal(t, schoolID, *claims.SchoolID)
	assert.False(t, claims.IssuedAtTime().IsZero())
	assert.False(t, claims.ExpiresTime().IsZero())
}

func TestSessionServiceRejectsNilIdentity(t *testing.T) {
	svc := eventsync.NewSessionService([]byte("secret"), "eventsync-test", testLogger{})

	_, err := svc.Generate(nil, time.Hour)
	require.Error(t, err)
}

func TestSessionServiceExpiredToken(t *testing.T) {
	svc := eventsync.NewSessionService([]byte("secret"), "eventsync-test", testLogger{})

	token, err := svc.Generate(stubIdentity{id: uuid.NewString(), role: eventsync.RoleStudent}, -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, eventsync.ErrTokenExpired))
}

func TestSessionServiceWrongKey(t *testing.T) {
	svc := eventsync.NewSessionService([]byte("secret"), "eventsync-test", testLogger{})
	other := eventsync.NewSessionService([]byte("other-secret"), "eventsync-test", testLogger{})

	token, err := svc.Generate(stubIdentity{id: uuid.NewString(), role: eventsync.RoleStudent}, time.Hour)
	require.NoError(t, err)

	_, err = other.Validate(token)
	require.Error(t, err)
}

func TestSessionObjectAccessors(t *testing.T) {
	schoolID := uuid.New()
	userID := uuid.New()
	now := time.Now()

	session := &eventsync.SessionObject{
		UserID:   userID.String(),
		Role:     eventsync.RoleTeacher,
		SchoolID: &schoolID,
		Issuer:   "eventsync-test",
		IssuedAt: &now,
	}

	assert.Equal(t, userID.String(), session.GetUserID())

	parsed, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, parsed)

	assert.True(t, session.HasRole(eventsync.RoleTeacher))
	assert.False(t, session.HasRole(eventsync.RoleAdmin))
	assert.Contains(t, session.String(), userID.String())

	assert.True(t, eventsync.HasUserUUID(session))
	assert.False(t, eventsync.HasUserUUID(nil))
	assert.False(t, eventsync.HasUserUUID(&eventsync.SessionObject{UserID: "not-a-uuid"}))
}

func TestActorFromSession(t *testing.T) {
	schoolID := uuid.New()
	userID := uuid.New()

	session := &eventsync.SessionObject{
		UserID:   userID.String(),
		Role:     eventsync.RoleTeacher,
		SchoolID: &schoolID,
	}

	actor, err := eventsync.ActorFromSession(session)
	require.NoError(t, err)
	assert.Equal(t, userID, actor.ID)
	assert.Equal(t, eventsync.RoleTeacher, actor.Role)

	_, err = eventsync.ActorFromSession(nil)
	assert.Error(t, err)

	_, err = eventsync.ActorFromSession(&eventsync.SessionObject{UserID: "not-a-uuid"})
	assert.Error(t, err)
}
