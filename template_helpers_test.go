package eventsync_test

import (
	"testing"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teacherSession() *eventsync.SessionObject {
	schoolID := uuid.New()
	return &eventsync.SessionObject{
		UserID:   uuid.New().String(),
		Role:     eventsync.RoleTeacher,
		SchoolID: &schoolID,
	}
}

func TestTemplateHelpersRegistry(t *testing.T) {
	helpers := eventsync.TemplateHelpers()

	for _, name := range []string{
		"is_authenticated",
		"has_role",
		"is_at_least",
		"can_read",
		"can_create",
		"can_edit",
		"can_delete",
		"roles",
	} {
		assert.Contains(t, helpers, name)
	}
}

func TestTemplateIsAuthenticated(t *testing.T) {
	helpers := eventsync.TemplateHelpers()
	isAuthenticated, ok := helpers["is_authenticated"].(func(any) bool)
	require.True(t, ok)

	assert.True(t, isAuthenticated(teacherSession()))
	assert.False(t, isAuthenticated(nil))
	assert.False(t, isAuthenticated("garbage"))
}

func TestTemplateRoleHelpers(t *testing.T) {
	helpers := eventsync.TemplateHelpers()
	hasRole := helpers["has_role"].(func(any, string) bool)
	isAtLeast := helpers["is_at_least"].(func(any, string) bool)

	session := teacherSession()

	assert.True(t, hasRole(session, eventsync.RoleTeacher))
	assert.False(t, hasRole(session, eventsync.RoleAdmin))

	assert.True(t, isAtLeast(session, eventsync.RoleStudent))
	assert.True(t, isAtLeast(session, eventsync.RoleTeacher))
	assert.False(t, isAtLeast(session, eventsync.RoleAdmin))
}

func TestTemplatePermissionHelpers(t *testing.T) {
	helpers := eventsync.TemplateHelpers()
	canCreate := helpers["can_create"].(func(any, string) bool)
	canRead := helpers["can_read"].(func(any, string) bool)

	teacher := teacherSession()
	assert.True(t, canCreate(teacher, "event"))
	assert.False(t, canCreate(teacher, "school"))
	assert.True(t, canRead(teacher, "roster"))

	studentSchool := uuid.New()
	student := &eventsync.SessionObject{
		UserID:   uuid.New().String(),
		Role:     eventsync.RoleStudent,
		SchoolID: &studentSchool,
	}
	assert.False(t, canCreate(student, "event"))
	assert.True(t, canRead(student, "event"))

	admin := &eventsync.SessionObject{
		UserID: uuid.New().String(),
		Role:   eventsync.RoleAdmin,
	}
	assert.True(t, canCreate(admin, "school"))
	assert.True(t, canCreate(admin, "event"))
}
