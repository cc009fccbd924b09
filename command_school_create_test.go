package eventsync_test

import (
	"context"
	"testing"

	eventsync "github.com/IRJ12/Event-Sync-Co"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func adminActor() eventsync.Actor {
	return eventsync.Actor{
		ID:   uuid.New(),
		Role: eventsync.RoleAdmin,
	}
}

func TestCreateSchoolSuccess(t *testing.T) {
	repo := &MockRepositoryManager{}
	schools := &MockSchools{}

	created := &eventsync.School{
		ID:   uuid.New(),
		Name: "Northside High",
	}

	repo.On("Schools").Return(schools)
	schools.On("GetByNameTx", mock.Anything, mock.Anything, "Northside High").
		Return(nil, repository.NewRecordNotFound()).Once()
	schools.On("CreateTx", mock.Anything, mock.Anything, mock.Anything).
		Return(created, nil).Once()

	var got *eventsync.School

	handler := eventsync.NewCreateSchoolHandler(repo)
	err := handler.Execute(context.Background(), eventsync.CreateSchoolMessage{
		Actor:      adminActor(),
		Name:       "Northside High",
		Location:   "Springfield",
		OnResponse: func(s *eventsync.School) { got = s },
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	schools.AssertExpectations(t)
}

func TestCreateSchoolTeacherDenied(t *testing.T) {
	repo := &MockRepositoryManager{}

	handler := eventsync.NewCreateSchoolHandler(repo)
	err := handler.Execute(context.Background(), eventsync.CreateSchoolMessage{
		Actor: teacherActor(),
		Name:  "Rogue Academy",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, eventsync.TextCodeForbidden, richErr.TextCode)
}

func TestCreateSchoolNameConflict(t *testing.T) {
	repo := &MockRepositoryManager{}
	schools := &MockSchools{}

	existing := &eventsync.School{
		ID:   uuid.New(),
		Name: "Northside High",
	}

	repo.On("Schools").Return(schools)
	schools.On("GetByNameTx", mock.Anything, mock.Anything, "Northside High").
		Return(existing, nil).Once()

	handler := eventsync.NewCreateSchoolHandler(repo)
	err := handler.Execute(context.Background(), eventsync.CreateSchoolMessage{
		Actor: adminActor(),
		Name:  "Northside High",
	})
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryConflict, richErr.Category)

	schools.AssertExpectations(t)
}
