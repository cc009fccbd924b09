package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type CreateSchoolMessage struct {
	Actor    Actor  `json:"-"`
	Name     string `json:"name"`
	Location string `json:"location"`
	About    string `json:"about"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Website  string `json:"website"`

	OnResponse func(school *School)
}

func (e CreateSchoolMessage) Type() string { return "school.create" }

type CreateSchoolHandler struct {
	repo RepositoryManager
}

// NewCreateSchoolHandler creates a handler with sane defaults.
func NewCreateSchoolHandler(repo RepositoryManager) *CreateSchoolHandler {
	return &CreateSchoolHandler{repo: repo}
}

func (h *CreateSchoolHandler) Execute(ctx context.Context, event CreateSchoolMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during school creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateSchoolHandler) execute(ctx context.Context, event CreateSchoolMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	school := &School{
		Name:     event.Name,
		Location: event.Location,
		About:    event.About,
		Email:    event.Email,
		Phone:    event.Phone,
		Address:  event.Address,
		Website:  event.Website,
	}

	if err := CanAccess(event.Actor, ActionCreate, school); err != nil {
		return err
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := h.repo.Schools().GetByNameTx(ctx, tx, event.Name); err == nil {
			return goerrors.New("a school with that name already exists", goerrors.CategoryConflict).
				WithCode(goerrors.CodeConflict)
		} else if !repository.IsRecordNotFound(err) {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check for existing school")
		}

		created, err := h.repo.Schools().CreateTx(ctx, tx, school)
		if err != nil {
			if IsDuplicateKeyError(err) {
				return goerrors.New("a school with that name already exists", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create school")
		}
		school = created

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "school creation transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(school)
	}

	return nil
}
