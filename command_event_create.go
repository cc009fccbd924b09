package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type CreateEventMessage struct {
	Actor                Actor      `json:"-"`
	SchoolID             uuid.UUID  `json:"school_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description"`
	Date                 time.Time  `json:"date"`
	StartTime            string     `json:"start_time"`
	EndTime              string     `json:"end_time"`
	Location             string     `json:"location"`
	Capacity             int        `json:"capacity"`
	RegistrationRequired bool       `json:"registration_required"`
	RegistrationDeadline *time.Time `json:"registration_deadline"`
	Price                float64    `json:"price"`

	OnResponse func(event *Event)
}

func (e CreateEventMessage) Type() string { return "event.create" }

type CreateEventHandler struct {
	repo RepositoryManager
}

// NewCreateEventHandler creates a handler with sane defaults.
func NewCreateEventHandler(repo RepositoryManager) *CreateEventHandler {
	return &CreateEventHandler{repo: repo}
}

func (h *CreateEventHandler) Execute(ctx context.Context, event CreateEventMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during event creation")
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateEventHandler) execute(ctx context.Context, msg CreateEventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	record := &Event{
		Title:                msg.Title,
		Description:          msg.Description,
		Date:                 msg.Date,
		StartTime:            msg.StartTime,
		EndTime:              msg.EndTime,
		Location:             msg.Location,
		Capacity:             msg.Capacity,
		RegistrationRequired: msg.RegistrationRequired,
		RegistrationDeadline: msg.RegistrationDeadline,
		Price:                msg.Price,
		SchoolID:             msg.SchoolID,
		CreatedBy:            msg.Actor.ID,
	}

	if err := CanAccess(msg.Actor, ActionCreate, record); err != nil {
		return err
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := h.repo.Events().CreateTx(ctx, tx, record)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create event")
		}
		record = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "event creation transaction failed")
	}

	if msg.OnResponse != nil {
		msg.OnResponse(record)
	}

	return nil
}
