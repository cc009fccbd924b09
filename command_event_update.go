package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type UpdateEventMessage struct {
	Actor                Actor      `json:"-"`
	EventID              uuid.UUID  `json:"event_id"`
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

func (e UpdateEventMessage) Type() string { return "event.update" }

type UpdateEventHandler struct {
	repo RepositoryManager
}

// NewUpdateEventHandler creates a handler with sane defaults.
func NewUpdateEventHandler(repo RepositoryManager) *UpdateEventHandler {
	return &UpdateEventHandler{repo: repo}
}

func (h *UpdateEventHandler) Execute(ctx context.Context, event UpdateEventMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during event update")
	default:
		return h.execute(ctx, event)
	}
}

func (h *UpdateEventHandler) execute(ctx context.Context, msg UpdateEventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var record *Event

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Events().GetByID(ctx, msg.EventID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("event not found", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve event")
		}

		// the guard sees the stored ownership, never the incoming payload
		if err := CanAccess(msg.Actor, ActionUpdate, existing); err != nil {
			return err
		}

		existing.Title = msg.Title
		existing.Description = msg.Description
		existing.Date = msg.Date
		existing.StartTime = msg.StartTime
		existing.EndTime = msg.EndTime
		existing.Location = msg.Location
		existing.Capacity = msg.Capacity
		existing.RegistrationRequired = msg.RegistrationRequired
		existing.RegistrationDeadline = msg.RegistrationDeadline
		existing.Price = msg.Price
		EventDefaults(existing)

		updated, err := h.repo.Events().UpdateTx(ctx, tx, existing, repository.UpdateByID(existing.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update event")
		}
		record = updated

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "event update transaction failed")
	}

	if msg.OnResponse != nil {
		msg.OnResponse(record)
	}

	return nil
}
