package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type DeleteEventMessage struct {
	Actor   Actor     `json:"-"`
	EventID uuid.UUID `json:"event_id"`
}

func (e DeleteEventMessage) Type() string { return "event.delete" }

type DeleteEventHandler struct {
	repo RepositoryManager
}

// NewDeleteEventHandler creates a handler with sane defaults.
func NewDeleteEventHandler(repo RepositoryManager) *DeleteEventHandler {
	return &DeleteEventHandler{repo: repo}
}

func (h *DeleteEventHandler) Execute(ctx context.Context, event DeleteEventMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during event deletion")
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteEventHandler) execute(ctx context.Context, msg DeleteEventMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing, err := h.repo.Events().GetByID(ctx, msg.EventID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("event not found", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve event")
		}

		if err := CanAccess(msg.Actor, ActionDelete, existing); err != nil {
			return err
		}

		if err := h.repo.Events().DeleteByIDTx(ctx, tx, existing.ID); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not delete event")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "event deletion transaction failed")
	}

	return nil
}
