package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type RegisterForEventMessage struct {
	Actor   Actor     `json:"-"`
	EventID uuid.UUID `json:"event_id"`

	OnResponse func(reg *EventRegistration)
}

func (e RegisterForEventMessage) Type() string { return "event.register" }

type RegisterForEventHandler struct {
	repo     RepositoryManager
	now      func() time.Time
	logger   Logger
	activity ActivitySink
}

// NewRegisterForEventHandler creates a handler with sane defaults.
func NewRegisterForEventHandler(repo RepositoryManager) *RegisterForEventHandler {
	return &RegisterForEventHandler{
		repo:     repo,
		now:      time.Now,
		logger:   defLogger{},
		activity: noopActivitySink{},
	}
}

// WithActivitySink routes registration audit events to the given sink.
func (h *RegisterForEventHandler) WithActivitySink(s ActivitySink) *RegisterForEventHandler {
	if s != nil {
		h.activity = s
	}
	return h
}

// WithClock overrides the time source, used by deadline tests
func (h *RegisterForEventHandler) WithClock(now func() time.Time) *RegisterForEventHandler {
	if now != nil {
		h.now = now
	}
	return h
}

func (h *RegisterForEventHandler) Execute(ctx context.Context, event RegisterForEventMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during event registration")
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterForEventHandler) execute(ctx context.Context, msg RegisterForEventMessage) error {
	reg := &EventRegistration{}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		event, err := h.repo.Events().GetByID(ctx, msg.EventID.String())
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("event not found", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve event")
		}

		// registering requires at least read access to the event
		if err := CanAccess(msg.Actor, ActionRead, event); err != nil {
			return err
		}

		if !event.IsRegistrationOpen(h.now()) {
			return goerrors.New("registration for this event has closed", goerrors.CategoryValidation).
				WithCode(goerrors.CodeBadRequest)
		}

		if event.Capacity > 0 {
			confirmed, err := h.repo.Events().CountConfirmedRegistrationsTx(ctx, tx, event.ID)
			if err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to count registrations")
			}
			if confirmed >= event.Capacity {
				return goerrors.New("this event is fully booked", goerrors.CategoryConflict).
					WithCode(goerrors.CodeConflict)
			}
		}

		now := h.now()
		reg.ID = uuid.New()
		reg.UserID = msg.Actor.ID
		reg.EventID = event.ID
		reg.Status = RegistrationPending
		reg.RegisteredAt = &now

		if reg, err = h.repo.Registrations().CreateTx(ctx, tx, reg); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create registration")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "event registration transaction failed")
	}

	recordActivity(ctx, h.activity, h.logger, ActivityEvent{
		EventType: ActivityEventRegistrationCreated,
		UserID:    msg.Actor.ID.String(),
		ObjectID:  msg.EventID.String(),
	})

	if msg.OnResponse != nil {
		msg.OnResponse(reg)
	}

	return nil
}
