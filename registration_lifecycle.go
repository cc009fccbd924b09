package eventsync

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const (
	textCodeInvalidTransition = "INVALID_REGISTRATION_TRANSITION"
	textCodeTerminalStatus    = "TERMINAL_REGISTRATION_STATUS"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid registration status transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalStatus is returned when attempting to move away from a terminal
// status like cancelled or attended.
var ErrTerminalStatus = goerrors.New("registration status is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalStatus).
	WithCode(goerrors.CodeConflict)

// TransitionContext is passed into hooks for additional processing.
type TransitionContext struct {
	Actor        Actor
	Registration *EventRegistration
	Event        *Event
	From         RegistrationStatus
	To           RegistrationStatus
}

// TransitionHook is executed before or after a transition is persisted.
type TransitionHook func(ctx context.Context, tc TransitionContext) error

// registrationTransitions is the allowed status graph. Missing keys are
// terminal statuses.
var registrationTransitions = map[RegistrationStatus][]RegistrationStatus{
	RegistrationPending:   {RegistrationConfirmed, RegistrationCancelled},
	RegistrationConfirmed: {RegistrationCancelled, RegistrationAttended},
}

// ParseRegistrationStatus maps form input to a known registration status.
func ParseRegistrationStatus(value string) (RegistrationStatus, error) {
	switch value {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled, RegistrationAttended:
		return value, nil
	}
	return "", goerrors.New("unknown registration status", goerrors.CategoryBadInput).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"status": value})
}

// CanTransitionRegistration reports whether the status graph allows the move.
func CanTransitionRegistration(from, to RegistrationStatus) bool {
	for _, allowed := range registrationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// RegistrationLifecycle centralizes the registration status graph, the
// authorization rules for moving through it, and persistence.
type RegistrationLifecycle struct {
	repo     RepositoryManager
	logger   Logger
	activity ActivitySink
	before   []TransitionHook
	after    []TransitionHook
	now      func() time.Time
}

// NewRegistrationLifecycle creates a lifecycle manager with sane defaults.
func NewRegistrationLifecycle(repo RepositoryManager) *RegistrationLifecycle {
	return &RegistrationLifecycle{
		repo:     repo,
		logger:   defLogger{},
		activity: noopActivitySink{},
		now:      time.Now,
	}
}

// WithLogger overrides the logger used by the lifecycle.
func (l *RegistrationLifecycle) WithLogger(logger Logger) *RegistrationLifecycle {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithActivitySink routes status change audit events to the given sink.
func (l *RegistrationLifecycle) WithActivitySink(s ActivitySink) *RegistrationLifecycle {
	if s != nil {
		l.activity = s
	}
	return l
}

// WithBeforeHook appends a hook that runs before the transition is persisted.
// A hook error aborts the transition.
func (l *RegistrationLifecycle) WithBeforeHook(h TransitionHook) *RegistrationLifecycle {
	if h != nil {
		l.before = append(l.before, h)
	}
	return l
}

// WithAfterHook appends a hook that runs after the transition committed.
// After hook errors are logged, not returned.
func (l *RegistrationLifecycle) WithAfterHook(h TransitionHook) *RegistrationLifecycle {
	if h != nil {
		l.after = append(l.after, h)
	}
	return l
}

// Transition moves a registration to the target status.
//
// Admins and the event creator may perform any allowed move; the registered
// user may only cancel their own registration.
func (l *RegistrationLifecycle) Transition(ctx context.Context, actor Actor, registrationID string, to RegistrationStatus) (*EventRegistration, error) {
	var result *EventRegistration
	var changed bool

	err := l.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		reg, err := l.repo.Registrations().GetByID(ctx, registrationID)
		if err != nil {
			if repository.IsRecordNotFound(err) {
				return goerrors.New("registration not found", goerrors.CategoryNotFound).
					WithCode(goerrors.CodeNotFound)
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve registration")
		}

		event, err := l.repo.Events().GetByID(ctx, reg.EventID.String())
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not retrieve event for registration")
		}

		if err := l.authorize(actor, reg, event, to); err != nil {
			return err
		}

		from := reg.Status
		if from == to {
			result = reg
			return nil
		}

		if !CanTransitionRegistration(from, to) {
			if len(registrationTransitions[from]) == 0 {
				return ErrTerminalStatus.Clone().
					WithMetadata(map[string]any{"status": from})
			}
			return ErrInvalidTransition.Clone().
				WithMetadata(map[string]any{"from": from, "to": to})
		}

		tc := TransitionContext{
			Actor:        actor,
			Registration: reg,
			Event:        event,
			From:         from,
			To:           to,
		}

		for _, hook := range l.before {
			if err := hook(ctx, tc); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "registration transition rejected by hook")
			}
		}

		reg.Status = to
		updated, err := l.repo.Registrations().UpdateTx(ctx, tx, reg, repository.UpdateByID(reg.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not update registration status")
		}
		result = updated
		changed = true

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "registration transition failed")
	}

	if changed {
		l.finish(ctx, actor, result)
	}

	return result, nil
}

func (l *RegistrationLifecycle) authorize(actor Actor, reg *EventRegistration, event *Event, to RegistrationStatus) error {
	if actor.Role == RoleAdmin {
		return nil
	}

	// the event creator manages attendance for their own event
	if err := CanAccess(actor, ActionUpdate, event); err == nil {
		return nil
	}

	// the registered user may back out, nothing more
	if actor.ID == reg.UserID && to == RegistrationCancelled {
		return nil
	}

	return ErrForbidden.Clone().
		WithMetadata(map[string]any{"resource": "registration"})
}

func (l *RegistrationLifecycle) finish(ctx context.Context, actor Actor, reg *EventRegistration) {
	if reg == nil {
		return
	}

	recordActivity(ctx, l.activity, l.logger, ActivityEvent{
		EventType:  ActivityEventRegistrationMoved,
		UserID:     actor.ID.String(),
		ObjectID:   reg.ID.String(),
		Metadata:   map[string]any{"status": reg.Status},
		OccurredAt: l.now(),
	})

	tc := TransitionContext{
		Actor:        actor,
		Registration: reg,
		To:           reg.Status,
	}
	for _, hook := range l.after {
		if err := hook(ctx, tc); err != nil {
			l.logger.Warn("registration after hook failed", "registration_id", reg.ID.String(), "error", err)
		}
	}
}
