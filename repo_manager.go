package eventsync

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	Schools() Schools
	Events() Events
	Registrations() repository.Repository[*EventRegistration]
	Contacts() repository.Repository[*Contact]
}

func NewRegistrationsRepository(db *bun.DB) repository.Repository[*EventRegistration] {
	handlers := repository.ModelHandlers[*EventRegistration]{
		NewRecord: func() *EventRegistration {
			return &EventRegistration{}
		},
		GetID: func(record *EventRegistration) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *EventRegistration, id uuid.UUID) {
			record.ID = id
		},
	}
	return repository.NewRepository(db, handlers)
}

func NewContactsRepository(db *bun.DB) repository.Repository[*Contact] {
	handlers := repository.ModelHandlers[*Contact]{
		NewRecord: func() *Contact {
			return &Contact{}
		},
		GetID: func(record *Contact) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *Contact, id uuid.UUID) {
			record.ID = id
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
	return repository.NewRepository(db, handlers)
}

type mngr struct {
	db            *bun.DB
	users         Users
	schools       Schools
	events        Events
	registrations repository.Repository[*EventRegistration]
	contacts      repository.Repository[*Contact]
}

func NewRepositoryManager(db *bun.DB) RepositoryManager {
	return &mngr{
		db:            db,
		users:         NewUsersRepository(db),
		schools:       NewSchoolsRepository(db),
		events:        NewEventsRepository(db),
		registrations: NewRegistrationsRepository(db),
		contacts:      NewContactsRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.schools == nil {
		return errors.New("repository schools should be initialized")
	}

	if m.events == nil {
		return errors.New("repository events should be initialized")
	}

	if m.registrations == nil {
		return errors.New("repository registrations should be initialized")
	}

	if m.contacts == nil {
		return errors.New("repository contacts should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) Schools() Schools {
	return m.schools
}

func (m mngr) Events() Events {
	return m.events
}

func (m mngr) Registrations() repository.Repository[*EventRegistration] {
	return m.registrations
}

func (m mngr) Contacts() repository.Repository[*Contact] {
	return m.contacts
}
