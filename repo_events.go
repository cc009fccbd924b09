package eventsync

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var DeleteEventSQL = `UPDATE "events" AS "evt"
SET
	"deleted_at" = ?
WHERE
	"evt"."deleted_at" IS NULL
AND (
	"evt"."id" = ?
) RETURNING *;`

type Events interface {
	repository.Repository[*Event]

	Create(ctx context.Context, record *Event, criteria ...repository.InsertCriteria) (*Event, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *Event, criteria ...repository.InsertCriteria) (*Event, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*Event, error)
	ListUpcoming(ctx context.Context, from time.Time) ([]*Event, error)
	CountConfirmedRegistrations(ctx context.Context, eventID uuid.UUID) (int, error)
	CountConfirmedRegistrationsTx(ctx context.Context, tx bun.IDB, eventID uuid.UUID) (int, error)
}

type events struct {
	repository.Repository[*Event]
	db *bun.DB
}

var _ Events = (*events)(nil)

func NewEventsRepository(db *bun.DB) Events {
	repo := repository.NewRepository[*Event](db, repository.ModelHandlers[*Event]{
		NewRecord: func() *Event { return &Event{} },
		GetID: func(e *Event) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return e.ID
		},
		SetID: func(e *Event, id uuid.UUID) {
			if e != nil {
				e.ID = id
			}
		},
	})

	return &events{
		Repository: repo,
		db:         db,
	}
}

func (a *events) Create(ctx context.Context, record *Event, criteria ...repository.InsertCriteria) (*Event, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *events) CreateTx(ctx context.Context, tx bun.IDB, record *Event, criteria ...repository.InsertCriteria) (*Event, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	EventDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *events) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *events) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := a.Repository.RawTx(ctx, tx, DeleteEventSQL, time.Now(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *events) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*Event, error) {
	var records []*Event
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.school_id = ?", schoolID).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *events) ListUpcoming(ctx context.Context, from time.Time) ([]*Event, error) {
	var records []*Event
	err := a.db.NewSelect().
		Model(&records).
		Where("?TableAlias.date >= ?", from).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *events) CountConfirmedRegistrations(ctx context.Context, eventID uuid.UUID) (int, error) {
	return a.CountConfirmedRegistrationsTx(ctx, a.db, eventID)
}

func (a *events) CountConfirmedRegistrationsTx(ctx context.Context, tx bun.IDB, eventID uuid.UUID) (int, error) {
	return tx.NewSelect().
		Model((*EventRegistration)(nil)).
		Where("?TableAlias.event_id = ?", eventID).
		Where("?TableAlias.status = ?", RegistrationConfirmed).
		Count(ctx)
}

// AvailableSpots reports remaining capacity for the event, -1 when unbounded.
func AvailableSpots(ctx context.Context, repo Events, event *Event) (int, error) {
	if event.Capacity <= 0 {
		return -1, nil
	}
	confirmed, err := repo.CountConfirmedRegistrations(ctx, event.ID)
	if err != nil {
		return 0, err
	}
	spots := event.Capacity - confirmed
	if spots < 0 {
		spots = 0
	}
	return spots, nil
}
