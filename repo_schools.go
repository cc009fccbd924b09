package eventsync

import (
	"context"
	"strings"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type Schools interface {
	repository.Repository[*School]

	GetByName(ctx context.Context, name string, criteria ...repository.SelectCriteria) (*School, error)
	GetByNameTx(ctx context.Context, tx bun.IDB, name string, criteria ...repository.SelectCriteria) (*School, error)
	Create(ctx context.Context, record *School, criteria ...repository.InsertCriteria) (*School, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *School, criteria ...repository.InsertCriteria) (*School, error)
	ListRoster(ctx context.Context, schoolID uuid.UUID) ([]*User, error)
	ListAll(ctx context.Context) ([]*School, error)
}

type schools struct {
	repository.Repository[*School]
	db *bun.DB
}

var _ Schools = (*schools)(nil)

func NewSchoolsRepository(db *bun.DB) Schools {
	repo := repository.NewRepository[*School](db, repository.ModelHandlers[*School]{
		NewRecord: func() *School { return &School{} },
		GetID: func(s *School) uuid.UUID {
			if s == nil {
				return uuid.Nil
			}
			return s.ID
		},
		SetID: func(s *School, id uuid.UUID) {
			if s != nil {
				s.ID = id
			}
		},
		GetIdentifier: func() string {
			return "name"
		},
	})

	return &schools{
		Repository: repo,
		db:         db,
	}
}

func (a *schools) GetByName(ctx context.Context, name string, criteria ...repository.SelectCriteria) (*School, error) {
	return a.GetByNameTx(ctx, a.db, name, criteria...)
}

func (a *schools) GetByNameTx(ctx context.Context, tx bun.IDB, name string, criteria ...repository.SelectCriteria) (*School, error) {
	record := &School{}
	q := tx.NewSelect().Model(record)

	for _, c := range criteria {
		q.Apply(c)
	}

	err := q.
		Where("?TableAlias.name = ?", strings.TrimSpace(name)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"name": name,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *schools) Create(ctx context.Context, record *School, criteria ...repository.InsertCriteria) (*School, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *schools) CreateTx(ctx context.Context, tx bun.IDB, record *School, criteria ...repository.InsertCriteria) (*School, error) {
	if record != nil && record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	SchoolDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *schools) ListAll(ctx context.Context) ([]*School, error) {
	var records []*School
	err := a.db.NewSelect().
		Model(&records).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ListRoster returns the users affiliated with the school. Guard checks
// happen at the call site, the repository stays policy free.
func (a *schools) ListRoster(ctx context.Context, schoolID uuid.UUID) ([]*User, error) {
	var members []*User
	err := a.db.NewSelect().
		Model(&members).
		Where("?TableAlias.school_id = ?", schoolID).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return members, nil
}
