package eventsync

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateTables brings up the schema for a fresh database. Uses IfNotExists
// so repeated boots are safe, real deployments should move to versioned
// migrations once the schema settles.
func CreateTables(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*School)(nil),
		(*User)(nil),
		(*Event)(nil),
		(*EventRegistration)(nil),
		(*Contact)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table").
				WithMetadata(map[string]any{
					"model": fmt.Sprintf("%T", model),
				})
		}
	}

	return nil
}
