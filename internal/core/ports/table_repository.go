package ports

import (
	"context"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/table"
)

// TableRepository stores Table aggregates. Names are unique; Add and Update report a
// clash as errs.ConflictError.
type TableRepository interface {
	Add(ctx context.Context, aggregate *table.Table) error

	Update(ctx context.Context, aggregate *table.Table) error

	Delete(ctx context.Context, id kernel.UUID) error

	Get(ctx context.Context, id kernel.UUID) (*table.Table, error)

	// GetByName returns errs.ObjectNotFoundError when no table has that name.
	GetByName(ctx context.Context, name string) (*table.Table, error)

	FindAll(ctx context.Context) ([]*table.Table, error)
}
