package ports

import (
	"context"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
)

// OrderRepository stores Order aggregates together with their line items.
//
// Update is an optimistic write: it succeeds only if the stored version equals
// aggregate.Version() and returns an errs.ConflictError otherwise. Missing orders are
// reported as errs.ObjectNotFoundError.
type OrderRepository interface {
	Add(ctx context.Context, aggregate *order.Order) error

	Update(ctx context.Context, aggregate *order.Order) error

	Delete(ctx context.Context, id kernel.UUID) error

	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetForUpdate reads the order and, where the store supports it, locks its row until
	// the surrounding transaction ends.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*order.Order, error)

	FindAll(ctx context.Context) ([]*order.Order, error)

	FindByTable(ctx context.Context, tableName string) ([]*order.Order, error)

	FindUnbilledByTable(ctx context.Context, tableName string) ([]*order.Order, error)

	FindUnbilled(ctx context.Context) ([]*order.Order, error)

	FindByStatus(ctx context.Context, status order.Status) ([]*order.Order, error)

	FindCreatedBetween(ctx context.Context, from, to time.Time) ([]*order.Order, error)

	CountUnbilledByTable(ctx context.Context, tableName string) (int64, error)
}
