package ports

import (
	"context"

	"restaurant/internal/core/domain/model/order"
)

// OrderPublisher pushes the snapshot of a freshly mutated order to whoever is watching.
// Implementations deal with their own failures; publishing never fails the mutation.
type OrderPublisher interface {
	PublishOrder(ctx context.Context, snapshot *order.Order)
}
