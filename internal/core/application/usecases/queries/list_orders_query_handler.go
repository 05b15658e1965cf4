package queries

import (
	"context"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"
)

type ListOrdersQueryHandler struct {
	orders ports.OrderRepository
}

func NewListOrdersQueryHandler(orders ports.OrderRepository) ListOrdersQueryHandler {
	return ListOrdersQueryHandler{orders: orders}
}

func (h ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) ([]*order.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	switch query.filter {
	case filterTable:
		return h.orders.FindByTable(ctx, query.tableName)
	case filterUnbilledTable:
		return h.orders.FindUnbilledByTable(ctx, query.tableName)
	case filterUnbilled:
		return h.orders.FindUnbilled(ctx)
	case filterStatus:
		return h.orders.FindByStatus(ctx, query.status)
	case filterCreatedBetween:
		return h.orders.FindCreatedBetween(ctx, query.from, query.to)
	default:
		return h.orders.FindAll(ctx)
	}
}
