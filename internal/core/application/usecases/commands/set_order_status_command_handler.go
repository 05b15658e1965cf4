package commands

import (
	"context"

	"restaurant/internal/core/domain/model/order"
)

// SetOrderStatusCommandHandler applies a status change. Occupancy only depends on
// billing, so the table is not touched.
type SetOrderStatusCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewSetOrderStatusCommandHandler(uowFactory OrderUoWFactory) SetOrderStatusCommandHandler {
	return SetOrderStatusCommandHandler{uowFactory: uowFactory}
}

func (h SetOrderStatusCommandHandler) Handle(ctx context.Context, cmd SetOrderStatusCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return mutateOrder(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.ChangeStatus(cmd.Status())
	})
}
