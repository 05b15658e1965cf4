package commands

import (
	"context"

	"restaurant/internal/core/domain/model/order"
)

// ReplaceLineItemsCommandHandler edits the items of an open order. Table occupancy is
// not affected.
type ReplaceLineItemsCommandHandler struct {
	uowFactory OrderUoWFactory
}

func NewReplaceLineItemsCommandHandler(uowFactory OrderUoWFactory) ReplaceLineItemsCommandHandler {
	return ReplaceLineItemsCommandHandler{uowFactory: uowFactory}
}

func (h ReplaceLineItemsCommandHandler) Handle(ctx context.Context, cmd ReplaceLineItemsCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return mutateOrder(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.ReplaceItems(cmd.Items())
	})
}
