package commands

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/guard"
)

var ErrReplaceLineItemsCommandIsNotConstructed = errors.New(
	"ReplaceLineItemsCommand must be created via NewReplaceLineItemsCommand constructor",
)

// ReplaceLineItemsCommand swaps the whole item collection of an order. A draft that
// carries the PriorID of an item already on the order is an edit (or a cancellation when
// Cancel is set); a draft without one is an addition.
type ReplaceLineItemsCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	items   []order.ItemDraft

	guard guard.ConstructorGuard
}

func NewReplaceLineItemsCommand(orderID kernel.UUID, items []order.ItemDraft) (ReplaceLineItemsCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ReplaceLineItemsCommand{}, err
	}

	return ReplaceLineItemsCommand{
		orderID: orderID,
		items:   append([]order.ItemDraft(nil), items...),
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c ReplaceLineItemsCommand) Validate() error {
	return c.guard.Validate(ErrReplaceLineItemsCommandIsNotConstructed)
}

func (c ReplaceLineItemsCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c ReplaceLineItemsCommand) Items() []order.ItemDraft {
	return append([]order.ItemDraft(nil), c.items...)
}
