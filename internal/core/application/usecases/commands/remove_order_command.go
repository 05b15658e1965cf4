package commands

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/guard"
)

var ErrRemoveOrderCommandIsNotConstructed = errors.New(
	"RemoveOrderCommand must be created via NewRemoveOrderCommand constructor",
)

type RemoveOrderCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID

	guard guard.ConstructorGuard
}

func NewRemoveOrderCommand(orderID kernel.UUID) (RemoveOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return RemoveOrderCommand{}, err
	}
	return RemoveOrderCommand{orderID: orderID, guard: guard.NewConstructorGuard()}, nil
}

func (c RemoveOrderCommand) Validate() error {
	return c.guard.Validate(ErrRemoveOrderCommandIsNotConstructed)
}

func (c RemoveOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}
