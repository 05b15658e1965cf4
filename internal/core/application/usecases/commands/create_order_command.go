package commands

import (
	"errors"
	"strings"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrTableNameIsRequired = errs.NewValueIsRequiredError("table name")
)

// CreateOrderCommand opens a new order for a table.
//
// Example:
//
//	price, _ := kernel.MoneyFromString("18.90")
//	cmd, err := NewCreateOrderCommand(kernel.NewUUID(), "T4", []order.ItemDraft{
//	    {Name: "Arroz con mariscos", Quantity: 1, UnitPrice: price},
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	created, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	tableName string
	items     []order.ItemDraft

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the order id and the table name. Line items are
// validated by the Order aggregate when the handler builds it.
func NewCreateOrderCommand(orderID kernel.UUID, tableName string, items []order.ItemDraft) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setOrderID(orderID),
		cmd.setTableName(tableName),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd.items = append([]order.ItemDraft(nil), items...)
	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) TableName() string {
	return c.tableName
}

func (c CreateOrderCommand) Items() []order.ItemDraft {
	return append([]order.ItemDraft(nil), c.items...)
}

func (c *CreateOrderCommand) setOrderID(orderID kernel.UUID) error {
	if err := orderID.Validate(); err != nil {
		return err
	}
	c.orderID = orderID
	return nil
}

func (c *CreateOrderCommand) setTableName(tableName string) error {
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return ErrTableNameIsRequired
	}
	c.tableName = tableName
	return nil
}
