package commands

import (
	"context"
	"time"

	"restaurant/internal/core/domain/model/order"
)

// CreateOrderCommandHandler persists a new order and then seats its table.
//
// Example:
//
//	handler := NewCreateOrderCommandHandler(uowFactory, coordinator, time.Now)
//	created, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return fmt.Errorf("order creation failed: %w", err)
//	}
//	// created is InProgress and its table is now Occupied
type CreateOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	tables     TableOccupancy
	now        func() time.Time
}

func NewCreateOrderCommandHandler(
	uowFactory OrderUoWFactory,
	tables TableOccupancy,
	now func() time.Time,
) CreateOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		tables:     tables,
		now:        now,
	}
}

// Handle stores the order in InProgress with every item tagged ItemNormal. The table is
// marked Occupied after the commit; an unknown table is left alone.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	created, err := order.NewOrder(cmd.OrderID(), cmd.TableName(), h.now(), cmd.Items())
	if err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, created); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	// TableOccupancy logs and retries its own failures; the reconciliation job heals
	// what is left.
	_ = h.tables.MarkOccupied(ctx, created.TableName())

	return created, nil
}
