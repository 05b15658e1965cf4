package commands

import (
	"context"

	"restaurant/internal/core/domain/model/order"
)

// RemoveOrderCommandHandler deletes an order with its line items. It returns the order as
// it was just before deletion so the caller can announce it.
type RemoveOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	tables     TableOccupancy
}

func NewRemoveOrderCommandHandler(uowFactory OrderUoWFactory, tables TableOccupancy) RemoveOrderCommandHandler {
	return RemoveOrderCommandHandler{uowFactory: uowFactory, tables: tables}
}

// Handle deletes the order and, after the commit, frees its table when no other
// unbilled order remains there.
func (h RemoveOrderCommandHandler) Handle(ctx context.Context, cmd RemoveOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	removed, err := orderRepo.GetForUpdate(ctx, cmd.OrderID())
	if err != nil {
		return nil, err
	}

	if err = orderRepo.Delete(ctx, removed.ID()); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	// TableOccupancy logs and retries its own failures; the order change stands.
	_ = h.tables.ReconcileAfterBilling(ctx, removed.TableName())

	return removed, nil
}
