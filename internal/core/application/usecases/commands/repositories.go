// Package commands contains the operations that change orders and tables.
// Every handler follows the same shape: validate the command, run the read-modify-write
// inside one unit of work, commit, and only then trigger the table occupancy follow-up.
package commands

import (
	"context"

	"restaurant/internal/core/ports"
)

// Unit of Work interfaces give command handlers transactional access to the stores.
type (
	// TxManager handles the transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides the order repository bound to the transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// TableRepoFactory provides the table repository bound to the transaction.
	TableRepoFactory interface {
		TableRepository() ports.TableRepository
	}

	// OrderUoW is used by handlers that only touch orders.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// UoW spans orders and tables. The TableCoordinator reads unbilled orders and writes
	// tables in the same transaction.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   count, err := uow.OrderRepository().CountUnbilledByTable(ctx, name)
	//   t, err := uow.TableRepository().GetByName(ctx, name)
	//   // ... apply occupancy
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		TableRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}

	// TableOccupancy is the follow-up order handlers trigger after their transaction
	// commits. Implementations log and absorb their own failures; the returned error is
	// informational.
	TableOccupancy interface {
		MarkOccupied(ctx context.Context, tableName string) error
		ReconcileAfterBilling(ctx context.Context, tableName string) error
	}
)
