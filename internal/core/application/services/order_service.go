// Package services composes the order handlers, the table coordinator and the
// publishers into the single entry point used by the transports.
package services

import (
	"context"
	"errors"
	"time"

	"restaurant/internal/core/application/usecases/commands"
	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/core/ports"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/keylock"

	"github.com/sirupsen/logrus"
)

// Handler is the shape shared by every order command handler.
type Handler[C any] interface {
	Handle(ctx context.Context, cmd C) (*order.Order, error)
}

// OrderHandlers groups the command handlers OrderService sequences.
type OrderHandlers struct {
	Create       Handler[commands.CreateOrderCommand]
	ReplaceItems Handler[commands.ReplaceLineItemsCommand]
	SetStatus    Handler[commands.SetOrderStatusCommand]
	Invoice      Handler[commands.InvoiceOrderCommand]
	Remove       Handler[commands.RemoveOrderCommand]
}

// OrderServiceConfig bounds the whole-operation retry on lost updates.
type OrderServiceConfig struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultOrderServiceConfig() OrderServiceConfig {
	return OrderServiceConfig{Attempts: 3, Backoff: 20 * time.Millisecond}
}

// OrderService runs every order mutation in the same order: persist the order, settle the
// table occupancy (inside the handlers, after commit), then announce the new snapshot to
// each publisher.
//
// Mutations of one order are mutually exclusive within the process, publishing included,
// so viewers see that order's snapshots in commit order. The store's version
// check catches writers in other processes, and a lost update is retried from a fresh
// read up to Attempts times before errs.ConflictError reaches the caller. Publishing
// never fails a mutation.
type OrderService struct {
	handlers   OrderHandlers
	publishers []ports.OrderPublisher
	locks      *keylock.KeyLock
	cfg        OrderServiceConfig
	logger     logrus.FieldLogger
}

func NewOrderService(
	handlers OrderHandlers,
	publishers []ports.OrderPublisher,
	cfg OrderServiceConfig,
	logger logrus.FieldLogger,
) *OrderService {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 1
	}
	return &OrderService{
		handlers:   handlers,
		publishers: publishers,
		locks:      keylock.New(),
		cfg:        cfg,
		logger:     logger.WithField("component", "order-service"),
	}
}

// Create opens a new order for tableName. The table, if known, becomes Occupied.
func (s *OrderService) Create(ctx context.Context, tableName string, items []order.ItemDraft) (*order.Order, error) {
	cmd, err := commands.NewCreateOrderCommand(kernel.NewUUID(), tableName, items)
	if err != nil {
		return nil, err
	}

	created, err := s.handlers.Create.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, "create", created)
	return created, nil
}

// ReplaceItems swaps the line items of an open order.
func (s *OrderService) ReplaceItems(ctx context.Context, orderID kernel.UUID, items []order.ItemDraft) (*order.Order, error) {
	cmd, err := commands.NewReplaceLineItemsCommand(orderID, items)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "replace items", orderID, func(ctx context.Context) (*order.Order, error) {
		return s.handlers.ReplaceItems.Handle(ctx, cmd)
	})
}

// SetStatus moves an order to the named status. Unknown names are rejected.
func (s *OrderService) SetStatus(ctx context.Context, orderID kernel.UUID, status string) (*order.Order, error) {
	cmd, err := commands.NewSetOrderStatusCommand(orderID, status)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "set status", orderID, func(ctx context.Context) (*order.Order, error) {
		return s.handlers.SetStatus.Handle(ctx, cmd)
	})
}

// Invoice bills an order. Unknown payment methods fall back to order.DefaultPaymentMethod.
func (s *OrderService) Invoice(ctx context.Context, orderID kernel.UUID, paymentMethod string) (*order.Order, error) {
	cmd, err := commands.NewInvoiceOrderCommand(orderID, paymentMethod)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "invoice", orderID, func(ctx context.Context) (*order.Order, error) {
		return s.handlers.Invoice.Handle(ctx, cmd)
	})
}

// Remove deletes an order. Viewers receive its last snapshot.
func (s *OrderService) Remove(ctx context.Context, orderID kernel.UUID) (*order.Order, error) {
	cmd, err := commands.NewRemoveOrderCommand(orderID)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, "remove", orderID, func(ctx context.Context) (*order.Order, error) {
		return s.handlers.Remove.Handle(ctx, cmd)
	})
}

func (s *OrderService) mutate(
	ctx context.Context,
	operation string,
	orderID kernel.UUID,
	run func(ctx context.Context) (*order.Order, error),
) (*order.Order, error) {
	unlock, err := s.locks.Lock(ctx, orderID.String())
	if err != nil {
		return nil, err
	}
	defer unlock()

	result, err := s.runWithRetry(ctx, operation, orderID, run)
	if err != nil {
		return nil, err
	}

	// Snapshots of one order leave in commit order, so the lock is held until every
	// publisher has returned. Hub writes are bounded by their write timeout.
	s.publish(ctx, operation, result)
	return result, nil
}

func (s *OrderService) runWithRetry(
	ctx context.Context,
	operation string,
	orderID kernel.UUID,
	run func(ctx context.Context) (*order.Order, error),
) (*order.Order, error) {
	for attempt := 1; ; attempt++ {
		result, err := run(ctx)
		if err == nil || !errors.Is(err, errs.ErrConflict) || attempt >= s.cfg.Attempts {
			return result, err
		}

		s.logger.WithFields(logrus.Fields{
			"order_id":  orderID.String(),
			"operation": operation,
			"attempt":   attempt,
		}).Debug("lost update, retrying")

		timer := time.NewTimer(s.cfg.Backoff * time.Duration(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, errors.Join(err, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *OrderService) publish(ctx context.Context, operation string, snapshot *order.Order) {
	// Publishing outlives the request that caused it.
	ctx = context.WithoutCancel(ctx)
	for _, publisher := range s.publishers {
		publisher.PublishOrder(ctx, snapshot)
	}

	s.logger.WithFields(logrus.Fields{
		"order_id":  snapshot.ID().String(),
		"table":     snapshot.TableName(),
		"status":    snapshot.Status().String(),
		"operation": operation,
	}).Debug("order published")
}
