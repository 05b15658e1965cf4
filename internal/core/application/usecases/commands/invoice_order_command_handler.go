package commands

import (
	"context"

	"restaurant/internal/core/domain/model/order"

	"github.com/sirupsen/logrus"
)

// InvoiceOrderCommandHandler bills an order and then frees its table if that was the
// table's last unbilled order.
type InvoiceOrderCommandHandler struct {
	uowFactory OrderUoWFactory
	tables     TableOccupancy
	logger     logrus.FieldLogger
}

func NewInvoiceOrderCommandHandler(
	uowFactory OrderUoWFactory,
	tables TableOccupancy,
	logger logrus.FieldLogger,
) InvoiceOrderCommandHandler {
	return InvoiceOrderCommandHandler{
		uowFactory: uowFactory,
		tables:     tables,
		logger:     logger.WithField("component", "invoice-order"),
	}
}

func (h InvoiceOrderCommandHandler) Handle(ctx context.Context, cmd InvoiceOrderCommand) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	invoiced, err := mutateOrder(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) error {
		return o.Invoice(cmd.PaymentMethod())
	})
	if err != nil {
		return nil, err
	}

	if cmd.FellBack() {
		h.logger.WithFields(logrus.Fields{
			"order_id":         invoiced.ID().String(),
			"requested_method": cmd.RequestedMethod(),
			"applied_method":   cmd.PaymentMethod().String(),
		}).Warn("unrecognized payment method, applied default")
	}

	// TableOccupancy logs and retries its own failures; the order change stands.
	_ = h.tables.ReconcileAfterBilling(ctx, invoiced.TableName())

	return invoiced, nil
}
