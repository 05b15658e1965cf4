package commands

import (
	"errors"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/guard"
)

var ErrInvoiceOrderCommandIsNotConstructed = errors.New(
	"InvoiceOrderCommand must be created via NewInvoiceOrderCommand constructor",
)

// InvoiceOrderCommand bills an order. Unrecognized payment methods fall back to
// order.DefaultPaymentMethod; FellBack and RequestedMethod let the handler log that.
type InvoiceOrderCommand struct { //nolint:recvcheck //using for validation
	orderID         kernel.UUID
	paymentMethod   order.PaymentMethod
	requestedMethod string
	fellBack        bool

	guard guard.ConstructorGuard
}

func NewInvoiceOrderCommand(orderID kernel.UUID, paymentMethod string) (InvoiceOrderCommand, error) {
	if err := orderID.Validate(); err != nil {
		return InvoiceOrderCommand{}, err
	}

	method, fellBack := order.PaymentMethodOrDefault(paymentMethod)
	return InvoiceOrderCommand{
		orderID:         orderID,
		paymentMethod:   method,
		requestedMethod: paymentMethod,
		fellBack:        fellBack,
		guard:           guard.NewConstructorGuard(),
	}, nil
}

func (c InvoiceOrderCommand) Validate() error {
	return c.guard.Validate(ErrInvoiceOrderCommandIsNotConstructed)
}

func (c InvoiceOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c InvoiceOrderCommand) PaymentMethod() order.PaymentMethod {
	return c.paymentMethod
}

func (c InvoiceOrderCommand) RequestedMethod() string {
	return c.requestedMethod
}

func (c InvoiceOrderCommand) FellBack() bool {
	return c.fellBack
}
