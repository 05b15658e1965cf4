package order

import (
	"fmt"
	"strings"

	"restaurant/internal/pkg/errs"
)

// PaymentMethod is how an invoiced order was settled.
type PaymentMethod int

const (
	PaymentUnknown PaymentMethod = iota
	Cash
	Card
	Transfer
	Wallet
)

// DefaultPaymentMethod is applied when the front desk submits a method the system does
// not recognize. Invoicing must not fail at the till over a typo.
const DefaultPaymentMethod = Cash

var paymentMethodNames = map[PaymentMethod]string{
	Cash:     "CASH",
	Card:     "CARD",
	Transfer: "TRANSFER",
	Wallet:   "WALLET",
}

// ParsePaymentMethod strictly maps a method name, ignoring case and surrounding spaces.
func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for method, methodName := range paymentMethodNames {
		if methodName == name {
			return method, nil
		}
	}
	return PaymentUnknown, errs.NewValueIsInvalidErrorWithCause(
		"payment method is invalid",
		fmt.Errorf("%q is not a known payment method", raw),
	)
}

// PaymentMethodOrDefault applies the DefaultPaymentMethod policy. The second result is
// true when raw was not recognized and the default was used, so callers can log it.
func PaymentMethodOrDefault(raw string) (PaymentMethod, bool) {
	method, err := ParsePaymentMethod(raw)
	if err != nil {
		return DefaultPaymentMethod, true
	}
	return method, false
}

func (p PaymentMethod) Validate() error {
	if _, ok := paymentMethodNames[p]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("payment method is invalid", fmt.Errorf("%d is not a valid payment method", p))
	}
	return nil
}

func (p PaymentMethod) String() string {
	if name, ok := paymentMethodNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}
