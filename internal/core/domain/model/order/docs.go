// Package order holds the Order aggregate of the restaurant floor: a table's ticket
// with its line items, derived total and billing state.
//
// The package includes:
//   - Order: the aggregate root, its edit, status and invoicing operations
//   - LineItem and ItemDraft: stored lines and the waiter's input for them
//   - Status: the lifecycle state machine
//   - EditState: how each line reached its current form
//   - PaymentMethod: settlement method, with the DefaultPaymentMethod fallback policy
//
// Key business rules:
//   - New orders start InProgress and unbilled
//   - The total always equals the sum of the non-cancelled lines
//   - Invoiced and Cancelled are final; only Invoice reaches Invoiced
//   - Status names are parsed strictly; unknown payment methods fall back to Cash
package order
