package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"
)

var (
	// ErrOrderIsNotConstructed is returned when an Order instance was not created through
	// NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root for a table's ticket. It owns its line items by value and
// keeps the derived total in step with them.
//
// Order follows these invariants:
//   - total equals the sum of price*quantity over items that are not cancelled
//   - a billed order is always Invoiced
//   - final orders (Invoiced, Cancelled) accept no further edits
//
// version is the optimistic concurrency token of the stored row. It is not part of the
// business state and never leaves the persistence boundary in a snapshot.
type Order struct {
	id            kernel.UUID
	tableName     string
	status        Status
	createdAt     time.Time
	total         kernel.Money
	billed        bool
	paymentMethod *PaymentMethod
	items         []LineItem
	version       int

	isConstructed bool
}

// NewOrder opens a ticket for a table. The order starts InProgress, unbilled, with every
// draft tagged ItemNormal.
//
// Returns a validation error when the table name is blank, createdAt is zero, or any
// draft has a blank name or a non-positive quantity.
//
// Example:
//
//	price, _ := kernel.MoneyFromString("12.50")
//	o, err := order.NewOrder(kernel.NewUUID(), "T4", time.Now(), []order.ItemDraft{
//	    {Name: "Lomo saltado", Quantity: 2, UnitPrice: price},
//	})
func NewOrder(id kernel.UUID, tableName string, createdAt time.Time, drafts []ItemDraft) (*Order, error) {
	o := &Order{
		status:        InProgress,
		isConstructed: true,
	}

	items := make([]LineItem, 0, len(drafts))
	var itemErrs []error
	for idx, draft := range drafts {
		item, err := NewLineItem(kernel.NewUUID(), draft.Name, draft.Quantity, draft.UnitPrice, draft.Note, ItemNormal)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("item %d: %w", idx, err))
			continue
		}
		items = append(items, item)
	}

	if err := errors.Join(
		o.setID(id),
		o.setTableName(tableName),
		o.setCreatedAt(createdAt),
		errors.Join(itemErrs...),
	); err != nil {
		return nil, err
	}

	o.items = items
	o.recalculateTotal()
	return o, nil
}

// RestoreOrder rebuilds an order read from storage. The total is recomputed from the
// items rather than trusted.
func RestoreOrder(
	id kernel.UUID,
	tableName string,
	status Status,
	createdAt time.Time,
	billed bool,
	paymentMethod *PaymentMethod,
	items []LineItem,
	version int,
) (*Order, error) {
	o := &Order{
		status:        status,
		createdAt:     createdAt,
		billed:        billed,
		version:       version,
		isConstructed: true,
	}

	if err := errors.Join(
		o.setID(id),
		o.setTableName(tableName),
		status.Validate(),
		o.setPaymentMethod(paymentMethod),
		o.validateBilling(),
	); err != nil {
		return nil, err
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	o.items = append([]LineItem(nil), items...)
	o.recalculateTotal()
	return o, nil
}

// Validate ensures the Order instance was properly constructed.
func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

// IsEqual compares two orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) TableName() string {
	return o.tableName
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) Total() kernel.Money {
	return o.total
}

func (o *Order) IsBilled() bool {
	return o.billed
}

// PaymentMethod returns nil until the order is invoiced.
func (o *Order) PaymentMethod() *PaymentMethod {
	if o.paymentMethod == nil {
		return nil
	}
	method := *o.paymentMethod
	return &method
}

// Items returns a copy of the line items in insertion order.
func (o *Order) Items() []LineItem {
	return append([]LineItem(nil), o.items...)
}

func (o *Order) Version() int {
	return o.version
}

// AdvanceVersion is called by the store after it wrote this aggregate under its current
// version, so that a further write from the same instance is not seen as a lost update.
func (o *Order) AdvanceVersion() {
	o.version++
}

// ReplaceItems swaps the whole item collection for drafts. Every stored item gets a new
// identity; the draft's PriorID only decides the edit state:
//   - no PriorID: ItemAdded
//   - PriorID: ItemEdited
//   - PriorID and Cancel: ItemCancelled (kept for audit, excluded from the total)
//
// Items missing from drafts are dropped. Final orders reject the edit.
func (o *Order) ReplaceItems(drafts []ItemDraft) error {
	if o.status.IsFinal() {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s orders cannot be edited", o.status),
		)
	}

	items := make([]LineItem, 0, len(drafts))
	var itemErrs []error
	for idx, draft := range drafts {
		state, err := draftEditState(draft)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("item %d: %w", idx, err))
			continue
		}

		item, err := NewLineItem(kernel.NewUUID(), draft.Name, draft.Quantity, draft.UnitPrice, draft.Note, state)
		if err != nil {
			itemErrs = append(itemErrs, fmt.Errorf("item %d: %w", idx, err))
			continue
		}
		items = append(items, item)
	}

	if err := errors.Join(itemErrs...); err != nil {
		return err
	}

	o.items = items
	o.recalculateTotal()
	return nil
}

// ChangeStatus moves the order to target following the Status rules. The order is left
// untouched on error.
func (o *Order) ChangeStatus(target Status) error {
	next, err := o.status.TransitionTo(target)
	if err != nil {
		return err
	}
	o.status = next
	return nil
}

// Invoice bills the order with the given payment method.
func (o *Order) Invoice(method PaymentMethod) error {
	if err := method.Validate(); err != nil {
		return err
	}

	next, err := o.status.Invoice()
	if err != nil {
		return err
	}

	o.status = next
	o.billed = true
	o.paymentMethod = &method
	return nil
}

func draftEditState(draft ItemDraft) (EditState, error) {
	switch {
	case draft.PriorID == nil && draft.Cancel:
		return EditUnknown, errs.NewValueIsInvalidErrorWithCause(
			"item is invalid",
			errors.New("only items already on the order can be cancelled"),
		)
	case draft.PriorID == nil:
		return ItemAdded, nil
	case draft.Cancel:
		return ItemCancelled, nil
	default:
		return ItemEdited, nil
	}
}

func (o *Order) recalculateTotal() {
	total := kernel.ZeroMoney()
	for _, item := range o.items {
		if item.IsCancelled() {
			continue
		}
		total = total.Add(item.Subtotal())
	}
	o.total = total
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setTableName(tableName string) error {
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return errs.NewValueIsRequiredError("table name")
	}
	o.tableName = tableName
	return nil
}

func (o *Order) setCreatedAt(createdAt time.Time) error {
	if createdAt.IsZero() {
		return errs.NewValueIsRequiredError("created at")
	}
	o.createdAt = createdAt
	return nil
}

func (o *Order) setPaymentMethod(method *PaymentMethod) error {
	if method == nil {
		return nil
	}
	if err := method.Validate(); err != nil {
		return err
	}
	m := *method
	o.paymentMethod = &m
	return nil
}

func (o *Order) validateBilling() error {
	if o.billed && o.status != Invoiced {
		return errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("billed order cannot be %s", o.status),
		)
	}
	return nil
}
