package order

import (
	"errors"
	"fmt"
	"strings"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"
)

var ErrLineItemIsNotConstructed = errors.New("LineItem must be created via NewLineItem or RestoreLineItem constructor")

// ItemDraft is a line item as submitted by a waiter, before the order decides its
// identity and edit state.
//
// PriorID is set when the item already existed on the order. Cancel asks for a prior
// item to be kept as cancelled instead of dropped. A missing UnitPrice counts as zero.
type ItemDraft struct {
	PriorID   *kernel.UUID
	Name      string
	Quantity  int
	UnitPrice kernel.Money
	Note      string
	Cancel    bool
}

// LineItem is one dish line of an order. It is owned by value by its Order.
type LineItem struct {
	id        kernel.UUID
	name      string
	quantity  int
	unitPrice kernel.Money
	note      string
	editState EditState

	isConstructed bool
}

// NewLineItem validates a line entered through the API: the name is required and the
// quantity must be positive.
func NewLineItem(
	id kernel.UUID,
	name string,
	quantity int,
	unitPrice kernel.Money,
	note string,
	editState EditState,
) (LineItem, error) {
	item := LineItem{
		unitPrice:     unitPrice,
		note:          strings.TrimSpace(note),
		isConstructed: true,
	}

	if err := errors.Join(
		item.setID(id),
		item.setName(name),
		item.setQuantity(quantity),
		item.setEditState(editState),
	); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

// RestoreLineItem rebuilds a stored line. Quantities are taken as stored.
func RestoreLineItem(
	id kernel.UUID,
	name string,
	quantity int,
	unitPrice kernel.Money,
	note string,
	editState EditState,
) (LineItem, error) {
	item := LineItem{
		name:          name,
		quantity:      quantity,
		unitPrice:     unitPrice,
		note:          note,
		isConstructed: true,
	}

	if err := errors.Join(item.setID(id), item.setEditState(editState)); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

func (i LineItem) Validate() error {
	if !i.isConstructed {
		return ErrLineItemIsNotConstructed
	}
	return nil
}

func (i LineItem) ID() kernel.UUID {
	return i.id
}

func (i LineItem) Name() string {
	return i.name
}

func (i LineItem) Quantity() int {
	return i.quantity
}

func (i LineItem) UnitPrice() kernel.Money {
	return i.unitPrice
}

func (i LineItem) Note() string {
	return i.note
}

func (i LineItem) EditState() EditState {
	return i.editState
}

func (i LineItem) IsCancelled() bool {
	return i.editState == ItemCancelled
}

// Subtotal is unit price times quantity. Cancelled items still report their subtotal;
// the order excludes them from its total.
func (i LineItem) Subtotal() kernel.Money {
	return i.unitPrice.Times(i.quantity)
}

func (i *LineItem) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	i.id = id
	return nil
}

func (i *LineItem) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("item name")
	}
	i.name = name
	return nil
}

func (i *LineItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity is invalid", fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

func (i *LineItem) setEditState(state EditState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	i.editState = state
	return nil
}
