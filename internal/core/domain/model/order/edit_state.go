package order

import (
	"fmt"

	"restaurant/internal/pkg/errs"
)

// EditState records how a line item reached its current form.
type EditState int

const (
	EditUnknown EditState = iota
	// ItemNormal marks items submitted with the original order.
	ItemNormal
	// ItemEdited marks items that existed before the last edit and were resubmitted.
	ItemEdited
	// ItemAdded marks items introduced by an edit.
	ItemAdded
	// ItemCancelled items stay on the order for audit and are excluded from the total.
	ItemCancelled
)

var editStateNames = map[EditState]string{
	ItemNormal:    "NORMAL",
	ItemEdited:    "EDITED",
	ItemAdded:     "ADDED",
	ItemCancelled: "CANCELLED",
}

func (e EditState) Validate() error {
	if _, ok := editStateNames[e]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("edit state is invalid", fmt.Errorf("%d is not a valid edit state", e))
	}
	return nil
}

func (e EditState) String() string {
	if name, ok := editStateNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}
