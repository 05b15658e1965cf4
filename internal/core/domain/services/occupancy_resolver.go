package services

import (
	"fmt"

	"restaurant/internal/core/domain/model/table"
	"restaurant/internal/pkg/errs"
)

// OccupancyResolver derives a table's occupancy from the number of its unbilled orders.
//
// A table with at least one unbilled order is Occupied. A table with none is Free,
// unless staff reserved it, in which case the reservation stands.
type OccupancyResolver struct{}

func NewOccupancyResolver() OccupancyResolver {
	return OccupancyResolver{}
}

// Resolve returns the occupancy a table in state current should have.
func (OccupancyResolver) Resolve(current table.Occupancy, unbilled int64) table.Occupancy {
	switch {
	case unbilled > 0:
		return table.Occupied
	case current == table.Reserved:
		return table.Reserved
	default:
		return table.Free
	}
}

// Apply brings t in line with unbilled and reports whether it changed.
func (r OccupancyResolver) Apply(t *table.Table, unbilled int64) (bool, error) {
	if err := t.Validate(); err != nil {
		return false, err
	}
	if unbilled < 0 {
		return false, errs.NewValueIsInvalidErrorWithCause(
			"unbilled count is invalid",
			fmt.Errorf("%d is negative", unbilled),
		)
	}

	switch r.Resolve(t.Occupancy(), unbilled) {
	case table.Occupied:
		return t.Occupy(), nil
	case table.Free:
		return t.Vacate(), nil
	default:
		return false, nil
	}
}

// ApplyAfterBilling only ever frees a table: billing can end an occupation but never
// start one.
func (r OccupancyResolver) ApplyAfterBilling(t *table.Table, unbilled int64) (bool, error) {
	if unbilled > 0 {
		return false, t.Validate()
	}
	return r.Apply(t, unbilled)
}
