package table

import (
	"errors"
	"fmt"
	"strings"

	"restaurant/internal/core/domain/model/kernel"
	"restaurant/internal/pkg/errs"
)

var (
	// ErrNameIsRequired is returned when a table is created or renamed to a blank name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("table name")
	// ErrTableIsNotConstructed is returned when using an improperly initialized Table.
	ErrTableIsNotConstructed = errors.New("Table must be created via NewTable constructor")
)

// Table is a seating place on the floor, identified internally by id and by staff and
// orders through its unique name.
//
// Occupancy rules:
//   - Occupy seats guests: Free or Reserved becomes Occupied
//   - Vacate frees an Occupied table; a Reserved table keeps its reservation
//   - Reserve and Release are manual and only move between Free and Reserved
type Table struct {
	id        kernel.UUID
	name      string
	occupancy Occupancy

	isConstructed bool
}

// NewTable creates a Free table.
func NewTable(id kernel.UUID, name string) (*Table, error) {
	t := &Table{
		occupancy:     Free,
		isConstructed: true,
	}

	if err := errors.Join(t.setID(id), t.setName(name)); err != nil {
		return nil, err
	}

	return t, nil
}

// RestoreTable rebuilds a table read from storage.
func RestoreTable(id kernel.UUID, name string, occupancy Occupancy) (*Table, error) {
	t := &Table{isConstructed: true}

	if err := errors.Join(t.setID(id), t.setName(name), occupancy.Validate()); err != nil {
		return nil, err
	}

	t.occupancy = occupancy
	return t, nil
}

func (t *Table) Validate() error {
	if t == nil || !t.isConstructed {
		return ErrTableIsNotConstructed
	}
	return nil
}

func (t *Table) IsEqual(other *Table) bool {
	return other != nil && t.id.IsEqual(other.id)
}

func (t *Table) ID() kernel.UUID {
	return t.id
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Occupancy() Occupancy {
	return t.occupancy
}

func (t *Table) Rename(name string) error {
	return t.setName(name)
}

// Occupy marks the table as seated. It reports whether the occupancy changed.
func (t *Table) Occupy() bool {
	if t.occupancy == Occupied {
		return false
	}
	t.occupancy = Occupied
	return true
}

// Vacate frees an Occupied table. Free and Reserved tables are left as they are. It
// reports whether the occupancy changed.
func (t *Table) Vacate() bool {
	if t.occupancy != Occupied {
		return false
	}
	t.occupancy = Free
	return true
}

// Reserve holds a Free table for an upcoming party.
func (t *Table) Reserve() error {
	if t.occupancy != Free {
		return errs.NewValueIsInvalidErrorWithCause(
			"occupancy is invalid",
			fmt.Errorf("%s table cannot be reserved", t.occupancy),
		)
	}
	t.occupancy = Reserved
	return nil
}

// Release cancels a reservation.
func (t *Table) Release() error {
	if t.occupancy != Reserved {
		return errs.NewValueIsInvalidErrorWithCause(
			"occupancy is invalid",
			fmt.Errorf("%s table has no reservation to release", t.occupancy),
		)
	}
	t.occupancy = Free
	return nil
}

func (t *Table) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	t.id = id
	return nil
}

func (t *Table) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	t.name = name
	return nil
}
