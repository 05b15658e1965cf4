package table

import (
	"fmt"
	"strings"

	"restaurant/internal/pkg/errs"
)

// Occupancy is the seating state of a table. Free and Occupied are derived from the
// table's unbilled orders; Reserved is set and cleared by staff.
type Occupancy int

const (
	OccupancyUnknown Occupancy = iota
	Free
	Occupied
	Reserved
)

var occupancyNames = map[Occupancy]string{
	Free:     "FREE",
	Occupied: "OCCUPIED",
	Reserved: "RESERVED",
}

// ParseOccupancy strictly maps an occupancy name, ignoring case and surrounding spaces.
func ParseOccupancy(raw string) (Occupancy, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for occupancy, occupancyName := range occupancyNames {
		if occupancyName == name {
			return occupancy, nil
		}
	}
	return OccupancyUnknown, errs.NewValueIsInvalidErrorWithCause(
		"occupancy is invalid",
		fmt.Errorf("%q is not a known occupancy", raw),
	)
}

func (o Occupancy) Validate() error {
	if _, ok := occupancyNames[o]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("occupancy is invalid", fmt.Errorf("%d is not a valid occupancy", o))
	}
	return nil
}

func (o Occupancy) String() string {
	if name, ok := occupancyNames[o]; ok {
		return name
	}
	return "UNKNOWN"
}
