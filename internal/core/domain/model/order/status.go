package order

import (
	"fmt"
	"strings"

	"restaurant/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
// State transitions:
//
//	Pending ─> InProgress ─> Ready ─> Delivered ─> Invoiced
//	   │            │          │          │
//	   └────────────┴──────────┴──────────┴──────> Cancelled
//
// Orders are created directly in InProgress. Kitchen staff may move an order between
// any two non-final states (a ticket sent back from the pass goes from Ready to
// InProgress again). Invoiced and Cancelled are final. Invoiced is reached only
// through Order.Invoice so that the billed flag and the status never disagree.
type Status int

const (
	// Unknown catches uninitialized values and anything read from storage that does not
	// map to a real state.
	Unknown Status = iota
	Pending
	InProgress
	Ready
	Delivered
	Invoiced
	Cancelled
)

var statusNames = map[Status]string{
	Pending:    "PENDING",
	InProgress: "IN_PROGRESS",
	Ready:      "READY",
	Delivered:  "DELIVERED",
	Invoiced:   "INVOICED",
	Cancelled:  "CANCELLED",
}

// ParseStatus maps an external status name to a Status. Matching ignores case and
// surrounding whitespace; anything else is rejected, never coerced.
func ParseStatus(raw string) (Status, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for status, statusName := range statusNames {
		if statusName == name {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause(
		"status is invalid",
		fmt.Errorf("%q is not a known status", raw),
	)
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsFinal reports whether no further transition is allowed.
func (s Status) IsFinal() bool {
	return s == Invoiced || s == Cancelled
}

// TransitionTo returns target if the move from s is allowed.
//
// Returns an error when target is not a valid status, when s is final, or when target
// is Invoiced (use Invoice instead).
func (s Status) TransitionTo(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return Unknown, err
	}
	if s.IsFinal() {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is a final status and cannot change to %s", s, target),
		)
	}
	if target == Invoiced {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s can only be reached by invoicing the order", Invoiced),
		)
	}
	return target, nil
}

// Invoice returns Invoiced if the order can still be billed.
func (s Status) Invoice() (Status, error) {
	if err := s.Validate(); err != nil {
		return Unknown, err
	}
	if s.IsFinal() {
		return Unknown, errs.NewValueIsInvalidErrorWithCause(
			"status is invalid",
			fmt.Errorf("%s is not a valid status to invoice", s),
		)
	}
	return Invoiced, nil
}
