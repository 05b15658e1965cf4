package queries

import (
	"errors"
	"strings"
	"time"

	"restaurant/internal/core/domain/model/order"
	"restaurant/internal/pkg/errs"
	"restaurant/internal/pkg/guard"
)

var ErrListOrdersQueryIsNotConstructed = errors.New(
	"ListOrdersQuery must be created via one of the NewList...Query constructors",
)

type listFilter int

const (
	filterAll listFilter = iota
	filterTable
	filterUnbilledTable
	filterUnbilled
	filterStatus
	filterCreatedBetween
)

// ListOrdersQuery selects orders by one filter. Results are always in creation order.
//
// Example:
//
//	query, err := NewListOrdersByTableQuery("T4", true)
//	active, err := handler.Handle(ctx, query)
//	fmt.Printf("%d unpaid orders at T4\n", len(active))
type ListOrdersQuery struct {
	filter    listFilter
	tableName string
	status    order.Status
	from      time.Time
	to        time.Time

	guard guard.ConstructorGuard
}

func NewListOrdersQuery() ListOrdersQuery {
	return ListOrdersQuery{filter: filterAll, guard: guard.NewConstructorGuard()}
}

// NewListOrdersByTableQuery lists the orders of one table, optionally only the unbilled
// ones.
func NewListOrdersByTableQuery(tableName string, unbilledOnly bool) (ListOrdersQuery, error) {
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return ListOrdersQuery{}, errs.NewValueIsRequiredError("table name")
	}

	filter := filterTable
	if unbilledOnly {
		filter = filterUnbilledTable
	}
	return ListOrdersQuery{filter: filter, tableName: tableName, guard: guard.NewConstructorGuard()}, nil
}

// NewListUnbilledOrdersQuery lists every order still awaiting payment.
func NewListUnbilledOrdersQuery() ListOrdersQuery {
	return ListOrdersQuery{filter: filterUnbilled, guard: guard.NewConstructorGuard()}
}

// NewListOrdersByStatusQuery parses status strictly.
func NewListOrdersByStatusQuery(status string) (ListOrdersQuery, error) {
	parsed, err := order.ParseStatus(status)
	if err != nil {
		return ListOrdersQuery{}, err
	}
	return ListOrdersQuery{filter: filterStatus, status: parsed, guard: guard.NewConstructorGuard()}, nil
}

// NewListOrdersCreatedBetweenQuery lists orders created in [from, to).
func NewListOrdersCreatedBetweenQuery(from, to time.Time) (ListOrdersQuery, error) {
	if !from.Before(to) {
		return ListOrdersQuery{}, errs.NewValueIsOutOfRangeError("from", from, time.Time{}, to)
	}
	return ListOrdersQuery{filter: filterCreatedBetween, from: from, to: to, guard: guard.NewConstructorGuard()}, nil
}

// NewListOrdersOfDayQuery lists the orders created on the calendar day of day, in day's
// location.
func NewListOrdersOfDayQuery(day time.Time) ListOrdersQuery {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query, _ := NewListOrdersCreatedBetweenQuery(start, start.AddDate(0, 0, 1))
	return query
}

func (q ListOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListOrdersQueryIsNotConstructed)
}
